package submission

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rentaiagent/adapters/backend"
	"rentaiagent/adapters/mailer"
	"rentaiagent/core/wizard"
	"rentaiagent/internal/errors"
	"rentaiagent/internal/logging"
)

// Kind classifies how a submission ended
type Kind string

const (
	// KindRegistered means the backend stored the registration
	KindRegistered Kind = "registered"

	// KindDegraded means the backend failed but the registration was
	// captured through the notification channel
	KindDegraded Kind = "degraded"

	// KindDuplicateEmail means the backend rejected the email address; the
	// returned state is back at step 1 with the email cleared
	KindDuplicateEmail Kind = "duplicate_email"

	// KindFailed means the registration was not captured anywhere
	KindFailed Kind = "failed"
)

// Registrar creates accounts on the backend
type Registrar interface {
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.RegisterResult, error)
}

// Hinter explains a failed backend call. The backend client implements it.
type Hinter interface {
	Hint(ctx context.Context, err error) string
}

// Notifier sends the registration emails
type Notifier interface {
	NotifyAdmin(ctx context.Context, reg mailer.Registration) (mailer.Delivery, error)
	SendConfirmation(ctx context.Context, reg mailer.Registration) (mailer.Delivery, error)
}

// Outcome is the result of Submit
type Outcome struct {
	Kind   Kind
	UserID string

	// State is the state to continue from. After a duplicate email it is
	// back at step 1; after a capture it is a fresh state.
	State wizard.State

	// Message is the user-facing summary
	Message string

	// DuplicateEmail, InlineError and Alert are set for KindDuplicateEmail
	DuplicateEmail string
	InlineError    string
	Alert          string

	// Delivery reports how the admin notification left the client
	Delivery *mailer.Delivery

	// Err and Hint are set when the backend call failed
	Err  error
	Hint string
}

// Submitter runs the final submission
type Submitter struct {
	registrar Registrar
	notifier  Notifier
	degrade   bool
	logger    *zap.Logger
}

// New creates a submitter. degrade selects whether non-duplicate backend
// failures fall back to the notification channel. A nil notifier
// disables notifications. A nil logger uses the global logger.
func New(registrar Registrar, notifier Notifier, degrade bool, logger *zap.Logger) *Submitter {
	return &Submitter{
		registrar: registrar,
		notifier:  notifier,
		degrade:   degrade,
		logger:    logging.Named(logger, "submission"),
	}
}

// Submit re-validates the state, registers it with the backend and decides
// the outcome. The returned error is non-nil only when the state does not
// pass validation; backend failures are reported through the Outcome.
func (s *Submitter) Submit(ctx context.Context, w *wizard.Wizard, state wizard.State) (Outcome, error) {
	if err := wizard.ValidateSubmission(state); err != nil {
		return Outcome{Kind: KindFailed, State: state, Err: err}, errors.Validation("registration is incomplete", err)
	}

	reg := BuildNotification(state)
	email := reg.Email
	log := s.logger.With(zap.String("email", email), zap.Int("products", len(reg.SelectedProducts)))

	result, err := s.registrar.Register(ctx, BuildRegisterRequest(state))
	if err == nil {
		out := Outcome{Kind: KindRegistered, UserID: result.UserID, State: wizard.NewState()}
		if out.UserID != "" {
			out.Message = "Your account has been created successfully."
		} else {
			out.Message = fmt.Sprintf("A confirmation email has been sent to %s", email)
		}
		if s.notifier != nil {
			d, nerr := s.notifier.NotifyAdmin(ctx, reg)
			if nerr != nil {
				log.Warn("registration notification failed, registration still succeeded", zap.Error(nerr))
			} else {
				out.Delivery = &d
			}
		}
		log.Info("registration completed", zap.String("user_id", out.UserID))
		return out, nil
	}

	if backend.IsDuplicateEmail(err) {
		dup := email
		if ae, ok := backend.AsAPIError(err); ok && ae.Details != "" {
			dup = ae.Details
		}
		log.Info("email already registered")
		return Outcome{
			Kind:           KindDuplicateEmail,
			State:          w.ClearEmail(state),
			DuplicateEmail: dup,
			InlineError:    DuplicateInline(dup),
			Alert:          DuplicateAlert(dup),
			Err:            err,
		}, nil
	}

	log.Warn("backend registration failed", zap.Error(err))
	failed := Outcome{Kind: KindFailed, State: state, Err: err, Message: "Registration failed. Please try again."}
	if h, ok := s.registrar.(Hinter); ok {
		failed.Hint = h.Hint(ctx, err)
	}

	if !s.degrade || s.notifier == nil {
		return failed, nil
	}

	d, nerr := s.notifier.NotifyAdmin(ctx, reg)
	if nerr != nil {
		log.Error("notification fallback failed", zap.Error(nerr))
		return failed, nil
	}
	if _, cerr := s.notifier.SendConfirmation(ctx, reg); cerr != nil {
		log.Warn("confirmation email failed", zap.Error(cerr))
	}
	log.Warn("registration captured through notification fallback", zap.String("method", string(d.Method)))
	return Outcome{
		Kind:     KindDegraded,
		State:    wizard.NewState(),
		Delivery: &d,
		Err:      err,
		Message: fmt.Sprintf("A confirmation email has been sent to %s. "+
			"Backend service is temporarily unavailable. "+
			"Your registration has been saved and our team will process it shortly.", email),
	}, nil
}

// DuplicateInline is the message shown next to the email field
func DuplicateInline(email string) string {
	return fmt.Sprintf("The email address %s is already registered in our system. "+
		"Please use a different email address to continue with registration, "+
		"or log in if you already have an account.", email)
}

// DuplicateAlert is the blocking notice shown after a duplicate email
func DuplicateAlert(email string) string {
	return fmt.Sprintf("Email Already Registered\n\n"+
		"The email address %q is already registered in our system.\n\n"+
		"Please:\n1. Use a different email address, or\n2. Log in if you already have an account\n\n"+
		"You can update your email in the form above.", email)
}
