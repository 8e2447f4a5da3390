package cmd

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"rentaiagent/core/submission"
	"rentaiagent/core/ui"
	"rentaiagent/core/wizard"
	"rentaiagent/internal/config"
	"rentaiagent/internal/logging"
)

// registerOptions holds the register command flags
type registerOptions struct {
	account      wizard.AccountInput
	payment      wizard.PaymentInput
	products     []string
	skipProducts bool
	payNow       bool
	interactive  bool
	yes          bool
}

var regOpts registerOptions

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a RentAIAgent.ai account",
	Long: `Walk through the registration steps and submit them.

Every step is validated before moving on. Without --interactive all
answers come from flags; with it, missing answers are prompted for.

Products are given as id or id:plan, for example
  --product invoice-processor:enterprise --product data-analyst`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	f := registerCmd.Flags()
	f.StringVar(&regOpts.account.Email, "email", "", "email address")
	f.StringVar(&regOpts.account.Name, "name", "", "full name")
	f.StringVar(&regOpts.account.CompanyName, "company", "", "company name")
	f.StringVar(&regOpts.account.Phone, "phone", "", "phone number")
	f.StringVar(&regOpts.account.Country, "country", "", "ISO country code, selects the price currency")
	f.StringVar(&regOpts.account.Password, "password", "", "password (at least 8 characters)")
	f.StringVar(&regOpts.account.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	f.StringArrayVar(&regOpts.products, "product", nil, "product to subscribe to, as id or id:plan (repeatable)")
	f.BoolVar(&regOpts.skipProducts, "skip-products", false, "register without products")
	f.BoolVar(&regOpts.payNow, "pay-now", false, "provide card details now instead of later")
	f.StringVar(&regOpts.payment.CardNumber, "card", "", "card number")
	f.StringVar(&regOpts.payment.Expiry, "expiry", "", "card expiry as MM/YY")
	f.StringVar(&regOpts.payment.CVC, "cvc", "", "card security code")
	f.StringVar(&regOpts.payment.CardholderName, "cardholder", "", "cardholder name")
	f.StringVar(&regOpts.payment.Street, "street", "", "billing street")
	f.StringVar(&regOpts.payment.City, "city", "", "billing city")
	f.StringVar(&regOpts.payment.State, "state", "", "billing state")
	f.StringVar(&regOpts.payment.Zip, "zip", "", "billing ZIP code")
	f.BoolVarP(&regOpts.interactive, "interactive", "i", false, "prompt for missing answers")
	f.BoolVarP(&regOpts.yes, "yes", "y", false, "submit without asking for confirmation")
}

func runRegister(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(config.Get(), logging.Logger)
	if err != nil {
		return err
	}
	opts := regOpts
	if opts.account.ConfirmPassword == "" {
		opts.account.ConfirmPassword = opts.account.Password
	}
	if opts.payNow {
		opts.payment.Option = wizard.PayNow
	}

	r := &registration{
		rt:   rt,
		opts: opts,
		in:   bufio.NewReader(cmd.InOrStdin()),
		ui:   newWriter(cmd.OutOrStdout()),
	}
	return r.run(cmd.Context())
}

// registration drives the wizard from flags and prompts
type registration struct {
	rt   *runtime
	opts registerOptions
	in   *bufio.Reader
	ui   *ui.Writer

	// emailError is shown next to the email prompt after a rejected address
	emailError string
}

// errAborted is returned when the user declines to submit
var errAborted = stderrors.New("registration cancelled")

func (r *registration) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w := r.rt.wizard
	s := wizard.NewState()

	for {
		var err error
		if s, err = r.account(s); err != nil {
			return err
		}
		if s.Step == wizard.StepProducts {
			if s, err = r.products(s); err != nil {
				return err
			}
		}
		if s.Step == wizard.StepPayment {
			if s, err = r.payment(s); err != nil {
				return err
			}
		}

		r.printReview(s)
		if !r.opts.yes {
			ok, err := r.confirm("Submit registration?")
			if err != nil {
				return err
			}
			if !ok {
				return errAborted
			}
		}

		out, err := r.rt.submitter.Submit(ctx, w, s)
		if err != nil {
			printViolations(r.ui, err)
			return err
		}

		switch out.Kind {
		case submission.KindRegistered:
			r.ui.Success("Registration Successful!")
			r.ui.Detail("Thank you for registering with RentAIAgent.ai")
			r.ui.Detail("%s", out.Message)
			if out.UserID != "" {
				r.ui.Detail("User ID: %s", out.UserID)
			}
			return nil

		case submission.KindDegraded:
			r.ui.Success("Registration Received!")
			r.ui.Detail("%s", out.Message)
			if out.Delivery != nil && !out.Delivery.Sent() {
				r.ui.Detail("Registration details saved locally (outbox entry %s).", out.Delivery.OutboxID)
			}
			return nil

		case submission.KindDuplicateEmail:
			r.ui.Blank()
			r.ui.Warning("%s", out.Alert)
			r.ui.Blank()
			if !r.opts.interactive {
				return fmt.Errorf("email %s is already registered", out.DuplicateEmail)
			}
			// Back at step 1 with the email cleared; everything else is kept.
			s = out.State
			r.opts.account = wizard.AccountFromState(s)
			r.opts.account.Email = ""
			r.emailError = out.InlineError
			r.opts.skipProducts = s.SkipProducts
			r.opts.payment = wizard.PaymentFromState(s)
			r.opts.products = nil

		default:
			r.ui.Error("Registration failed")
			r.ui.Detail("Error: %v", out.Err)
			if out.Hint != "" {
				r.ui.Blank()
				r.ui.Println("%s", out.Hint)
			}
			return out.Err
		}
	}
}

// account runs step 1 until its gate passes
func (r *registration) account(s wizard.State) (wizard.State, error) {
	w := r.rt.wizard
	for {
		in := r.opts.account
		if r.opts.interactive {
			var err error
			if in, err = r.promptAccount(in); err != nil {
				return s, err
			}
		}
		s = w.SetCountry(s, in.Country)
		r.ui.Info("%s", wizard.CurrencyNote(s))

		next, err := w.Advance(s, wizard.StepInput{Account: in})
		if err == nil {
			r.opts.account = in
			return next, nil
		}
		printViolations(r.ui, err)
		if !r.opts.interactive {
			return s, err
		}
		r.opts.account = clearInvalidAccount(in, err)
	}
}

func clearInvalidAccount(in wizard.AccountInput, err error) wizard.AccountInput {
	var ve *wizard.ValidationError
	if !stderrors.As(err, &ve) {
		return in
	}
	if ve.Has(wizard.FieldEmail) {
		in.Email = ""
	}
	if ve.Has(wizard.FieldName) {
		in.Name = ""
	}
	if ve.Has(wizard.FieldCountry) {
		in.Country = ""
	}
	if ve.Has(wizard.FieldPassword) || ve.Has(wizard.FieldConfirm) {
		in.Password, in.ConfirmPassword = "", ""
	}
	return in
}

func (r *registration) promptAccount(in wizard.AccountInput) (wizard.AccountInput, error) {
	fields := []struct {
		label string
		value *string
	}{
		{"Email", &in.Email},
		{"Full name", &in.Name},
		{"Company (optional)", &in.CompanyName},
		{"Phone (optional)", &in.Phone},
		{"Country code (" + strings.Join(r.rt.currencies.Countries(), ", ") + ")", &in.Country},
		{"Password", &in.Password},
		{"Confirm password", &in.ConfirmPassword},
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		if f.value == &in.Email && r.emailError != "" {
			r.ui.Error("%s", r.emailError)
			r.emailError = ""
		}
		v, err := r.prompt(f.label)
		if err != nil {
			return in, err
		}
		*f.value = v
	}
	return in, nil
}

// products runs step 2
func (r *registration) products(s wizard.State) (wizard.State, error) {
	w := r.rt.wizard
	for {
		specs, skip := r.opts.products, r.opts.skipProducts
		if r.opts.interactive && len(specs) == 0 && !skip && len(s.Selections) == 0 {
			r.printGrid(s)
			answer, err := r.prompt("Products (id[:plan], comma separated, or 'skip')")
			if err != nil {
				return s, err
			}
			if strings.EqualFold(answer, "skip") {
				skip = true
			} else {
				specs = strings.Split(answer, ",")
			}
		}

		var err error
		if s, err = applyProducts(w, s, specs, skip); err != nil {
			r.ui.Error("%v", err)
			if !r.opts.interactive {
				return s, err
			}
			r.opts.products = nil
			continue
		}

		next, err := w.Advance(s, wizard.StepInput{})
		if err == nil {
			return next, nil
		}
		printViolations(r.ui, err)
		if !r.opts.interactive {
			return s, err
		}
		r.opts.products, r.opts.skipProducts = nil, false
	}
}

// applyProducts sets the selection from id[:plan] specs
func applyProducts(w *wizard.Wizard, s wizard.State, specs []string, skip bool) (wizard.State, error) {
	if skip {
		return w.SetSkip(s, true), nil
	}
	s = w.SetSkip(s, false)
	for _, spec := range specs {
		id, plan, _ := strings.Cut(strings.TrimSpace(spec), ":")
		if id == "" {
			continue
		}
		var err error
		if !s.Selected(id) {
			if s, err = w.Toggle(s, id); err != nil {
				return s, err
			}
		}
		if plan != "" {
			if s, err = w.SetPlan(s, id, plan); err != nil {
				return s, err
			}
		}
	}
	return s, nil
}

// payment runs step 3
func (r *registration) payment(s wizard.State) (wizard.State, error) {
	w := r.rt.wizard
	r.printSummary(s)
	for {
		in := r.opts.payment
		if r.opts.interactive {
			var err error
			if in, err = r.promptPayment(in); err != nil {
				return s, err
			}
		}
		in.CardNumber = wizard.FormatCardNumber(in.CardNumber)
		in.Expiry = wizard.FormatExpiry(in.Expiry)
		in.CVC = wizard.FormatCVC(in.CVC)

		next, err := w.Advance(s, wizard.StepInput{Payment: in})
		if err == nil {
			return next, nil
		}
		printViolations(r.ui, err)
		if !r.opts.interactive {
			return s, err
		}
		r.opts.payment = wizard.PaymentInput{}
	}
}

func (r *registration) promptPayment(in wizard.PaymentInput) (wizard.PaymentInput, error) {
	if in.Option == "" {
		now, err := r.confirm("Provide payment details now?")
		if err != nil {
			return in, err
		}
		in.Option = wizard.PayLater
		if now {
			in.Option = wizard.PayNow
		}
	}
	if in.Option != wizard.PayNow {
		return in, nil
	}
	fields := []struct {
		label string
		value *string
	}{
		{"Card number", &in.CardNumber},
		{"Expiry (MM/YY)", &in.Expiry},
		{"CVC", &in.CVC},
		{"Cardholder name", &in.CardholderName},
		{"Billing street (optional)", &in.Street},
		{"Billing city (optional)", &in.City},
		{"Billing state (optional)", &in.State},
		{"Billing ZIP (optional)", &in.Zip},
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := r.prompt(f.label)
		if err != nil {
			return in, err
		}
		*f.value = v
	}
	return in, nil
}

func (r *registration) prompt(label string) (string, error) {
	r.ui.Print("%s: ", label)
	line, err := r.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func (r *registration) confirm(question string) (bool, error) {
	answer, err := r.prompt(question + " [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func (r *registration) printGrid(s wizard.State) {
	s.Step = wizard.StepProducts
	v := r.rt.wizard.ActiveView(s)
	r.ui.SubHeader(v.CurrencyLabel)
	t := r.ui.NewTable("PRODUCT", "NAME", "USAGE", "PLANS")
	for _, item := range v.Grid {
		plans := make([]string, 0, len(item.Plans))
		for _, p := range item.Plans {
			plans = append(plans, p.ID)
		}
		t.AddRow(item.ProductID, item.Name, item.Price, strings.Join(plans, ", "))
	}
	t.Render()
}

func (r *registration) printSummary(s wizard.State) {
	v := r.rt.wizard.ActiveView(s)
	if v.Kind != wizard.ViewSelectionSummary {
		return
	}
	r.ui.SubHeader("Selected products:")
	if v.SummaryNote != "" {
		r.ui.Detail("%s", v.SummaryNote)
	}
	printSummaryItems(r.ui, v.Summary)
}

func (r *registration) printReview(s wizard.State) {
	v := r.rt.wizard.ActiveView(s)
	if v.Review == nil {
		return
	}
	rv := v.Review
	r.ui.Header("REVIEW")
	r.ui.Field("Email", rv.Email)
	r.ui.Field("Name", rv.Name)
	if rv.Company != "" {
		r.ui.Field("Company", rv.Company)
	}
	r.ui.Field("Country", rv.Country)
	r.ui.Println("Products:")
	if rv.ProductsNote != "" {
		r.ui.Detail("%s", rv.ProductsNote)
	}
	printSummaryItems(r.ui, rv.Products)
	r.ui.Field("Payment", rv.Payment)
	r.ui.Println("%s", rv.CurrencyLine)
	r.ui.Blank()
}

func printSummaryItems(w *ui.Writer, items []wizard.SummaryItem) {
	for _, item := range items {
		line := fmt.Sprintf("• %s - %s", item.Name, item.PlanName)
		if item.MonthlyFee != "" {
			line += fmt.Sprintf(" (%s/month)", item.MonthlyFee)
		}
		w.Println("  %s", line)
		w.Println("      %s", item.Price)
	}
}

func printViolations(w *ui.Writer, err error) {
	var ve *wizard.ValidationError
	if !stderrors.As(err, &ve) {
		w.Error("%v", err)
		return
	}
	for _, v := range ve.Violations {
		w.Error("%s: %s", v.Field, v.Message)
	}
}
