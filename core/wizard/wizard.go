package wizard

import (
	stderrors "errors"

	"go.uber.org/zap"

	"rentaiagent/core/catalog"
	"rentaiagent/core/currency"
	"rentaiagent/internal/errors"
	"rentaiagent/internal/logging"
)

var (
	// ErrNoNextStep is returned when advancing past the review step
	ErrNoNextStep = stderrors.New("already at the last step")

	// ErrNoPreviousStep is returned when retreating from the first step
	ErrNoPreviousStep = stderrors.New("already at the first step")

	// ErrSelectionDisabled is returned when toggling while skip is set
	ErrSelectionDisabled = stderrors.New("product selection is disabled while skip is set")
)

// Wizard holds the static inputs of the flow. It keeps no per-user state.
type Wizard struct {
	catalog    *catalog.Catalog
	currencies *currency.Table
	logger     *zap.Logger
}

// New creates a wizard over a catalog and a currency table. A nil logger
// uses the global logger.
func New(cat *catalog.Catalog, currencies *currency.Table, logger *zap.Logger) *Wizard {
	return &Wizard{
		catalog:    cat,
		currencies: currencies,
		logger:     logging.Named(logger, "wizard"),
	}
}

// Advance applies the active step's gate and, when it passes, persists the
// step's fields and moves forward. Leaving step 1 switches to the entered
// country's currency.
func (w *Wizard) Advance(s State, in StepInput) (State, error) {
	if int(s.Step) >= TotalSteps {
		return s, ErrNoNextStep
	}

	var gate error
	switch s.Step {
	case StepAccount:
		gate = ValidateAccount(in.Account)
	case StepProducts:
		gate = ValidateProducts(len(s.Selections), s.SkipProducts)
	case StepPayment:
		gate = ValidatePayment(in.Payment)
	}
	if gate != nil {
		w.logger.Debug("step gate failed", zap.Stringer("step", s.Step), zap.Error(gate))
		return s, errors.Validation("cannot leave step "+s.Step.String(), gate)
	}

	next := s.Clone()
	switch s.Step {
	case StepAccount:
		next = w.persistAccount(next, in.Account)
	case StepPayment:
		next = persistPayment(next, in.Payment)
	}
	next.Step++

	w.logger.Debug("advanced", zap.Stringer("from", s.Step), zap.Stringer("to", next.Step))
	return next, nil
}

// Retreat moves back one step without validation
func (w *Wizard) Retreat(s State) (State, error) {
	if s.Step <= StepAccount {
		return s, ErrNoPreviousStep
	}
	next := s.Clone()
	next.Step--
	return next, nil
}

// SetCountry records the country and immediately switches currency. An
// empty country falls back to USD.
func (w *Wizard) SetCountry(s State, country string) State {
	next := s.Clone()
	next.FormData[FieldCountry] = country
	return w.reprice(next, w.currencies.Resolve(country))
}

// Reprice recomputes every selection's display price for cur from the
// catalog's USD prices.
func (w *Wizard) Reprice(s State, cur currency.Currency) State {
	return w.reprice(s.Clone(), cur)
}

func (w *Wizard) reprice(s State, cur currency.Currency) State {
	s.Currency = cur
	for i, sel := range s.Selections {
		if p, ok := w.catalog.Product(sel.ProductID); ok {
			s.Selections[i].Price = p.PriceString(cur)
		}
	}
	return s
}

// Toggle adds productID with its default plan, or removes it when it is
// already selected. Toggling is refused while skip is set.
func (w *Wizard) Toggle(s State, productID string) (State, error) {
	if s.SkipProducts {
		return s, ErrSelectionDisabled
	}
	p, ok := w.catalog.Product(productID)
	if !ok {
		return s, errors.NotFound("product", productID)
	}

	next := s.Clone()
	if i := next.selectionIndex(productID); i >= 0 {
		next.Selections = append(next.Selections[:i], next.Selections[i+1:]...)
		return next, nil
	}

	plan := p.Default()
	next.Selections = append(next.Selections, Selection{
		ProductID:     p.ID,
		Name:          p.Name,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		Price:         p.PriceString(next.Currency),
		MonthlyFeeUSD: plan.MonthlyFee,
	})
	next.SkipProducts = false
	return next, nil
}

// SetPlan changes the plan of a selected product in place
func (w *Wizard) SetPlan(s State, productID, planID string) (State, error) {
	i := s.selectionIndex(productID)
	if i < 0 {
		return s, errors.NotFound("selection", productID)
	}
	p, ok := w.catalog.Product(productID)
	if !ok {
		return s, errors.NotFound("product", productID)
	}
	plan, ok := p.Plan(planID)
	if !ok {
		return s, errors.NotFound("plan", productID+"/"+planID)
	}

	next := s.Clone()
	next.Selections[i].PlanID = plan.ID
	next.Selections[i].PlanName = plan.Name
	next.Selections[i].MonthlyFeeUSD = plan.MonthlyFee
	return next, nil
}

// SetSkip sets or clears the skip flag. Setting it empties the selection.
func (w *Wizard) SetSkip(s State, skip bool) State {
	next := s.Clone()
	next.SkipProducts = skip
	if skip {
		next.Selections = []Selection{}
	}
	return next
}

// ClearEmail blanks the email and returns to step 1, keeping everything
// else the user entered.
func (w *Wizard) ClearEmail(s State) State {
	next := s.Clone()
	next.FormData[FieldEmail] = ""
	next.Step = StepAccount
	return next
}

func (w *Wizard) persistAccount(s State, in AccountInput) State {
	s.FormData[FieldEmail] = in.Email
	s.FormData[FieldName] = in.Name
	s.FormData[FieldCompanyName] = in.CompanyName
	s.FormData[FieldPhone] = in.Phone
	s.FormData[FieldPassword] = in.Password
	s.FormData[FieldCountry] = in.Country
	return w.reprice(s, w.currencies.Resolve(in.Country))
}

func persistPayment(s State, in PaymentInput) State {
	option := ParsePaymentOption(string(in.Option))
	s.FormData[FieldPaymentOption] = string(option)
	if option != PayNow {
		for _, f := range paymentFields {
			s.FormData[f] = ""
		}
		return s
	}
	s.FormData[FieldCardNumber] = in.CardNumber
	s.FormData[FieldExpiry] = in.Expiry
	s.FormData[FieldCVC] = in.CVC
	s.FormData[FieldCardholderName] = in.CardholderName
	s.FormData[FieldStreet] = in.Street
	s.FormData[FieldCity] = in.City
	s.FormData[FieldState] = in.State
	s.FormData[FieldZip] = in.Zip
	return s
}
