// Package wizard implements the four-step registration flow: account details,
// product selection, payment and review.
//
// State is a plain value. Every transition takes a State and returns a new
// one, leaving its argument untouched, so the flow can be driven and tested
// without any UI.
package wizard

import (
	"github.com/shopspring/decimal"

	"rentaiagent/core/currency"
)

// Step is a position in the flow, 1 through 4
type Step int

const (
	StepAccount Step = iota + 1
	StepProducts
	StepPayment
	StepReview
)

// TotalSteps is the number of steps in the flow
const TotalSteps = int(StepReview)

// String returns the step's name
func (s Step) String() string {
	switch s {
	case StepAccount:
		return "account"
	case StepProducts:
		return "products"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Form field names, shared with the payload builders.
const (
	FieldEmail          = "email"
	FieldName           = "name"
	FieldCompanyName    = "companyName"
	FieldPhone          = "phone"
	FieldCountry        = "country"
	FieldPassword       = "password"
	FieldConfirm        = "confirmPassword"
	FieldProducts       = "products"
	FieldPaymentOption  = "paymentOption"
	FieldCardNumber     = "cardNumber"
	FieldExpiry         = "expiry"
	FieldCVC            = "cvc"
	FieldCardholderName = "cardholderName"
	FieldStreet         = "street"
	FieldCity           = "city"
	FieldState          = "state"
	FieldZip            = "zip"
)

// paymentFields are cleared together when the user defers payment.
var paymentFields = []string{
	FieldCardNumber, FieldExpiry, FieldCVC, FieldCardholderName,
	FieldStreet, FieldCity, FieldState, FieldZip,
}

// PaymentOption is the step-3 choice
type PaymentOption string

const (
	PayLater PaymentOption = "later"
	PayNow   PaymentOption = "now"
)

// ParsePaymentOption maps anything other than "now" to PayLater.
func ParsePaymentOption(v string) PaymentOption {
	if PaymentOption(v) == PayNow {
		return PayNow
	}
	return PayLater
}

// Selection is one chosen product. MonthlyFeeUSD is canonical; Price is
// derived from the catalog for the active currency and is recomputed on
// every currency change.
type Selection struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	PlanID        string          `json:"plan"`
	PlanName      string          `json:"plan_name"`
	Price         string          `json:"price"`
	MonthlyFeeUSD decimal.Decimal `json:"monthly_fee_usd"`
}

// State is the complete wizard state
type State struct {
	Step Step `json:"step"`

	// FormData accumulates field values across steps and is never reset
	// mid-flow.
	FormData map[string]string `json:"form_data"`

	// Selections is ordered and unique by product id.
	Selections []Selection `json:"selections"`

	SkipProducts bool              `json:"skip_products"`
	Currency     currency.Currency `json:"currency"`
}

// NewState returns the initial state: step 1, USD, nothing selected.
func NewState() State {
	return State{
		Step:     StepAccount,
		FormData: map[string]string{},
		Currency: currency.USD,
	}
}

// Clone returns a deep copy of s
func (s State) Clone() State {
	out := s
	out.FormData = make(map[string]string, len(s.FormData))
	for k, v := range s.FormData {
		out.FormData[k] = v
	}
	if s.Selections != nil {
		out.Selections = make([]Selection, len(s.Selections))
		copy(out.Selections, s.Selections)
	}
	return out
}

// Field returns a form value, or "" when unset
func (s State) Field(name string) string {
	return s.FormData[name]
}

// PaymentOption returns the persisted step-3 choice
func (s State) PaymentOption() PaymentOption {
	return ParsePaymentOption(s.FormData[FieldPaymentOption])
}

// Selected reports whether productID is in the selection
func (s State) Selected(productID string) bool {
	return s.selectionIndex(productID) >= 0
}

func (s State) selectionIndex(productID string) int {
	for i, sel := range s.Selections {
		if sel.ProductID == productID {
			return i
		}
	}
	return -1
}

// AccountInput holds the step-1 fields
type AccountInput struct {
	Email           string
	Name            string
	CompanyName     string
	Phone           string
	Country         string
	Password        string
	ConfirmPassword string
}

// PaymentInput holds the step-3 fields
type PaymentInput struct {
	Option         PaymentOption
	CardNumber     string
	Expiry         string
	CVC            string
	CardholderName string
	Street         string
	City           string
	State          string
	Zip            string
}

// StepInput carries the field values of whichever step is active.
// Steps 2 and 4 have no fields.
type StepInput struct {
	Account AccountInput
	Payment PaymentInput
}

// AccountFromState reconstructs the step-1 input from persisted data
func AccountFromState(s State) AccountInput {
	return AccountInput{
		Email:           s.Field(FieldEmail),
		Name:            s.Field(FieldName),
		CompanyName:     s.Field(FieldCompanyName),
		Phone:           s.Field(FieldPhone),
		Country:         s.Field(FieldCountry),
		Password:        s.Field(FieldPassword),
		ConfirmPassword: s.Field(FieldPassword),
	}
}

// PaymentFromState reconstructs the step-3 input from persisted data
func PaymentFromState(s State) PaymentInput {
	return PaymentInput{
		Option:         s.PaymentOption(),
		CardNumber:     s.Field(FieldCardNumber),
		Expiry:         s.Field(FieldExpiry),
		CVC:            s.Field(FieldCVC),
		CardholderName: s.Field(FieldCardholderName),
		Street:         s.Field(FieldStreet),
		City:           s.Field(FieldCity),
		State:          s.Field(FieldState),
		Zip:            s.Field(FieldZip),
	}
}
