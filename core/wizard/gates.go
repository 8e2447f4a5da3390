package wizard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
)

// Violation is a single failed rule, attached to the field it marks
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found by a gate
type ValidationError struct {
	Step       Step        `json:"step"`
	Violations []Violation `json:"violations"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("step %d (%s): %s", e.Step, e.Step, strings.Join(msgs, "; "))
}

// Has reports whether field has at least one violation
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Fields returns the distinct marked fields in report order
func (e *ValidationError) Fields() []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range e.Violations {
		if !seen[v.Field] {
			seen[v.Field] = true
			out = append(out, v.Field)
		}
	}
	return out
}

type collector struct {
	step       Step
	violations []Violation
}

func (c *collector) add(field, message string) {
	c.violations = append(c.violations, Violation{Field: field, Message: message})
}

func (c *collector) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, "This field is required")
	}
}

func (c *collector) merge(err error) {
	if ve, ok := err.(*ValidationError); ok {
		c.violations = append(c.violations, ve.Violations...)
	}
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &ValidationError{Step: c.step, Violations: c.violations}
}

// ValidateAccount is the step-1 gate. Every rule is checked; nothing
// short-circuits.
func ValidateAccount(in AccountInput) error {
	c := &collector{step: StepAccount}

	if strings.TrimSpace(in.Country) == "" {
		c.add(FieldCountry, "Please select your country first")
	}
	if in.Password != in.ConfirmPassword {
		c.add(FieldConfirm, "Passwords do not match")
	}
	if passwordLength(in.Password) < MinPasswordLength {
		c.add(FieldPassword, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	c.required(FieldEmail, in.Email)
	if email := strings.TrimSpace(in.Email); email != "" && !emailPattern.MatchString(email) {
		c.add(FieldEmail, "Please enter a valid email address")
	}
	c.required(FieldName, in.Name)

	return c.err()
}

// ValidateProducts is the step-2 gate
func ValidateProducts(selected int, skip bool) error {
	c := &collector{step: StepProducts}
	if !skip && selected == 0 {
		c.add(FieldProducts, `Please select at least one product or check "Skip for now" to proceed`)
	}
	return c.err()
}

// ValidatePayment is the step-3 gate. Deferred payment always passes.
func ValidatePayment(in PaymentInput) error {
	c := &collector{step: StepPayment}
	if in.Option != PayNow {
		return nil
	}

	card := stripSpaces(in.CardNumber)
	if len(card) < 13 || len(card) > 19 || !isDigits(card) {
		c.add(FieldCardNumber, "Please enter a valid card number")
	}
	if !expiryPattern.MatchString(in.Expiry) {
		c.add(FieldExpiry, "Please enter a valid expiry date (MM/YY)")
	}
	if len(in.CVC) < 3 {
		c.add(FieldCVC, "Please enter a valid CVC")
	}
	if strings.TrimSpace(in.CardholderName) == "" {
		c.add(FieldCardholderName, "Please enter cardholder name")
	}
	return c.err()
}

// ValidateSubmission re-checks everything persisted so far before the
// final submit.
func ValidateSubmission(s State) error {
	c := &collector{step: s.Step}
	c.merge(ValidateAccount(AccountFromState(s)))
	c.merge(ValidateProducts(len(s.Selections), s.SkipProducts))
	c.merge(ValidatePayment(PaymentFromState(s)))
	return c.err()
}

func stripSpaces(v string) string {
	return strings.Join(strings.Fields(v), "")
}

func isDigits(v string) bool {
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return v != ""
}

// passwordLength counts UTF-16 code units, so characters outside the basic
// multilingual plane count twice.
func passwordLength(p string) int {
	return len(utf16.Encode([]rune(p)))
}
