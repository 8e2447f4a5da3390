// Package mailer composes registration notifications and delivers them
// through the backend's email endpoints, falling back to the local outbox.
package mailer

import "strings"

// NotProvided fills address parts the user left empty
const NotProvided = "Not provided"

// Address is the notification address shape
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Profile is the notification profile shape
type Profile struct {
	Name        string  `json:"name"`
	CompanyName string  `json:"company_name"`
	Phone       string  `json:"phone"`
	Address     Address `json:"address"`
}

// Product is a selected product in the notification
type Product struct {
	ProductID string `json:"product_id"`
	Plan      string `json:"plan"`
	Name      string `json:"name"`
	PlanName  string `json:"planName"`
}

// PaymentMethod is the card entered at step 3
type PaymentMethod struct {
	Type           string  `json:"type"`
	CardNumber     string  `json:"card_number"`
	Expiry         string  `json:"expiry"`
	CVC            string  `json:"cvc"`
	CardholderName string  `json:"cardholder_name"`
	BillingAddress Address `json:"billing_address"`
}

// Last4 returns the last four card digits
func (p *PaymentMethod) Last4() string {
	card := strings.Join(strings.Fields(p.CardNumber), "")
	if len(card) > 4 {
		return card[len(card)-4:]
	}
	return card
}

// Registration is the notification payload of a submitted registration.
// It never carries the password.
type Registration struct {
	Email            string         `json:"email"`
	Profile          Profile        `json:"profile"`
	SelectedProducts []Product      `json:"selected_products"`
	ProductsSkipped  bool           `json:"products_skipped"`
	PaymentOption    string         `json:"payment_option"`
	PaymentMethod    *PaymentMethod `json:"payment_method"`
}

// Redacted returns a copy safe to leave the process: the card number is
// reduced to its last four digits and the CVC is dropped.
func (r Registration) Redacted() Registration {
	out := r
	out.SelectedProducts = append([]Product(nil), r.SelectedProducts...)
	if r.PaymentMethod != nil {
		pm := *r.PaymentMethod
		pm.CardNumber = "**** " + pm.Last4()
		pm.CVC = ""
		out.PaymentMethod = &pm
	}
	return out
}
