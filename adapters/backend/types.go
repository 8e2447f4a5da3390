package backend

import (
	"encoding/json"
)

// Address is a postal address as the backend expects it
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Profile is the user profile of a registration
type Profile struct {
	Name        string  `json:"name"`
	CompanyName string  `json:"companyName"`
	Phone       string  `json:"phone"`
	Address     Address `json:"address"`
}

// SelectedProduct is a product subscription request
type SelectedProduct struct {
	ProductID string `json:"productId"`
	Plan      string `json:"plan"`
}

// PaymentMethod carries billing details. Card data is never sent to the
// backend; StripeToken stays null until tokenisation exists.
type PaymentMethod struct {
	Type           string  `json:"type"`
	StripeToken    *string `json:"stripeToken"`
	BillingAddress Address `json:"billingAddress"`
}

// RegisterRequest is the body of POST /api/v1/register
type RegisterRequest struct {
	Email            string            `json:"email"`
	Password         string            `json:"password"`
	Profile          Profile           `json:"profile"`
	SelectedProducts []SelectedProduct `json:"selectedProducts"`
	PaymentMethod    *PaymentMethod    `json:"paymentMethod"`
}

// RegisterResult is the data of a successful registration
type RegisterResult struct {
	UserID  string `json:"userId"`
	Message string `json:"-"`
}

// LoginRequest is the body of POST /api/v1/auth/login
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// LoginResult is the data of a successful login
type LoginResult struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

// UserProduct is one row of the user's product list. The backend has
// used several names for the same fields; all are accepted.
type UserProduct struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName"`
	Plan             string `json:"plan"`
	Status           string `json:"status"`
	SubscriptionDate string `json:"subscriptionDate"`
}

// UnmarshalJSON accepts the field aliases seen in backend responses
func (p *UserProduct) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	first := func(keys ...string) string {
		for _, k := range keys {
			v, ok := raw[k]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil && s != "" {
				return s
			}
		}
		return ""
	}
	p.ProductID = first("productId", "id")
	p.ProductName = first("productName", "name")
	p.Plan = first("plan", "category", "type")
	p.Status = first("status")
	p.SubscriptionDate = first("subscriptionDate", "optedDate", "createdDate", "date")
	return nil
}

// EmailMessage is the body of the primary email endpoint
type EmailMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Text     string `json:"text"`
	HTML     string `json:"html"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
	ReplyTo  string `json:"reply_to,omitempty"`
}

// AltEmailMessage is the body of the alternate email endpoint
type AltEmailMessage struct {
	To               string      `json:"to"`
	Subject          string      `json:"subject"`
	Text             string      `json:"text"`
	HTML             string      `json:"html"`
	RegistrationData interface{} `json:"registration_data,omitempty"`
}

// successEnvelope is the {success, data, message} response shape
type successEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// errorEnvelope is the {code, message, details} response shape. Some
// deployments answer with {error} instead of {message}.
type errorEnvelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}
