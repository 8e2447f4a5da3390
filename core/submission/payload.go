// Package submission turns a completed wizard state into a backend
// registration and handles what happens when the backend refuses it.
package submission

import (
	"strings"

	"rentaiagent/adapters/backend"
	"rentaiagent/adapters/mailer"
	"rentaiagent/core/wizard"
)

func orNotProvided(v string) string {
	if strings.TrimSpace(v) == "" {
		return mailer.NotProvided
	}
	return v
}

// hasCard reports whether the state carries card details to send
func hasCard(s wizard.State) bool {
	return s.PaymentOption() == wizard.PayNow && strings.TrimSpace(s.Field(wizard.FieldCardNumber)) != ""
}

// BuildRegisterRequest maps the state onto the backend registration body.
// Card data stays on the client; only the billing address is sent.
func BuildRegisterRequest(s wizard.State) backend.RegisterRequest {
	req := backend.RegisterRequest{
		Email:    s.Field(wizard.FieldEmail),
		Password: s.Field(wizard.FieldPassword),
		Profile: backend.Profile{
			Name:        s.Field(wizard.FieldName),
			CompanyName: s.Field(wizard.FieldCompanyName),
			Phone:       s.Field(wizard.FieldPhone),
			Address: backend.Address{
				Street:  orNotProvided(s.Field(wizard.FieldStreet)),
				City:    orNotProvided(s.Field(wizard.FieldCity)),
				State:   orNotProvided(s.Field(wizard.FieldState)),
				Zip:     orNotProvided(s.Field(wizard.FieldZip)),
				Country: s.Field(wizard.FieldCountry),
			},
		},
		SelectedProducts: make([]backend.SelectedProduct, 0, len(s.Selections)),
	}
	for _, sel := range s.Selections {
		req.SelectedProducts = append(req.SelectedProducts, backend.SelectedProduct{
			ProductID: sel.ProductID,
			Plan:      sel.PlanID,
		})
	}
	if hasCard(s) {
		req.PaymentMethod = &backend.PaymentMethod{
			Type:           "card",
			BillingAddress: billingAddress(s),
		}
	}
	return req
}

func billingAddress(s wizard.State) backend.Address {
	return backend.Address{
		Street:  s.Field(wizard.FieldStreet),
		City:    s.Field(wizard.FieldCity),
		State:   s.Field(wizard.FieldState),
		Zip:     s.Field(wizard.FieldZip),
		Country: s.Field(wizard.FieldCountry),
	}
}

// BuildNotification maps the state onto the notification payload used by
// the mailer. It never includes the password.
func BuildNotification(s wizard.State) mailer.Registration {
	reg := mailer.Registration{
		Email: s.Field(wizard.FieldEmail),
		Profile: mailer.Profile{
			Name:        s.Field(wizard.FieldName),
			CompanyName: s.Field(wizard.FieldCompanyName),
			Phone:       s.Field(wizard.FieldPhone),
			Address: mailer.Address{
				Street:  orNotProvided(s.Field(wizard.FieldStreet)),
				City:    orNotProvided(s.Field(wizard.FieldCity)),
				State:   orNotProvided(s.Field(wizard.FieldState)),
				Zip:     orNotProvided(s.Field(wizard.FieldZip)),
				Country: s.Field(wizard.FieldCountry),
			},
		},
		SelectedProducts: make([]mailer.Product, 0, len(s.Selections)),
		ProductsSkipped:  len(s.Selections) == 0,
		PaymentOption:    string(s.PaymentOption()),
	}
	for _, sel := range s.Selections {
		reg.SelectedProducts = append(reg.SelectedProducts, mailer.Product{
			ProductID: sel.ProductID,
			Plan:      sel.PlanID,
			Name:      sel.Name,
			PlanName:  sel.PlanName,
		})
	}
	if hasCard(s) {
		b := billingAddress(s)
		reg.PaymentMethod = &mailer.PaymentMethod{
			Type:           "card",
			CardNumber:     s.Field(wizard.FieldCardNumber),
			Expiry:         s.Field(wizard.FieldExpiry),
			CVC:            s.Field(wizard.FieldCVC),
			CardholderName: s.Field(wizard.FieldCardholderName),
			BillingAddress: mailer.Address{Street: b.Street, City: b.City, State: b.State, Zip: b.Zip, Country: b.Country},
		}
	}
	return reg
}
