package mailer

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
	"time"
)

// Message is a composed email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type view struct {
	Registration
	Date string
}

const rule = "═══════════════════════════════════════════════════════"
const subrule = "───────────────────────────────────────────────────────"

var adminText = template.Must(template.New("admin.txt").Parse(rule + `
NEW USER REGISTRATION - RentAIAgent.ai
` + rule + `

USER INFORMATION
` + subrule + `
Email:        {{.Email}}
Name:         {{.Profile.Name}}
Company:      {{.Profile.CompanyName}}
Phone:        {{.Profile.Phone}}
Country:      {{.Profile.Address.Country}}

ADDRESS
` + subrule + `
Street:       {{.Profile.Address.Street}}
City:         {{.Profile.Address.City}}
State:        {{.Profile.Address.State}}
ZIP:          {{.Profile.Address.Zip}}
Country:      {{.Profile.Address.Country}}

SELECTED PRODUCTS
` + subrule + `
{{range .SelectedProducts}}• {{.Name}} - {{.PlanName}}
{{else}}No products selected
{{end}}
PAYMENT INFORMATION
` + subrule + `
{{with .PaymentMethod}}Card Number:   Ending in {{.Last4}}
Cardholder:    {{.CardholderName}}
Expiry:        {{.Expiry}}
Billing Address: {{.BillingAddress.Street}}, {{.BillingAddress.City}}
{{else}}Status: Payment information not provided (Optional)
{{end}}
` + rule + `
Registration Date: {{.Date}}
` + rule))

var adminHTML = htmltemplate.Must(htmltemplate.New("admin.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>New User Registration</h2>
  <p>RentAIAgent.ai</p>
  <h3>User Information</h3>
  <p>Email: {{.Email}}<br>Name: {{.Profile.Name}}<br>Company: {{.Profile.CompanyName}}<br>Phone: {{.Profile.Phone}}<br>Country: {{.Profile.Address.Country}}</p>
  <h3>Address</h3>
  <p>{{.Profile.Address.Street}}<br>{{.Profile.Address.City}}, {{.Profile.Address.State}} {{.Profile.Address.Zip}}<br>{{.Profile.Address.Country}}</p>
  <h3>Selected Products</h3>
  {{if .SelectedProducts}}<ul>{{range .SelectedProducts}}<li>{{.Name}} - {{.PlanName}}</li>{{end}}</ul>{{else}}<p><em>No products selected</em></p>{{end}}
  <h3>Payment Information</h3>
  {{with .PaymentMethod}}<p>Card: Ending in {{.Last4}}<br>Cardholder: {{.CardholderName}}<br>Expiry: {{.Expiry}}</p>{{else}}<p><em>No payment information provided (Payment is optional)</em></p>{{end}}
  <p>Registration Date: {{.Date}}</p>
</body>
</html>
`))

var userText = template.Must(template.New("user.txt").Parse(`Hello {{.Profile.Name}},

Thank you for registering with RentAIAgent.ai.

We have received your registration for {{.Email}}.
{{if .SelectedProducts}}
Selected products:
{{range .SelectedProducts}}• {{.Name}} - {{.PlanName}}
{{end}}{{else}}
You have not selected any products yet. You can add them later from your dashboard.
{{end}}
Our team will be in touch shortly.

RentAIAgent.ai
`))

var userHTML = htmltemplate.Must(htmltemplate.New("user.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <p>Hello {{.Profile.Name}},</p>
  <p>Thank you for registering with RentAIAgent.ai. We have received your registration for {{.Email}}.</p>
  {{if .SelectedProducts}}<ul>{{range .SelectedProducts}}<li>{{.Name}} - {{.PlanName}}</li>{{end}}</ul>{{else}}<p>You have not selected any products yet. You can add them later from your dashboard.</p>{{end}}
  <p>Our team will be in touch shortly.</p>
</body>
</html>
`))

// AdminSubject is the subject of the admin notification
func AdminSubject(email string) string {
	return "New User Registration - " + email
}

// ComposeAdmin builds the notification sent to the team. The card appears
// only as its last four digits.
func ComposeAdmin(to string, reg Registration, now time.Time) (Message, error) {
	v := view{Registration: reg, Date: now.Format("2006-01-02 15:04:05 MST")}
	text, err := render(adminText, v)
	if err != nil {
		return Message{}, err
	}
	html, err := renderHTML(adminHTML, v)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: AdminSubject(reg.Email), Text: text, HTML: html, ReplyTo: reg.Email}, nil
}

// ComposeConfirmation builds the confirmation sent to the user
func ComposeConfirmation(reg Registration) (Message, error) {
	v := view{Registration: reg}
	text, err := render(userText, v)
	if err != nil {
		return Message{}, err
	}
	html, err := renderHTML(userHTML, v)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      reg.Email,
		Subject: "Welcome to RentAIAgent.ai - Registration Received",
		Text:    text,
		HTML:    html,
	}, nil
}

func render(t *template.Template, v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(t *htmltemplate.Template, v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
