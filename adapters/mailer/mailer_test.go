package mailer

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"rentaiagent/adapters/backend"
	"rentaiagent/adapters/storage"
	"rentaiagent/internal/config"
)

type fakeSender struct {
	primaryErr error
	altErr     error
	primary    []backend.EmailMessage
	alternate  []backend.AltEmailMessage
}

func (f *fakeSender) SendEmail(_ context.Context, msg backend.EmailMessage) error {
	f.primary = append(f.primary, msg)
	return f.primaryErr
}

func (f *fakeSender) SendEmailAlternate(_ context.Context, msg backend.AltEmailMessage) error {
	f.alternate = append(f.alternate, msg)
	return f.altErr
}

func sampleRegistration() Registration {
	return Registration{
		Email: "ada@example.com",
		Profile: Profile{
			Name:        "Ada Lovelace",
			CompanyName: "Analytical Engines",
			Phone:       "+44 20 7946 0000",
			Address:     Address{Street: "1 Main St", City: "London", State: NotProvided, Zip: "N1", Country: "GB"},
		},
		SelectedProducts: []Product{{ProductID: "invoice-processor", Plan: "professional", Name: "Invoice Processor Agent", PlanName: "Professional Plan"}},
		PaymentOption:    "now",
		PaymentMethod: &PaymentMethod{
			Type:           "card",
			CardNumber:     "4242 4242 4242 1234",
			Expiry:         "12/30",
			CVC:            "987",
			CardholderName: "Ada Lovelace",
			BillingAddress: Address{Street: "1 Main St", City: "London"},
		},
	}
}

var settings = config.NotificationConfig{
	AdminEmail:  "admin@example.com",
	FromAddress: "noreply@example.com",
	FromName:    "RentAIAgent.ai",
}

func TestComposeAdminShowsOnlyLastFour(t *testing.T) {
	msg, err := ComposeAdmin("admin@example.com", sampleRegistration(), time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Subject != "New User Registration - ada@example.com" || msg.ReplyTo != "ada@example.com" {
		t.Errorf("headers = %q / %q", msg.Subject, msg.ReplyTo)
	}
	for _, body := range []string{msg.Text, msg.HTML} {
		if strings.Contains(body, "4242 4242") || strings.Contains(body, "987") {
			t.Error("body leaks card data")
		}
		if !strings.Contains(body, "Ending in 1234") {
			t.Error("body missing last four digits")
		}
	}
	for _, want := range []string{"Invoice Processor Agent - Professional Plan", "Registration Date: 2026-05-01 09:30:00 UTC", "State:        Not provided"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text missing %q", want)
		}
	}
}

func TestComposeAdminWithoutProductsOrPayment(t *testing.T) {
	reg := sampleRegistration()
	reg.SelectedProducts = nil
	reg.ProductsSkipped = true
	reg.PaymentOption = "later"
	reg.PaymentMethod = nil

	msg, err := ComposeAdmin("admin@example.com", reg, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg.Text, "No products selected") {
		t.Error("missing empty products line")
	}
	if !strings.Contains(msg.Text, "Payment information not provided (Optional)") {
		t.Error("missing pay later line")
	}
}

func TestComposeConfirmation(t *testing.T) {
	msg, err := ComposeConfirmation(sampleRegistration())
	if err != nil {
		t.Fatal(err)
	}
	if msg.To != "ada@example.com" || msg.Subject != "Welcome to RentAIAgent.ai - Registration Received" {
		t.Errorf("headers = %q / %q", msg.To, msg.Subject)
	}
	if !strings.Contains(msg.Text, "Hello Ada Lovelace") {
		t.Error("missing greeting")
	}
}

func TestComposeEscapesHTML(t *testing.T) {
	reg := sampleRegistration()
	reg.Profile.Name = "<script>x</script>"
	msg, err := ComposeAdmin("admin@example.com", reg, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("html body not escaped")
	}
}

func TestRedacted(t *testing.T) {
	reg := sampleRegistration()
	red := reg.Redacted()
	if red.PaymentMethod.CardNumber != "**** 1234" || red.PaymentMethod.CVC != "" {
		t.Errorf("redacted card = %+v", red.PaymentMethod)
	}
	if reg.PaymentMethod.CardNumber != "4242 4242 4242 1234" {
		t.Error("Redacted modified the original")
	}
}

func TestDeliverPrimary(t *testing.T) {
	sender := &fakeSender{}
	m := New(sender, nil, settings, zap.NewNop())

	d, err := m.NotifyAdmin(context.Background(), sampleRegistration())
	if err != nil {
		t.Fatal(err)
	}
	if d.Method != MethodPrimary || !d.Sent() {
		t.Errorf("delivery = %+v", d)
	}
	if len(sender.primary) != 1 || len(sender.alternate) != 0 {
		t.Fatalf("calls = %d primary, %d alternate", len(sender.primary), len(sender.alternate))
	}
	got := sender.primary[0]
	if got.To != "admin@example.com" || got.From != "noreply@example.com" || got.FromName != "RentAIAgent.ai" || got.ReplyTo != "ada@example.com" {
		t.Errorf("primary message = %+v", got)
	}
}

func TestDeliverFallsBackToAlternate(t *testing.T) {
	sender := &fakeSender{primaryErr: stderrors.New("boom")}
	m := New(sender, nil, settings, zap.NewNop())

	d, err := m.NotifyAdmin(context.Background(), sampleRegistration())
	if err != nil {
		t.Fatal(err)
	}
	if d.Method != MethodAlternate {
		t.Errorf("method = %s", d.Method)
	}
	data, ok := sender.alternate[0].RegistrationData.(Registration)
	if !ok {
		t.Fatalf("registration_data = %T", sender.alternate[0].RegistrationData)
	}
	if data.PaymentMethod.CardNumber != "**** 1234" || data.PaymentMethod.CVC != "" {
		t.Errorf("alternate payload not redacted: %+v", data.PaymentMethod)
	}
}

func TestDeliverRecordsInOutbox(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir(), "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	box := storage.NewOutbox(store, 5)
	sender := &fakeSender{primaryErr: stderrors.New("down"), altErr: stderrors.New("down")}
	m := New(sender, box, settings, zap.NewNop())

	d, err := m.NotifyAdmin(ctx, sampleRegistration())
	if err != nil {
		t.Fatal(err)
	}
	if d.Method != MethodOutbox || d.OutboxID == "" || d.Sent() {
		t.Errorf("delivery = %+v", d)
	}

	entries, err := box.List(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries = %+v %v", entries, err)
	}
	e := entries[0]
	if e.ID != d.OutboxID || e.To != "admin@example.com" {
		t.Errorf("entry = %+v", e)
	}
	var data Registration
	if err := json.Unmarshal(e.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.PaymentMethod.CardNumber != "**** 1234" || strings.Contains(string(e.Data), "987") {
		t.Errorf("outbox data not redacted: %s", e.Data)
	}
}

func TestDeliverFailsWithoutOutbox(t *testing.T) {
	sender := &fakeSender{primaryErr: stderrors.New("down"), altErr: stderrors.New("down")}
	m := New(sender, nil, settings, zap.NewNop())
	if _, err := m.SendConfirmation(context.Background(), sampleRegistration()); err == nil {
		t.Fatal("expected error when every channel fails")
	}
}
