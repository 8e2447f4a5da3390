package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"rentaiagent/adapters/backend"
	"rentaiagent/adapters/mailer"
	"rentaiagent/adapters/storage"
	"rentaiagent/core/catalog"
	"rentaiagent/core/currency"
	"rentaiagent/core/submission"
	"rentaiagent/core/wizard"
	"rentaiagent/internal/config"
	"rentaiagent/internal/errors"
)

func startStub(t *testing.T, mutate func(*Config)) (*Server, *backend.Client) {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	stub := NewServer(cfg, nil, zap.NewNop())
	stub.users.cost = 4
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	clientCfg := config.ForEnvironment(config.EnvTest)
	clientCfg.API.BaseURL = srv.URL
	return stub, backend.NewClient(clientCfg, zap.NewNop())
}

func registerRequest(email string) backend.RegisterRequest {
	return backend.RegisterRequest{
		Email:    email,
		Password: "abcdefgh",
		Profile:  backend.Profile{Name: "Ada Lovelace", Address: backend.Address{Country: "GB"}},
		SelectedProducts: []backend.SelectedProduct{
			{ProductID: "invoice-processor", Plan: "professional"},
		},
	}
}

func TestRegisterThenDuplicate(t *testing.T) {
	ctx := context.Background()
	stub, client := startStub(t, nil)

	res, err := client.Register(ctx, registerRequest("ada@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if res.UserID == "" || res.Message != "User registered successfully" {
		t.Errorf("result = %+v", res)
	}

	_, err = client.Register(ctx, registerRequest("ADA@example.com"))
	ae, ok := backend.AsAPIError(err)
	if !ok || ae.Status != http.StatusConflict || ae.Code != backend.CodeEmailAlreadyExists || ae.Details != "ADA@example.com" {
		t.Fatalf("duplicate = %v", err)
	}
	if !backend.IsDuplicateEmail(err) {
		t.Error("duplicate not classified")
	}
	if stub.Users().Len() != 1 {
		t.Errorf("users = %d", stub.Users().Len())
	}
}

func TestRegisterValidation(t *testing.T) {
	_, client := startStub(t, nil)
	req := registerRequest("not-an-email")
	req.Password = "short"
	req.SelectedProducts = append(req.SelectedProducts, backend.SelectedProduct{ProductID: "nope"})

	_, err := client.Register(context.Background(), req)
	ae, ok := backend.AsAPIError(err)
	if !ok || ae.Status != http.StatusBadRequest || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("err = %v", err)
	}
	for _, want := range []string{"email", "password", "nope"} {
		if !strings.Contains(ae.Details, want) {
			t.Errorf("details %q missing %q", ae.Details, want)
		}
	}
	if backend.IsDuplicateEmail(err) {
		t.Error("validation error classified as duplicate")
	}
}

func TestLoginAndMyProducts(t *testing.T) {
	ctx := context.Background()
	_, client := startStub(t, nil)
	if _, err := client.Register(ctx, registerRequest("ada@example.com")); err != nil {
		t.Fatal(err)
	}

	if _, err := client.Login(ctx, backend.LoginRequest{Email: "ada@example.com", Password: "wrong-password"}); !errors.IsType(err, errors.TypeUnauthorized) {
		t.Errorf("bad password: %v", err)
	}

	login, err := client.Login(ctx, backend.LoginRequest{Email: "ada@example.com", Password: "abcdefgh", RememberMe: true})
	if err != nil {
		t.Fatal(err)
	}
	if login.UserType != "customer" {
		t.Errorf("login = %+v", login)
	}
	exp := storage.TokenExpiry(login.Token, time.Now())
	if exp.Before(time.Now().Add(6 * 24 * time.Hour)) {
		t.Errorf("remember-me token expires at %v", exp)
	}

	products, err := client.MyProducts(ctx, login.Token)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].ProductName != "Invoice Processor Agent" || products[0].Plan != "professional" || products[0].Status != "active" {
		t.Errorf("products = %+v", products)
	}

	if _, err := client.MyProducts(ctx, login.Token+"x"); !errors.IsType(err, errors.TypeUnauthorized) {
		t.Errorf("tampered token: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	ctx := context.Background()
	stub, client := startStub(t, nil)
	if _, err := client.Register(ctx, registerRequest("ada@example.com")); err != nil {
		t.Fatal(err)
	}
	login, err := client.Login(ctx, backend.LoginRequest{Email: "ada@example.com", Password: "abcdefgh"})
	if err != nil {
		t.Fatal(err)
	}

	stub.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := client.MyProducts(ctx, login.Token); !errors.IsType(err, errors.TypeUnauthorized) {
		t.Errorf("expired token: %v", err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ctx := context.Background()
	stub, client := startStub(t, nil)

	if h := client.Health(ctx); !h.Connected {
		t.Errorf("health = %+v", h)
	}
	_, _ = client.Register(ctx, registerRequest("ada@example.com"))
	_, _ = client.Register(ctx, registerRequest("ada@example.com"))

	rec := httptest.NewRecorder()
	stub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`rentai_backend_registrations_total{result="created"} 1`,
		`rentai_backend_registrations_total{result="duplicate"} 1`,
		`rentai_backend_requests_total{route="/api/v1/register",status="409"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	stub, _ := startStub(t, nil)
	rec := httptest.NewRecorder()
	stub.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/register", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}
}

func TestCatalogEndpoint(t *testing.T) {
	stub, _ := startStub(t, nil)
	rec := httptest.NewRecorder()
	stub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/catalog", nil))

	var env struct {
		Success bool              `json:"success"`
		Data    []catalog.Product `json:"data"`
	}
	body, _ := io.ReadAll(rec.Body)
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatal(err)
	}
	if !env.Success || len(env.Data) != 3 || env.Data[0].ID != "invoice-processor" {
		t.Errorf("catalog = %s", body)
	}
}

func newFlow(t *testing.T, client *backend.Client, degrade bool) (*wizard.Wizard, *submission.Submitter, *storage.Outbox) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	box := storage.NewOutbox(store, 10)
	m := mailer.New(client, box, config.ForEnvironment(config.EnvTest).Notifications, zap.NewNop())
	w := wizard.New(catalog.Default(), currency.DefaultTable(), zap.NewNop())
	return w, submission.New(client, m, degrade, zap.NewNop()), box
}

func completedState(t *testing.T, w *wizard.Wizard, email string) wizard.State {
	t.Helper()
	s := wizard.NewState()
	s, err := w.Advance(s, wizard.StepInput{Account: wizard.AccountInput{
		Email: email, Name: "Ada Lovelace", Country: "DE", Password: "abcdefgh", ConfirmPassword: "abcdefgh",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if s, err = w.Toggle(s, "data-analyst"); err != nil {
		t.Fatal(err)
	}
	if s, err = w.Advance(s, wizard.StepInput{}); err != nil {
		t.Fatal(err)
	}
	if s, err = w.Advance(s, wizard.StepInput{Payment: wizard.PaymentInput{Option: wizard.PayLater}}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEndToEndRegistration(t *testing.T) {
	ctx := context.Background()
	stub, client := startStub(t, nil)
	w, sub, _ := newFlow(t, client, true)

	out, err := sub.Submit(ctx, w, completedState(t, w, "ada@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != submission.KindRegistered || out.UserID == "" {
		t.Fatalf("outcome = %+v", out)
	}
	emails := stub.Emails()
	if len(emails) != 1 || emails[0].Endpoint != "email" || emails[0].ReplyTo != "ada@example.com" {
		t.Errorf("emails = %+v", emails)
	}

	out, err = sub.Submit(ctx, w, completedState(t, w, "ada@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != submission.KindDuplicateEmail || out.State.Step != wizard.StepAccount {
		t.Errorf("second submit = %+v", out)
	}
	if len(stub.Emails()) != 1 {
		t.Error("duplicate submission sent notifications")
	}
}

func TestEndToEndDegradedToOutbox(t *testing.T) {
	ctx := context.Background()
	_, client := startStub(t, func(c *Config) {
		c.FailRegister = true
		c.FailEmail = true
	})
	w, sub, box := newFlow(t, client, true)

	out, err := sub.Submit(ctx, w, completedState(t, w, "ada@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != submission.KindDegraded || out.Delivery.Method != mailer.MethodOutbox {
		t.Fatalf("outcome = %+v", out)
	}
	entries, err := box.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Subject != "New User Registration - ada@example.com" {
		t.Errorf("outbox = %+v", entries)
	}
}
