package cmd

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"rentaiagent/adapters/backend"
	"rentaiagent/api"
	"rentaiagent/core/submission"
	"rentaiagent/core/ui"
	"rentaiagent/core/wizard"
	"rentaiagent/internal/config"
)

func testRuntime(t *testing.T, stubCfg func(*api.Config)) (*runtime, *api.Server) {
	t.Helper()
	cfg := api.DefaultConfig()
	if stubCfg != nil {
		stubCfg(cfg)
	}
	stub := api.NewServer(cfg, nil, zap.NewNop())
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	clientCfg := config.ForEnvironment(config.EnvTest)
	clientCfg.API.BaseURL = srv.URL
	clientCfg.Storage.Home = t.TempDir()
	rt, err := newRuntime(clientCfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return rt, stub
}

func baseOptions(email string) registerOptions {
	return registerOptions{
		account: wizard.AccountInput{
			Email: email, Name: "Ada Lovelace", CompanyName: "Analytical Engines", Phone: "555-0100",
			Country: "JP", Password: "abcdefgh", ConfirmPassword: "abcdefgh",
		},
		products: []string{"invoice-processor:enterprise", "content-writer"},
		yes:      true,
	}
}

func runFlow(t *testing.T, rt *runtime, opts registerOptions, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	r := &registration{rt: rt, opts: opts, in: bufio.NewReader(strings.NewReader(input)), ui: ui.NewWriter(&out, true)}
	err := r.run(context.Background())
	return out.String(), err
}

func TestRegisterFromFlags(t *testing.T) {
	rt, stub := testRuntime(t, nil)

	out, err := runFlow(t, rt, baseOptions("ada@example.com"), "")
	if err != nil {
		t.Fatalf("register: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Prices will be displayed in JPY (Japanese Yen)",
		"Invoice Processor Agent - Enterprise Plan (¥29,850/month)",
		"Payment:  Will provide later",
		"All prices in JPY (Japanese Yen) - Japan",
		"Registration Successful",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if stub.Users().Len() != 1 {
		t.Errorf("users = %d", stub.Users().Len())
	}
}

func TestRegisterFromFlagsReportsGateViolations(t *testing.T) {
	rt, _ := testRuntime(t, nil)
	opts := baseOptions("ada@example.com")
	opts.account.Password, opts.account.ConfirmPassword = "abc", "abd"

	out, err := runFlow(t, rt, opts, "")
	if err == nil {
		t.Fatal("expected gate failure")
	}
	if !strings.Contains(out, "✗ password:") || !strings.Contains(out, "✗ confirmPassword:") {
		t.Errorf("violations not printed:\n%s", out)
	}
}

func TestRegisterInteractiveRecoversFromDuplicateEmail(t *testing.T) {
	rt, stub := testRuntime(t, nil)
	if _, err := rt.client.Register(context.Background(), backend.RegisterRequest{
		Email: "ada@example.com", Password: "abcdefgh", Profile: backend.Profile{Name: "Ada"},
	}); err != nil {
		t.Fatal(err)
	}

	opts := baseOptions("ada@example.com")
	opts.interactive = true
	out, err := runFlow(t, rt, opts, "n\nada.lovelace@example.com\n")
	if err != nil {
		t.Fatalf("register: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Email Already Registered") || !strings.Contains(out, "Registration Successful") {
		t.Errorf("output:\n%s", out)
	}
	inline := strings.Index(out, submission.DuplicateInline("ada@example.com"))
	if inline < 0 {
		t.Fatalf("inline email error not shown:\n%s", out)
	}
	if alert := strings.Index(out, "Email Already Registered"); inline < alert {
		t.Errorf("inline error should follow the alert:\n%s", out)
	}
	if !strings.Contains(out[inline:], "Email") {
		t.Errorf("email prompt should follow the inline error:\n%s", out)
	}
	if _, ok := stub.Users().Lookup("ada.lovelace@example.com"); !ok {
		t.Error("second email not registered")
	}
}

func TestRegisterDegradedRecordsOutbox(t *testing.T) {
	rt, _ := testRuntime(t, func(c *api.Config) {
		c.FailRegister = true
		c.FailEmail = true
	})
	opts := baseOptions("ada@example.com")
	opts.payment = wizard.PaymentInput{
		Option: wizard.PayNow, CardNumber: "4111111111111111", Expiry: "1229", CVC: "123", CardholderName: "A B",
	}

	out, err := runFlow(t, rt, opts, "")
	if err != nil {
		t.Fatalf("register: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Registration Received") || !strings.Contains(out, "Payment:  Card ending in 1111") {
		t.Errorf("output:\n%s", out)
	}
	entries, err := rt.outbox.List(context.Background())
	if err != nil || len(entries) != 2 {
		t.Fatalf("outbox = %+v %v", entries, err)
	}
	if strings.Contains(string(entries[0].Data), "4111111111111111") {
		t.Error("outbox holds the full card number")
	}
}

func TestApplyProducts(t *testing.T) {
	rt, _ := testRuntime(t, nil)
	w := rt.wizard

	s, err := applyProducts(w, wizard.NewState(), []string{" data-analyst ", "invoice-processor:starter"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Selections) != 2 || s.Selections[0].ProductID != "data-analyst" || s.Selections[1].PlanID != "starter" {
		t.Errorf("selections = %+v", s.Selections)
	}

	if _, err := applyProducts(w, s, []string{"invoice-processor:platinum"}, false); err == nil {
		t.Error("expected unknown plan error")
	}

	s, _ = applyProducts(w, s, nil, true)
	if len(s.Selections) != 0 || !s.SkipProducts {
		t.Errorf("skip = %+v", s)
	}
}

func TestOverrideLookup(t *testing.T) {
	home := t.TempDir()
	cat, err := loadCatalog(home)
	if err != nil || cat == nil {
		t.Fatalf("missing override: %v", err)
	}
	if _, err := loadCurrencies(home, zap.NewNop()); err != nil {
		t.Fatalf("missing currency override: %v", err)
	}

	// A home that is a regular file cannot be searched.
	notDir := filepath.Join(home, "home")
	if err := os.WriteFile(notDir, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadCatalog(notDir); err == nil {
		t.Error("expected an error for an unreadable catalog override")
	}
	if _, err := loadCurrencies(notDir, zap.NewNop()); err == nil {
		t.Error("expected an error for an unreadable currency override")
	}
}
