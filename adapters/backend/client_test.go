package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rentaiagent/internal/config"
	"rentaiagent/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.ForEnvironment(config.EnvTest)
	cfg.API.BaseURL = srv.URL
	return NewClient(cfg, zap.NewNop()), srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRegisterSendsBackendPayload(t *testing.T) {
	var got map[string]interface{}
	var requestID string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/register" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		requestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    map[string]string{"userId": "u-42"},
			"message": "User registered",
		})
	}))

	res, err := client.Register(context.Background(), RegisterRequest{
		Email:            "ada@example.com",
		Password:         "abcdefgh",
		Profile:          Profile{Name: "Ada", CompanyName: "AE", Address: Address{Country: "GB"}},
		SelectedProducts: []SelectedProduct{{ProductID: "data-analyst", Plan: "starter"}},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.UserID != "u-42" || res.Message != "User registered" {
		t.Errorf("result = %+v", res)
	}
	if _, err := uuid.Parse(requestID); err != nil {
		t.Errorf("X-Request-ID %q is not a uuid", requestID)
	}

	profile := got["profile"].(map[string]interface{})
	if profile["companyName"] != "AE" {
		t.Errorf("profile = %v", profile)
	}
	products := got["selectedProducts"].([]interface{})
	if products[0].(map[string]interface{})["productId"] != "data-analyst" {
		t.Errorf("selectedProducts = %v", products)
	}
	if pm, ok := got["paymentMethod"]; !ok || pm != nil {
		t.Errorf("paymentMethod should be an explicit null, got %v", pm)
	}
}

func TestRegisterDuplicateEmailUsesStructuredCode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"code":    CodeEmailAlreadyExists,
			"message": "Registration failed: internal server error",
			"details": "ada@example.com",
		})
	}))

	_, err := client.Register(context.Background(), RegisterRequest{Email: "ada@example.com"})
	if !IsDuplicateEmail(err) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	ae, _ := AsAPIError(err)
	if ae.Details != "ada@example.com" || ae.Status != http.StatusConflict {
		t.Errorf("api error = %+v", ae)
	}
}

func TestDuplicateEmailClassification(t *testing.T) {
	cases := []struct {
		name string
		err  APIError
		want bool
	}{
		{"code on 409", APIError{Status: 409, Code: CodeEmailAlreadyExists, Message: "failed"}, true},
		{"code on 422", APIError{Status: 422, Code: CodeEmailAlreadyExists}, true},
		{"bare 409", APIError{Status: 409, Message: "conflict"}, true},
		{"legacy 400 wording", APIError{Status: 400, Message: "This email is already registered"}, true},
		{"400 with other code", APIError{Status: 400, Code: "INVALID_EMAIL", Message: "email already exists"}, false},
		{"500 wording", APIError{Status: 500, Message: "already registered"}, false},
		{"plain 400", APIError{Status: 400, Message: "password too weak"}, false},
	}
	for _, tc := range cases {
		err := tc.err
		if got := err.DuplicateEmail(); got != tc.want {
			t.Errorf("%s: DuplicateEmail() = %v, want %v", tc.name, got, tc.want)
		}
	}
	if IsDuplicateEmail(errors.Network("down", nil)) {
		t.Error("network error is not a duplicate")
	}
}

func TestErrorEnvelopeFallbacks(t *testing.T) {
	ae := decodeAPIError(500, []byte(`{"error":"boom"}`), "u")
	if ae.Message != "boom" {
		t.Errorf("message = %q", ae.Message)
	}
	ae = decodeAPIError(502, []byte("Bad gateway from proxy"), "u")
	if ae.Message != "Bad gateway from proxy" {
		t.Errorf("message = %q", ae.Message)
	}
	ae = decodeAPIError(503, nil, "u")
	if ae.Message != "Service Unavailable" {
		t.Errorf("message = %q", ae.Message)
	}
	ae = decodeAPIError(409, []byte(`{"code":"X","details":{"field":"email"}}`), "u")
	if ae.Details != `{"field":"email"}` {
		t.Errorf("details = %q", ae.Details)
	}
}

func TestLoginAcceptsBothShapes(t *testing.T) {
	bodies := []string{
		`{"success":true,"data":{"token":"t1","userType":"customer"}}`,
		`{"token":"t1","userType":"customer"}`,
	}
	for _, body := range bodies {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))
		res, err := client.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "x"})
		if err != nil {
			t.Fatalf("Login(%s): %v", body, err)
		}
		if res.Token != "t1" || res.UserType != "customer" || res.Email != "ada@example.com" {
			t.Errorf("Login(%s) = %+v", body, res)
		}
	}
}

func TestLoginUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
	}))
	_, err := client.Login(context.Background(), LoginRequest{Email: "a@b.co", Password: "x"})
	if !errors.IsType(err, errors.TypeUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestMyProductsSendsBearerToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "no"})
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"data-analyst","name":"Data Analyst Expert","category":"starter","status":"ACTIVE","optedDate":"2026-01-02"}]}`))
	}))

	products, err := client.MyProducts(context.Background(), "tok")
	if err != nil {
		t.Fatalf("MyProducts: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products", len(products))
	}
	p := products[0]
	if p.ProductID != "data-analyst" || p.ProductName != "Data Analyst Expert" || p.Plan != "starter" || p.SubscriptionDate != "2026-01-02" {
		t.Errorf("product = %+v", p)
	}

	if _, err := client.MyProducts(context.Background(), ""); !errors.IsType(err, errors.TypeUnauthorized) {
		t.Errorf("empty token: %v", err)
	}
	if _, err := client.MyProducts(context.Background(), "stale"); !errors.IsType(err, errors.TypeUnauthorized) {
		t.Errorf("rejected token: %v", err)
	}
}

func TestDecodeProductsBareArray(t *testing.T) {
	products, err := DecodeProducts([]byte(` [{"productId":"p1","productName":"P","plan":"pro"}]`))
	if err != nil || len(products) != 1 || products[0].ProductName != "P" {
		t.Errorf("DecodeProducts = %+v, %v", products, err)
	}
	if _, err := DecodeProducts([]byte(`{"success":false}`)); err == nil {
		t.Error("expected error for unsuccessful envelope")
	}
}

func TestSendEmailEndpoints(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}))

	if err := client.SendEmail(context.Background(), EmailMessage{To: "a@b.co"}); err != nil {
		t.Fatal(err)
	}
	if err := client.SendEmailAlternate(context.Background(), AltEmailMessage{To: "a@b.co"}); err != nil {
		t.Fatal(err)
	}
	if strings.Join(paths, ",") != "/api/v1/email/send,/api/send-email" {
		t.Errorf("paths = %v", paths)
	}
}

func TestNetworkFailureHint(t *testing.T) {
	client, srv := newTestClient(t, http.NotFoundHandler())
	srv.Close()

	_, err := client.Register(context.Background(), RegisterRequest{})
	if !errors.IsType(err, errors.TypeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	hint := client.Hint(context.Background(), err)
	if !strings.Contains(hint, srv.URL+"/api/v1/register") {
		t.Errorf("hint missing register URL:\n%s", hint)
	}
	if !strings.Contains(hint, "Cannot connect to") {
		t.Errorf("hint missing health result:\n%s", hint)
	}
}

func TestForbiddenHint(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}))
	_, err := client.Register(context.Background(), RegisterRequest{})
	if !strings.Contains(client.Hint(context.Background(), err), "CORS") {
		t.Errorf("expected CORS hint for %v", err)
	}
	if client.Hint(context.Background(), errors.Backend("x", nil)) != "" {
		t.Error("generic backend errors have no hint")
	}
}

func TestHealthFallsBackToBaseURL(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/actuator/health" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	if h := client.Health(context.Background()); !h.Connected {
		t.Errorf("base URL answered 401, expected reachable: %+v", h)
	}

	notFound, _ := newTestClient(t, http.NotFoundHandler())
	if h := notFound.Health(context.Background()); h.Connected {
		t.Errorf("all 404 should be unreachable: %+v", h)
	}
}
