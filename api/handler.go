package api

import (
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"rentaiagent/adapters/backend"
	"rentaiagent/api/envelope"
	"rentaiagent/internal/errors"
)

// tokenClaims are the claims of an issued token. Subject is the email.
type tokenClaims struct {
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// handleRegister handles the registration endpoint
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.config.FailRegister {
		s.metrics.registrations.WithLabelValues("unavailable").Inc()
		envelope.WriteError(w, http.StatusServiceUnavailable, envelope.CodeInternal, "registration service unavailable", "")
		return
	}

	var req backend.RegisterRequest
	if err := envelope.Decode(r, s.config.MaxBodySize, &req); err != nil {
		s.metrics.registrations.WithLabelValues("invalid").Inc()
		envelope.WriteError(w, http.StatusBadRequest, envelope.CodeInvalidJSON, "request body is not valid JSON", err.Error())
		return
	}
	if problems := s.validateRegistration(req); len(problems) > 0 {
		s.metrics.registrations.WithLabelValues("invalid").Inc()
		envelope.WriteError(w, http.StatusBadRequest, envelope.CodeValidation, "registration is invalid", strings.Join(problems, "; "))
		return
	}

	user, err := s.users.Create(req, s.now())
	if errors.IsType(err, errors.TypeConflict) {
		s.metrics.registrations.WithLabelValues("duplicate").Inc()
		envelope.WriteError(w, http.StatusConflict, envelope.CodeEmailAlreadyExists,
			"An account with this email address already exists", req.Email)
		return
	}
	if err != nil {
		s.metrics.registrations.WithLabelValues("error").Inc()
		s.logger.Error("registration failed", zap.Error(err))
		envelope.WriteError(w, http.StatusInternalServerError, envelope.CodeInternal, "registration failed", "")
		return
	}

	s.metrics.registrations.WithLabelValues("created").Inc()
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.Int("products", len(user.Products)))
	envelope.WriteSuccess(w, http.StatusCreated, map[string]string{"userId": user.ID}, "User registered successfully")
}

func (s *Server) validateRegistration(req backend.RegisterRequest) []string {
	var problems []string
	if _, err := mail.ParseAddress(req.Email); err != nil || strings.TrimSpace(req.Email) == "" {
		problems = append(problems, "email is invalid")
	}
	if utf8.RuneCountInString(req.Password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}
	if strings.TrimSpace(req.Profile.Name) == "" {
		problems = append(problems, "profile.name is required")
	}
	for _, p := range req.SelectedProducts {
		if _, ok := s.catalog.Product(p.ProductID); !ok {
			problems = append(problems, "unknown product "+p.ProductID)
		}
	}
	return problems
}

// handleLogin handles the login endpoint
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req backend.LoginRequest
	if err := envelope.Decode(r, s.config.MaxBodySize, &req); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, envelope.CodeInvalidJSON, "request body is not valid JSON", err.Error())
		return
	}

	user, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		s.metrics.logins.WithLabelValues("rejected").Inc()
		envelope.WriteError(w, http.StatusUnauthorized, envelope.CodeInvalidCredentials, "Invalid email or password", "")
		return
	}

	ttl := s.config.TokenTTL
	if req.RememberMe {
		ttl = s.config.RememberTTL
	}
	token, err := s.issueToken(user, ttl)
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		envelope.WriteError(w, http.StatusInternalServerError, envelope.CodeInternal, "login failed", "")
		return
	}

	s.metrics.logins.WithLabelValues("accepted").Inc()
	envelope.WriteSuccess(w, http.StatusOK, backend.LoginResult{
		Token:    token,
		Email:    user.Email,
		UserType: user.UserType,
	}, "Login successful")
}

func (s *Server) issueToken(u *User, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserType: u.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			ID:        u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.SigningKey)
}

// authenticate resolves the bearer token of r to a user
func (s *Server) authenticate(r *http.Request) (*User, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, errors.Unauthorized("missing bearer token")
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.config.SigningKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.Wrap(errors.TypeUnauthorized, "invalid token", err)
	}

	user, found := s.users.Lookup(claims.Subject)
	if !found {
		return nil, errors.Unauthorized("unknown user")
	}
	return user, nil
}

// handleMyProducts lists the products of the authenticated user
func (s *Server) handleMyProducts(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		envelope.WriteError(w, http.StatusUnauthorized, envelope.CodeUnauthorized, "Authentication required", "")
		return
	}

	products := make([]backend.UserProduct, 0, len(user.Products))
	for _, sel := range user.Products {
		p := backend.UserProduct{
			ProductID:        sel.ProductID,
			ProductName:      sel.ProductID,
			Plan:             sel.Plan,
			Status:           "active",
			SubscriptionDate: user.CreatedAt.UTC().Format(time.RFC3339),
		}
		if cp, ok := s.catalog.Product(sel.ProductID); ok {
			p.ProductName = cp.Name
		}
		products = append(products, p)
	}
	envelope.WriteSuccess(w, http.StatusOK, products, "")
}

// handleCatalog lists the product catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	envelope.WriteSuccess(w, http.StatusOK, s.catalog.Products(), "")
}

// handleEmail handles the primary email endpoint
func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	var msg backend.EmailMessage
	if err := envelope.Decode(r, s.config.MaxBodySize, &msg); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, envelope.CodeInvalidJSON, "request body is not valid JSON", err.Error())
		return
	}
	s.acceptEmail(w, SentEmail{
		Endpoint: "email",
		To:       msg.To,
		Subject:  msg.Subject,
		Text:     msg.Text,
		ReplyTo:  msg.ReplyTo,
	})
}

// handleEmailAlt handles the alternate email endpoint
func (s *Server) handleEmailAlt(w http.ResponseWriter, r *http.Request) {
	var msg backend.AltEmailMessage
	if err := envelope.Decode(r, s.config.MaxBodySize, &msg); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, envelope.CodeInvalidJSON, "request body is not valid JSON", err.Error())
		return
	}
	s.acceptEmail(w, SentEmail{
		Endpoint:         "emailAlt",
		To:               msg.To,
		Subject:          msg.Subject,
		Text:             msg.Text,
		RegistrationData: msg.RegistrationData,
	})
}

func (s *Server) acceptEmail(w http.ResponseWriter, e SentEmail) {
	if s.config.FailEmail {
		envelope.WriteError(w, http.StatusServiceUnavailable, envelope.CodeInternal, "email service unavailable", "")
		return
	}
	if strings.TrimSpace(e.To) == "" || strings.TrimSpace(e.Subject) == "" {
		envelope.WriteError(w, http.StatusBadRequest, envelope.CodeValidation, "to and subject are required", "")
		return
	}

	e.ReceivedAt = s.now()
	s.mu.Lock()
	s.emails = append(s.emails, e)
	s.mu.Unlock()

	s.metrics.emails.WithLabelValues(e.Endpoint).Inc()
	s.logger.Info("email accepted", zap.String("endpoint", e.Endpoint), zap.String("to", e.To))
	envelope.WriteSuccess(w, http.StatusOK, nil, "Email sent")
}

// handleHealth handles the health probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	envelope.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "UP",
		"users":  s.users.Len(),
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}
