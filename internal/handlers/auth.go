package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/citetrack/apiserver/internal/services"
	"github.com/citetrack/apiserver/internal/store"
	"github.com/citetrack/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// AccountHandler provides account management and JWT login endpoints.
type AccountHandler struct {
	accounts *services.AccountService
	secret   []byte
	tokenTTL time.Duration
}

// NewAccountHandler constructs an AccountHandler with the provided
// dependencies.
func NewAccountHandler(accounts *services.AccountService, jwtSecret string, tokenTTL time.Duration) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
	}
}

// AccountRouter registers account routes on the given router.
func AccountRouter(r chi.Router, accounts *services.AccountService, jwtSecret string, tokenTTL time.Duration) {
	handler := NewAccountHandler(accounts, jwtSecret, tokenTTL)

	r.Post("/create-clerk/", handler.CreateClerk)
	r.Post("/create-officer/", handler.CreateOfficer)
	r.Post("/login", handler.Login)
	r.Get("/users", handler.ListAccounts)
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetAccount)
		r.With(handler.RequireAuth).Put("/", handler.UpdateAccount)
		r.Delete("/", handler.DeleteAccount)
	})
}

// RequireAuth enforces bearer authentication and injects the resolved
// account into the request context.
func (h *AccountHandler) RequireAuth(next http.Handler) http.Handler {
	return RequireAuth(h.accounts, string(h.secret))(next)
}

// RequireAuth constructs auth middleware for other routers. A token
// that verifies but names no existing account is treated as
// unauthenticated; no identity is fabricated.
func RequireAuth(accounts *services.AccountService, jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			account, err := accounts.GetByEmail(r.Context(), subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to load account")
				return
			}

			ctx := context.WithValue(r.Context(), contextIdentityKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CreateClerk creates a new clerk account.
func (h *AccountHandler) CreateClerk(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	account, err := h.accounts.CreateClerk(r.Context(), services.NewAccountInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
		Agency:   strings.TrimSpace(req.Agency),
	})
	if err != nil {
		writeAccountCreateError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedAccountResponse{
		Type:  string(account.Role),
		ID:    account.ID,
		Email: account.Email,
	})
}

// CreateOfficer creates a new officer account with a badge number.
func (h *AccountHandler) CreateOfficer(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Badge == nil {
		writeError(w, http.StatusBadRequest, "badge is required")
		return
	}

	account, err := h.accounts.CreateOfficer(r.Context(), services.NewAccountInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
		Agency:   strings.TrimSpace(req.Agency),
		Badge:    req.Badge,
	})
	if err != nil {
		writeAccountCreateError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedAccountResponse{
		Type:  string(account.Role),
		ID:    account.ID,
		Email: account.Email,
	})
}

// Login verifies credentials and returns a bearer token bound to the
// account's email.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrBadCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
		}
		return
	}

	token, err := issueToken(account.Email, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Email: account.Email, AccessToken: token})
}

// ListAccounts lists accounts of the requested type, paginated.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	role, ok := types.ParseRole(strings.TrimSpace(r.URL.Query().Get("type")))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.accounts.ListByRole(r.Context(), role, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, AccountListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// GetAccount returns a single account by id.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch account")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// UpdateAccount overwrites an account's mutable fields.
//
// TODO: the authorization policy for account updates is unresolved; a
// prior revision restricted this to clerks and the account owner but
// that check was removed. Currently any authenticated account may
// update any account.
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	_, err = h.accounts.Update(r.Context(), id, services.UpdateAccountInput{
		Email:    req.Email,
		Name:     req.Name,
		Agency:   req.Agency,
		Badge:    req.Badge,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusConflict, "Email already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update account")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes an account by id.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type CreateAccountRequest struct {
	Agency   string `json:"agency"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Badge    *int   `json:"badge,omitempty"`
}

type CreatedAccountResponse struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

type UpdateAccountRequest struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Agency   string  `json:"agency"`
	Badge    *int    `json:"badge,omitempty"`
	Password *string `json:"password,omitempty"`
}

// AccountListResponse is the paginated account list payload.
type AccountListResponse struct {
	Items []types.Account `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

func writeAccountCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "Invalid email")
	case errors.Is(err, services.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "Password does not comply with requirements")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "Email already exists")
	default:
		writeError(w, http.StatusInternalServerError, "failed to create account")
	}
}

func parseAccountID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}

func issueToken(email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
