package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citetrack/apiserver/internal/services"
	"github.com/citetrack/apiserver/internal/store"
	"github.com/citetrack/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type fakeAccountRepo struct {
	nextID   int
	accounts map[int]types.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{nextID: 1, accounts: map[int]types.Account{}}
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int) (types.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	for _, account := range r.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (r *fakeAccountRepo) ListByRole(ctx context.Context, role types.Role, offset, limit int) ([]types.Account, int, error) {
	var matched []types.Account
	for id := 1; id < r.nextID; id++ {
		account, ok := r.accounts[id]
		if ok && account.Role == role {
			matched = append(matched, account)
		}
	}
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *fakeAccountRepo) Create(ctx context.Context, account types.Account) (types.Account, error) {
	if _, err := r.GetByEmail(ctx, account.Email); err == nil {
		return types.Account{}, store.ErrDuplicate
	}
	account.ID = r.nextID
	r.nextID++
	r.accounts[account.ID] = account
	return account, nil
}

func (r *fakeAccountRepo) Update(ctx context.Context, account types.Account) (types.Account, error) {
	if _, ok := r.accounts[account.ID]; !ok {
		return types.Account{}, store.ErrNotFound
	}
	r.accounts[account.ID] = account
	return account, nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.accounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

type fakeCitationRepo struct {
	nextID    int
	citations []types.Citation
}

func newFakeCitationRepo() *fakeCitationRepo {
	return &fakeCitationRepo{nextID: 1}
}

func (r *fakeCitationRepo) Create(ctx context.Context, citation types.Citation) (types.Citation, error) {
	citation.ID = r.nextID
	r.nextID++
	r.citations = append(r.citations, citation)
	return citation, nil
}

func (r *fakeCitationRepo) ListByAgency(ctx context.Context, agency string, offset, limit int) ([]types.Citation, int, error) {
	var matched []types.Citation
	for _, citation := range r.citations {
		if citation.CitationAgency == agency {
			matched = append(matched, citation)
		}
	}
	return pageCitations(matched, offset, limit)
}

func (r *fakeCitationRepo) ListByOfficer(ctx context.Context, officerID int, offset, limit int) ([]types.Citation, int, error) {
	var matched []types.Citation
	for _, citation := range r.citations {
		if citation.OfficerID == officerID {
			matched = append(matched, citation)
		}
	}
	return pageCitations(matched, offset, limit)
}

func pageCitations(citations []types.Citation, offset, limit int) ([]types.Citation, int, error) {
	total := len(citations)
	if offset >= len(citations) {
		return nil, total, nil
	}
	citations = citations[offset:]
	if len(citations) > limit {
		citations = citations[:limit]
	}
	return citations, total, nil
}

type fakeSignatureStore struct {
	keys []string
}

func (s *fakeSignatureStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.keys = append(s.keys, key)
	return nil
}

// testEnv wires the handlers against in-memory repositories the way
// the server does against Postgres.
type testEnv struct {
	router     *chi.Mux
	accounts   *services.AccountService
	citations  *services.CitationService
	signatures *fakeSignatureStore
}

func newTestEnv() *testEnv {
	accountService := services.NewAccountService(newFakeAccountRepo())
	signatures := &fakeSignatureStore{}
	citationService := services.NewCitationService(newFakeCitationRepo(), signatures, nil)

	authMiddleware := RequireAuth(accountService, testJWTSecret)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		AccountRouter(r, accountService, testJWTSecret, time.Hour)
		CitationRouter(r, citationService, authMiddleware)
	})

	return &testEnv{
		router:     router,
		accounts:   accountService,
		citations:  citationService,
		signatures: signatures,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&value))
	return value
}

func (e *testEnv) createOfficer(t *testing.T, email, password, agency string, badge int) types.Account {
	t.Helper()
	account, err := e.accounts.CreateOfficer(context.Background(), services.NewAccountInput{
		Email:    email,
		Password: password,
		Name:     "Test Officer",
		Agency:   agency,
		Badge:    &badge,
	})
	require.NoError(t, err)
	return account
}

func (e *testEnv) createClerk(t *testing.T, email, password, agency string) types.Account {
	t.Helper()
	account, err := e.accounts.CreateClerk(context.Background(), services.NewAccountInput{
		Email:    email,
		Password: password,
		Name:     "Test Clerk",
		Agency:   agency,
	})
	require.NoError(t, err)
	return account
}

func (e *testEnv) tokenFor(t *testing.T, email string) string {
	t.Helper()
	token, err := issueToken(email, []byte(testJWTSecret), time.Hour)
	require.NoError(t, err)
	return token
}

func citationPayload(agency string) map[string]any {
	return map[string]any{
		"violation_datetime":    "2026-05-11T14:30:00Z",
		"violation_route":       "I-80",
		"violation_county":      "Dane",
		"violation_city":        "Madison",
		"contact_type":          "traffic stop",
		"oln_state":             "WI",
		"oln":                   48812345,
		"oln_class":             "CDL",
		"cdl":                   true,
		"violator_name":         "John Q. Public",
		"violator_dob":          "1987-03-02T00:00:00Z",
		"violator_gender":       "M",
		"violator_hair":         "BR",
		"violator_eyes":         "GR",
		"violator_height":       "5'11\"",
		"violator_address":      "12 Oak St",
		"violator_city":         "Madison",
		"violator_state":        "WI",
		"violator_phone":        6085551234,
		"violator_email":        "john@example.com",
		"vehicle_type":          "sedan",
		"vehicle_vin":           "1HGCM82633A004352",
		"vehicle_color":         "blue",
		"vehicle_year":          2019,
		"vehicle_make":          "Honda",
		"vehicle_model":         "Accord",
		"factor_crash":          false,
		"factor_passenger":      true,
		"factor_spanish":        false,
		"factor_car_cam":        true,
		"factor_body_cam":       true,
		"factor_school_zone":    false,
		"factor_construction":   false,
		"factor_workers":        false,
		"violations":            []string{"FTA", "UNSF", "FTA", "UNSF"},
		"issued_by":             "J. Doe",
		"citation_agency":       agency,
		"issued_datetime":       "2026-05-11T15:00:00Z",
		"court":                 "Dane County Circuit",
		"court_appearance_date": "2026-06-11T09:00:00Z",
	}
}
