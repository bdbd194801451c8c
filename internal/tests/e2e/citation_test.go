//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/citetrack/apiserver/config"
	"github.com/citetrack/apiserver/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestCitationLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	email := fmt.Sprintf("officer_%d@example.com", time.Now().UnixNano())
	password := "Secret!2024"

	officerID, err := createOfficer(t, baseURL, email, password, 4521)
	if err != nil {
		t.Fatalf("create officer: %v", err)
	}
	if officerID == 0 {
		t.Fatalf("expected officer ID to be set")
	}

	if _, err := createOfficer(t, baseURL, email, password, 4522); err == nil {
		t.Fatalf("expected duplicate email to be rejected")
	}

	token, err := login(t, baseURL, email, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	citationID, err := createCitation(t, baseURL, token)
	if err != nil {
		t.Fatalf("create citation: %v", err)
	}
	if citationID == 0 {
		t.Fatalf("expected citation ID to be set")
	}

	items, err := listOfficerCitations(t, baseURL, token)
	if err != nil {
		t.Fatalf("list officer citations: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one citation, got %d", len(items))
	}
	if items[0].ID != citationID {
		t.Fatalf("unexpected citation id: %d", items[0].ID)
	}
	if items[0].OfficerID != officerID {
		t.Fatalf("unexpected officer id on citation: %d", items[0].OfficerID)
	}
}

func TestClerkCannotCreateCitation(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	email := fmt.Sprintf("clerk_%d@example.com", time.Now().UnixNano())
	password := "Secret!2024"

	if err := createClerk(t, baseURL, email, password); err != nil {
		t.Fatalf("create clerk: %v", err)
	}

	token, err := login(t, baseURL, email, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	status, err := postCitation(t, baseURL, token)
	if err != nil {
		t.Fatalf("post citation: %v", err)
	}
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for clerk, got %d", status)
	}
}

type createdAccountResponse struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

type createdCitationResponse struct {
	Item string `json:"item"`
	ID   int    `json:"id"`
}

type citationItem struct {
	ID        int `json:"id"`
	OfficerID int `json:"officer_id"`
}

type citationListResponse struct {
	Items []citationItem `json:"items"`
	Total int            `json:"total"`
}

func createOfficer(t *testing.T, baseURL, email, password string, badge int) (int, error) {
	t.Helper()

	payload := map[string]any{
		"agency":   "agency_1",
		"email":    email,
		"password": password,
		"name":     "Test Officer",
		"badge":    badge,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	resp, err := postJSON(baseURL+"/api/create-officer/", "", body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("create officer status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed createdAccountResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	return parsed.ID, nil
}

func createClerk(t *testing.T, baseURL, email, password string) error {
	t.Helper()

	payload := map[string]any{
		"agency":   "agency_1",
		"email":    email,
		"password": password,
		"name":     "Test Clerk",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := postJSON(baseURL+"/api/create-clerk/", "", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("create clerk status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func login(t *testing.T, baseURL, email, password string) (string, error) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	resp, err := postJSON(baseURL+"/api/login", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("missing access token in login response")
	}
	return parsed.AccessToken, nil
}

func createCitation(t *testing.T, baseURL, token string) (int, error) {
	t.Helper()

	resp, err := postJSON(baseURL+"/api/citation/", token, citationBody())
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("create citation status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed createdCitationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	return parsed.ID, nil
}

func postCitation(t *testing.T, baseURL, token string) (int, error) {
	t.Helper()

	resp, err := postJSON(baseURL+"/api/citation/", token, citationBody())
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func listOfficerCitations(t *testing.T, baseURL, token string) ([]citationItem, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/list_officer_citations", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list citations status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed citationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Items, nil
}

func postJSON(url, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}

func citationBody() []byte {
	payload := map[string]any{
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
		"violations":            []string{"FTA", "UNSF"},
		"issued_by":             "J. Doe",
		"citation_agency":       "agency_1",
		"issued_datetime":       "2026-05-11T15:00:00Z",
		"court":                 "Dane County Circuit",
		"court_appearance_date": "2026-06-11T09:00:00Z",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "citetrack")
	_ = os.Setenv("DB_PASSWORD", "citetrack")
	_ = os.Setenv("DB_NAME", "citetrack")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	_ = os.Setenv("MINIO_SECRET_KEY", "minioadmin")
	_ = os.Setenv("MINIO_BUCKET", "citetrack")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
