// Package integration provides end-to-end tests for the Hypixel gateway.
// They run the full router against a mock upstream; audit storage tests
// need a PostgreSQL DSN in HYPIXEL_TEST_DB_DSN.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexbotov/hypixel/internal/api"
	"github.com/alexbotov/hypixel/internal/audit"
	"github.com/alexbotov/hypixel/internal/auth"
	"github.com/alexbotov/hypixel/internal/config"
	"github.com/alexbotov/hypixel/internal/control"
	"github.com/alexbotov/hypixel/internal/database"
	"github.com/alexbotov/hypixel/pkg/hypixel"
	"github.com/google/uuid"
)

const (
	testClientID     = "integration"
	testClientSecret = "integration-secret-123"
	testAPIKey       = "integration-api-key"
	playerUUID       = "16751f79c0b14e53a0b590d31fc1d80d"
	profileUUID      = "8baabb83baa04bfabf26b430f68be90b"
)

var upstreamBodies = map[string]string{
	"/player": `{"success":true,"player":{"uuid":"` + playerUUID + `","displayname":"Steve","role":"ADMIN","newPackageRank":"MVP_PLUS","levelUp_MVP_PLUS":1550000000000}}`,
	"/skyblock/profiles": `{"success":true,"profiles":[{
		"profile_id":"` + profileUUID + `",
		"cute_name":"Apple",
		"members":{"` + playerUUID + `":{
			"first_join":1560000000000,
			"coin_purse":1234.5,
			"quests":{"explore_hub":{"status":"COMPLETE","completed_at":1560000100000},"talk_to_guber":{"status":"UNLOCKED"}},
			"dungeons":{"dungeon_types":{"catacombs":{"times_played":[5,3,1,0,0,0,0,0]}}}
		}}
	}]}`,
	"/skyblock/bazaar": `{"success":true,"lastUpdated":1600000000000,"products":{"ENCHANTED_DIAMOND":{"sell_summary":[],"buy_summary":[],"quick_status":{"buyPrice":1700.5,"sellPrice":1650.25}}}}`,
}

// TestServer wraps all services needed for integration testing
type TestServer struct {
	Server   *httptest.Server
	Upstream *httptest.Server
	DB       *database.DB
	Audit    *audit.Service
	Control  *control.Service
	Handler  *api.Handler
	Config   *config.Config
	calls    atomic.Int64
	teardown func()
}

// NewTestServer creates a gateway in front of a mock Hypixel API. withDB
// attaches the PostgreSQL audit store and skips when none is configured.
func NewTestServer(t *testing.T, withDB bool) *TestServer {
	t.Helper()

	hash, err := auth.HashSecret(testClientSecret)
	if err != nil {
		t.Fatalf("Failed to hash secret: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Auth.JWTSecret = "test-secret-key-for-integration-tests"
	cfg.Auth.Clients = map[string]string{testClientID: hash}
	cfg.Auth.Admins = []string{testClientID}
	cfg.Hypixel.APIKey = testAPIKey
	cfg.Hypixel.Timeout = 5 * time.Second
	cfg.Feed.Interval = time.Minute

	ts := &TestServer{Config: cfg}
	ts.Upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if r.Header.Get("API-Key") != testAPIKey && r.URL.Path != "/skyblock/bazaar" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"cause":"Invalid API key"}`))
			return
		}
		body, ok := upstreamBodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"cause":"Unknown endpoint"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	cfg.Hypixel.BaseURL = ts.Upstream.URL

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if withDB {
		dsn := os.Getenv("HYPIXEL_TEST_DB_DSN")
		if dsn == "" {
			ts.Upstream.Close()
			t.Skip("HYPIXEL_TEST_DB_DSN not set")
		}
		db, err := database.New(ctx, "postgres", dsn)
		if err != nil {
			t.Fatalf("Failed to create database: %v", err)
		}
		if err := db.Reset(ctx); err != nil {
			t.Fatalf("Failed to reset database: %v", err)
		}
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Failed to migrate database: %v", err)
		}
		ts.DB = db
		ts.Audit = audit.New(db.DB, logger)
		ts.Control = control.New(db.DB, ts.Audit)
	} else {
		ts.Audit = audit.New(nil, logger)
		ts.Control = control.New(nil, ts.Audit)
	}

	client := hypixel.NewClient(&hypixel.ClientConfig{
		BaseURL: cfg.Hypixel.BaseURL,
		APIKey:  cfg.Hypixel.APIKey,
		Timeout: cfg.Hypixel.Timeout,
		Logger:  logger,
	})
	ts.Handler = api.New(client, auth.New(&cfg.Auth, ts.Audit), ts.Audit, ts.Control, api.Options{
		Upstream:     cfg.Hypixel.BaseURL,
		FeedInterval: cfg.Feed.Interval,
		Logger:       logger,
	})
	ts.Server = httptest.NewServer(ts.Handler.SetupRouter())

	ts.teardown = func() {
		ts.Server.Close()
		ts.Upstream.Close()
		if ts.DB != nil {
			ts.DB.Reset(ctx)
			ts.DB.Close()
		}
	}
	return ts
}

// Close cleans up test resources
func (ts *TestServer) Close() {
	ts.teardown()
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// doRequest performs an HTTP request and returns the parsed response
func (ts *TestServer) doRequest(t *testing.T, method, path string, body interface{}, token string) (int, *APIResponse) {
	t.Helper()

	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return resp.StatusCode, &apiResp
}

func (ts *TestServer) login(t *testing.T) string {
	t.Helper()
	status, resp := ts.doRequest(t, "POST", "/api/v1/auth/token", map[string]string{
		"client_id":     testClientID,
		"client_secret": testClientSecret,
	}, "")
	if status != http.StatusOK {
		t.Fatalf("Token request failed with %d", status)
	}

	var data struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	json.Unmarshal(resp.Data, &data)
	if data.Token == "" || data.ExpiresAt.IsZero() {
		t.Fatalf("Unexpected token response %s", resp.Data)
	}
	return data.Token
}

// ============================================================================
// Health Check Tests
// ============================================================================

func TestHealthEndpoint(t *testing.T) {
	ts := NewTestServer(t, false)
	defer ts.Close()

	status, resp := ts.doRequest(t, "GET", "/health", nil, "")
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("Expected healthy response, got %d", status)
	}

	var data map[string]interface{}
	json.Unmarshal(resp.Data, &data)
	if data["status"] != "healthy" || data["audit_enabled"] != false {
		t.Errorf("Unexpected health data %v", data)
	}
	if ts.calls.Load() != 0 {
		t.Error("Health check must not call upstream")
	}
}

// ============================================================================
// Proxy Flow Tests
// ============================================================================

func TestPlayerFlow(t *testing.T) {
	ts := NewTestServer(t, false)
	defer ts.Close()

	token := ts.login(t)

	t.Run("Player", func(t *testing.T) {
		status, resp := ts.doRequest(t, "GET", "/api/v1/players/"+playerUUID, nil, token)
		if status != http.StatusOK {
			t.Fatalf("Expected 200, got %d", status)
		}

		var player hypixel.Player
		if err := json.Unmarshal(resp.Data, &player); err != nil {
			t.Fatalf("Failed to decode player: %v", err)
		}
		if player.UUID.String() != "16751f79-c0b1-4e53-a0b5-90d31fc1d80d" {
			t.Errorf("Unexpected uuid %s", player.UUID)
		}
		if player.Rank.Display == nil || *player.Rank.Display != "ADMIN" {
			t.Errorf("Expected staff rank to take precedence, got %+v", player.Rank)
		}
	})

	t.Run("Profiles", func(t *testing.T) {
		status, resp := ts.doRequest(t, "GET", "/api/v1/players/"+playerUUID+"/profiles", nil, token)
		if status != http.StatusOK {
			t.Fatalf("Expected 200, got %d", status)
		}

		var profiles []hypixel.SkyblockProfile
		if err := json.Unmarshal(resp.Data, &profiles); err != nil {
			t.Fatalf("Failed to decode profiles: %v", err)
		}
		if len(profiles) != 1 || len(profiles[0].Members) != 1 {
			t.Fatalf("Unexpected profiles %+v", profiles)
		}

		member, ok := profiles[0].Member(uuid.MustParse(playerUUID))
		if !ok {
			t.Fatal("Expected member in profile")
		}
		if len(member.Quests) != 2 || *member.Quests[0].Name != "explore_hub" || member.Quests[1].Name != nil {
			t.Errorf("Expected the completed quest and one inert entry, got %+v", member.Quests)
		}
		if member.Dungeons == nil || member.Dungeons.Catacombs == nil {
			t.Fatal("Expected catacombs stats")
		}
		if got := member.Dungeons.Catacombs.Floors[1].Runs; got == nil || *got != 3 {
			t.Errorf("Expected floor 1 played 3 times, got %v", got)
		}
	})

	t.Run("Bazaar", func(t *testing.T) {
		status, resp := ts.doRequest(t, "GET", "/api/v1/skyblock/bazaar", nil, token)
		if status != http.StatusOK {
			t.Fatalf("Expected 200, got %d", status)
		}
		if !strings.Contains(string(resp.Data), "ENCHANTED_DIAMOND") {
			t.Errorf("Expected product in %s", resp.Data)
		}
	})

	t.Run("UpstreamRejected", func(t *testing.T) {
		status, resp := ts.doRequest(t, "GET", "/api/v1/skyblock/news", nil, token)
		if status != http.StatusBadGateway || resp.Error == nil || resp.Error.Code != "UPSTREAM_REJECTED" {
			t.Errorf("Expected 502 UPSTREAM_REJECTED, got %d %+v", status, resp.Error)
		}
	})

	t.Run("NoToken", func(t *testing.T) {
		before := ts.calls.Load()
		status, _ := ts.doRequest(t, "GET", "/api/v1/players/"+playerUUID, nil, "")
		if status != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", status)
		}
		if ts.calls.Load() != before {
			t.Error("Unauthenticated request reached upstream")
		}
	})
}

// ============================================================================
// Audit Store Tests
// ============================================================================

func TestAuditTrail(t *testing.T) {
	ts := NewTestServer(t, true)
	defer ts.Close()

	token := ts.login(t)
	ts.doRequest(t, "GET", "/api/v1/players/"+playerUUID, nil, token)
	ts.doRequest(t, "GET", "/api/v1/skyblock/news", nil, token)

	status, resp := ts.doRequest(t, "GET", "/api/v1/audit/events?limit=10", nil, token)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	var events []struct {
		Type       string `json:"type"`
		Endpoint   string `json:"endpoint"`
		StatusCode int    `json:"status_code"`
	}
	if err := json.Unmarshal(resp.Data, &events); err != nil {
		t.Fatalf("Failed to decode events: %v", err)
	}

	seen := map[string]int{}
	for _, e := range events {
		seen[e.Type+" "+e.Endpoint] = e.StatusCode
	}
	if seen[audit.EventUpstreamCall+" player"] != http.StatusOK {
		t.Errorf("Expected audited player call, got %v", seen)
	}
	if seen[audit.EventUpstreamError+" skyblock/news"] != http.StatusBadGateway {
		t.Errorf("Expected audited news failure, got %v", seen)
	}
	if _, ok := seen[audit.EventTokenIssued+" "]; !ok {
		t.Errorf("Expected token_issued event, got %v", seen)
	}
}

// ============================================================================
// Operator Control Tests
// ============================================================================

func TestMaintenanceMode(t *testing.T) {
	ts := NewTestServer(t, false)
	defer ts.Close()
	token := ts.login(t)

	status, _ := ts.doRequest(t, "POST", "/api/v1/control/proxy", map[string]interface{}{
		"enabled": false,
		"reason":  "upstream incident",
	}, token)
	if status != http.StatusOK {
		t.Fatalf("Disable proxy failed with %d", status)
	}

	before := ts.calls.Load()
	status, resp := ts.doRequest(t, "GET", "/api/v1/skyblock/bazaar", nil, token)
	if status != http.StatusServiceUnavailable || resp.Error == nil || resp.Error.Code != "MAINTENANCE" {
		t.Errorf("Expected 503 MAINTENANCE, got %d", status)
	}
	if ts.calls.Load() != before {
		t.Error("Maintenance mode must not call upstream")
	}

	ts.doRequest(t, "POST", "/api/v1/control/proxy", map[string]interface{}{"enabled": true}, token)
	status, _ = ts.doRequest(t, "GET", "/api/v1/skyblock/bazaar", nil, token)
	if status != http.StatusOK {
		t.Errorf("Expected bazaar served after maintenance, got %d", status)
	}
}
