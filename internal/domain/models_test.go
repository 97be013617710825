package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSessionExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	session := &Session{CreatedAt: now, ExpiresAt: now.Add(time.Hour), Status: SessionStatusActive}

	t.Run("BeforeExpiry", func(t *testing.T) {
		if session.Expired(now.Add(59 * time.Minute)) {
			t.Error("Expected session to be valid")
		}
	})

	t.Run("AtExpiry", func(t *testing.T) {
		if !session.Expired(now.Add(time.Hour)) {
			t.Error("Expected session to be expired at its expiry time")
		}
	})

	t.Run("AfterExpiry", func(t *testing.T) {
		if !session.Expired(now.Add(2 * time.Hour)) {
			t.Error("Expected session to be expired")
		}
	})
}

func TestEventSeverity(t *testing.T) {
	severities := []EventSeverity{
		SeverityInfo,
		SeverityWarning,
		SeverityError,
		SeverityCritical,
	}

	for _, s := range severities {
		if s == "" {
			t.Error("Severity should not be empty")
		}
	}
}

func TestAPIClientHidesSecret(t *testing.T) {
	data, err := json.Marshal(APIClient{ID: "dashboard", SecretHash: "$2a$10$hash"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"id":"dashboard"}` {
		t.Errorf("Expected secret hash omitted, got %s", data)
	}
}

func TestAuditEventJSON(t *testing.T) {
	clientID := "dashboard"
	event := AuditEvent{
		ID:         "e1",
		Type:       "upstream_call",
		Severity:   SeverityInfo,
		ClientID:   &clientID,
		Endpoint:   "skyblock/bazaar",
		StatusCode: 200,
		Component:  "gateway",
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["client_id"] != "dashboard" || decoded["endpoint"] != "skyblock/bazaar" {
		t.Errorf("Unexpected JSON %s", data)
	}
	if _, ok := decoded["session_id"]; ok {
		t.Error("Expected session_id omitted")
	}
}
