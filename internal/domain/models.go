// Package domain contains the core models of the Hypixel gateway
package domain

import (
	"encoding/json"
	"time"
)

// APIClient is a caller allowed to request gateway tokens
type APIClient struct {
	ID         string `json:"id"`
	SecretHash string `json:"-"`
}

// SessionStatus represents the state of a gateway session
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusExpired SessionStatus = "expired"
)

// Session is the authenticated context carried by a gateway token
type Session struct {
	ID        string        `json:"id"`
	ClientID  string        `json:"client_id"`
	IPAddress string        `json:"ip_address,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Status    SessionStatus `json:"status"`
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// EventSeverity represents audit event severity
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityError    EventSeverity = "error"
	SeverityCritical EventSeverity = "critical"
)

// AuditEvent is one recorded gateway event, usually a proxied upstream call
type AuditEvent struct {
	ID          string          `json:"id" db:"id"`
	Type        string          `json:"type" db:"type"`
	Severity    EventSeverity   `json:"severity" db:"severity"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
	ClientID    *string         `json:"client_id,omitempty" db:"client_id"`
	SessionID   *string         `json:"session_id,omitempty" db:"session_id"`
	Endpoint    string          `json:"endpoint,omitempty" db:"endpoint"`
	StatusCode  int             `json:"status_code,omitempty" db:"status_code"`
	DurationMS  int64           `json:"duration_ms,omitempty" db:"duration_ms"`
	Description string          `json:"description" db:"description"`
	Data        json.RawMessage `json:"data,omitempty" db:"data"`
	IPAddress   string          `json:"ip_address" db:"ip_address"`
	Component   string          `json:"component" db:"component"`
}

// ProductQuote is the top-of-book view of one bazaar product
type ProductQuote struct {
	ProductID  string   `json:"product_id"`
	BuyPrice   *float64 `json:"buy_price,omitempty"`
	SellPrice  *float64 `json:"sell_price,omitempty"`
	BuyVolume  *int64   `json:"buy_volume,omitempty"`
	SellVolume *int64   `json:"sell_volume,omitempty"`
}

// BazaarTick is one snapshot pushed over the bazaar feed
type BazaarTick struct {
	Sequence   int64          `json:"sequence"`
	LastUpdate *time.Time     `json:"last_update,omitempty"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Quotes     []ProductQuote `json:"quotes"`
}

// GatewayStatus describes the running gateway
type GatewayStatus struct {
	Upstream     string    `json:"upstream"`
	AuditEnabled bool      `json:"audit_enabled"`
	StartedAt    time.Time `json:"started_at"`
}

// ControlStatus reports the gateway's operational switches
type ControlStatus struct {
	ProxyEnabled      bool       `json:"proxy_enabled"`
	DisabledAt        *time.Time `json:"disabled_at,omitempty"`
	DisabledBy        string     `json:"disabled_by,omitempty"`
	DisabledReason    string     `json:"disabled_reason,omitempty"`
	DisabledEndpoints []string   `json:"disabled_endpoints"`
}
