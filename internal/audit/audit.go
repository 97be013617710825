// Package audit records gateway events: proxied upstream calls, token
// issuance and authentication failures.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexbotov/hypixel/internal/domain"
	"github.com/google/uuid"
)

// Event types
const (
	EventUpstreamCall  = "upstream_call"
	EventUpstreamError = "upstream_error"
	EventTokenIssued   = "token_issued"
	EventAuthFailed    = "auth_failed"
	EventFeedOpened    = "feed_opened"
	EventFeedClosed    = "feed_closed"

	EventProxyDisabled    = "proxy_disabled"
	EventProxyEnabled     = "proxy_enabled"
	EventEndpointDisabled = "endpoint_disabled"
	EventEndpointEnabled  = "endpoint_enabled"
)

// Service provides audit logging functionality. Every event goes to the
// logger; it is also stored when the service has a database.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a new audit service. db may be nil, which disables storage.
func New(db *sql.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger.With("component", "audit")}
}

// Enabled reports whether events are persisted
func (s *Service) Enabled() bool {
	return s != nil && s.db != nil
}

// LogEvent records a significant event
func (s *Service) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if s == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	s.logger.Log(ctx, slogLevel(event.Severity), event.Description,
		"event_id", event.ID,
		"type", event.Type,
		"endpoint", event.Endpoint,
		"status", event.StatusCode,
		"duration_ms", event.DurationMS,
		"ip", event.IPAddress,
	)

	if s.db == nil {
		return nil
	}

	var data *string
	if len(event.Data) > 0 {
		d := string(event.Data)
		data = &d
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, type, severity, timestamp, client_id, session_id, endpoint, status_code, duration_ms, description, data, ip_address, component)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, event.ID, event.Type, event.Severity, event.Timestamp, event.ClientID, event.SessionID,
		event.Endpoint, event.StatusCode, event.DurationMS, event.Description, data, event.IPAddress, event.Component)
	if err != nil {
		return fmt.Errorf("failed to store audit event: %w", err)
	}
	return nil
}

// Log is a convenience method for logging events
func (s *Service) Log(ctx context.Context, eventType string, severity domain.EventSeverity, description string, data interface{}, opts ...EventOption) error {
	return s.LogEvent(ctx, NewEvent(eventType, severity, description, data, opts...))
}

// NewEvent builds an event with a fresh ID and the current time
func NewEvent(eventType string, severity domain.EventSeverity, description string, data interface{}, opts ...EventOption) *domain.AuditEvent {
	event := &domain.AuditEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Severity:    severity,
		Timestamp:   time.Now().UTC(),
		Description: description,
		Component:   "gateway",
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err == nil {
			event.Data = jsonData
		}
	}

	for _, opt := range opts {
		opt(event)
	}
	return event
}

// EventOption is a functional option for configuring audit events
type EventOption func(*domain.AuditEvent)

// WithClient sets the API client ID for the event
func WithClient(clientID string) EventOption {
	return func(e *domain.AuditEvent) {
		e.ClientID = &clientID
	}
}

// WithSession sets the session ID for the event
func WithSession(sessionID string) EventOption {
	return func(e *domain.AuditEvent) {
		e.SessionID = &sessionID
	}
}

// WithUpstream records the upstream endpoint, the status returned to the
// caller and how long the call took
func WithUpstream(endpoint string, status int, duration time.Duration) EventOption {
	return func(e *domain.AuditEvent) {
		e.Endpoint = endpoint
		e.StatusCode = status
		e.DurationMS = duration.Milliseconds()
	}
}

// WithIP sets the IP address for the event
func WithIP(ip string) EventOption {
	return func(e *domain.AuditEvent) {
		e.IPAddress = ip
	}
}

// WithComponent sets the component for the event
func WithComponent(component string) EventOption {
	return func(e *domain.AuditEvent) {
		e.Component = component
	}
}

// GetEvents retrieves audit events with optional filtering, newest first
func (s *Service) GetEvents(ctx context.Context, filter *EventFilter) ([]*domain.AuditEvent, error) {
	if !s.Enabled() {
		return nil, nil
	}

	query, args := filter.query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var clientID, sessionID, endpoint, data, ip sql.NullString

		err := rows.Scan(&event.ID, &event.Type, &event.Severity, &event.Timestamp,
			&clientID, &sessionID, &endpoint, &event.StatusCode, &event.DurationMS,
			&event.Description, &data, &ip, &event.Component)
		if err != nil {
			return nil, err
		}

		if clientID.Valid {
			event.ClientID = &clientID.String
		}
		if sessionID.Valid {
			event.SessionID = &sessionID.String
		}
		event.Endpoint = endpoint.String
		event.IPAddress = ip.String
		if data.Valid && data.String != "" {
			event.Data = json.RawMessage(data.String)
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

// EventFilter defines criteria for filtering audit events
type EventFilter struct {
	ClientID string
	Type     string
	Endpoint string
	From     time.Time
	To       time.Time
	Limit    int
}

func (f *EventFilter) query() (string, []interface{}) {
	query := `SELECT id, type, severity, timestamp, client_id, session_id, endpoint, status_code, duration_ms, description, data, ip_address, component
			  FROM audit_events WHERE 1=1`
	args := []interface{}{}
	paramIdx := 1

	if f != nil {
		if f.ClientID != "" {
			query += fmt.Sprintf(" AND client_id = $%d", paramIdx)
			args = append(args, f.ClientID)
			paramIdx++
		}
		if f.Type != "" {
			query += fmt.Sprintf(" AND type = $%d", paramIdx)
			args = append(args, f.Type)
			paramIdx++
		}
		if f.Endpoint != "" {
			query += fmt.Sprintf(" AND endpoint = $%d", paramIdx)
			args = append(args, f.Endpoint)
			paramIdx++
		}
		if !f.From.IsZero() {
			query += fmt.Sprintf(" AND timestamp >= $%d", paramIdx)
			args = append(args, f.From)
			paramIdx++
		}
		if !f.To.IsZero() {
			query += fmt.Sprintf(" AND timestamp <= $%d", paramIdx)
			args = append(args, f.To)
			paramIdx++
		}
	}

	query += " ORDER BY timestamp DESC"

	if f != nil && f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", paramIdx)
		args = append(args, f.Limit)
	} else {
		query += " LIMIT 100"
	}
	return query, args
}

func slogLevel(severity domain.EventSeverity) slog.Level {
	switch severity {
	case domain.SeverityWarning:
		return slog.LevelWarn
	case domain.SeverityError, domain.SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
