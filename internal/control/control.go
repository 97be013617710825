// Package control lets operators take the gateway out of service.
//
// Proxying can be switched off as a whole (maintenance) or per upstream
// endpoint. State changes are audited and, when a database is configured,
// persisted so they survive a restart.
package control

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alexbotov/hypixel/internal/audit"
	"github.com/alexbotov/hypixel/internal/domain"
)

var (
	ErrProxyDisabled    = errors.New("gateway is in maintenance")
	ErrEndpointDisabled = errors.New("endpoint is disabled")
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
)

// Service holds the gateway's operational switches
type Service struct {
	db    *sql.DB
	audit *audit.Service

	mu                sync.RWMutex
	proxyEnabled      bool
	disabledEndpoints map[string]string
	disabledAt        *time.Time
	disabledBy        string
	disabledReason    string
}

// New creates a new control service. db may be nil, which keeps state in memory.
func New(db *sql.DB, auditSvc *audit.Service) *Service {
	return &Service{
		db:                db,
		audit:             auditSvc,
		proxyEnabled:      true,
		disabledEndpoints: make(map[string]string),
	}
}

// DisableProxy rejects every proxied request until EnableProxy is called
func (s *Service) DisableProxy(ctx context.Context, reason, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if err := s.persistState(ctx, "false", reason, now, authorizedBy); err != nil {
		return err
	}
	s.proxyEnabled = false
	s.disabledAt = &now
	s.disabledBy = authorizedBy
	s.disabledReason = reason

	s.audit.Log(ctx, audit.EventProxyDisabled, domain.SeverityCritical,
		fmt.Sprintf("Proxy disabled: %s", reason),
		map[string]interface{}{
			"authorized_by": authorizedBy,
			"reason":        reason,
		},
		audit.WithClient(authorizedBy), audit.WithComponent("control"))

	return nil
}

// EnableProxy resumes proxying
func (s *Service) EnableProxy(ctx context.Context, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistState(ctx, "true", "", time.Now().UTC(), authorizedBy); err != nil {
		return err
	}
	s.proxyEnabled = true
	s.disabledAt = nil
	s.disabledBy = ""
	s.disabledReason = ""

	s.audit.Log(ctx, audit.EventProxyEnabled, domain.SeverityInfo,
		"Proxy enabled",
		map[string]interface{}{"authorized_by": authorizedBy},
		audit.WithClient(authorizedBy), audit.WithComponent("control"))

	return nil
}

func (s *Service) persistState(ctx context.Context, value, reason string, at time.Time, by string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_state (key, value, reason, updated_at, updated_by)
		VALUES ('proxy_enabled', $1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET value = $1, reason = $2, updated_at = $3, updated_by = $4
	`, value, reason, at, by)
	if err != nil {
		return fmt.Errorf("failed to persist proxy state: %w", err)
	}
	return nil
}

// DisableEndpoint rejects requests for one upstream endpoint, such as "skyblock/bazaar"
func (s *Service) DisableEndpoint(ctx context.Context, endpoint, reason, authorizedBy string) error {
	if endpoint == "" {
		return ErrInvalidEndpoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO disabled_endpoints (endpoint, reason, disabled_at, disabled_by)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (endpoint) DO UPDATE SET reason = $2, disabled_at = $3, disabled_by = $4
		`, endpoint, reason, time.Now().UTC(), authorizedBy)
		if err != nil {
			return fmt.Errorf("failed to persist endpoint state: %w", err)
		}
	}
	s.disabledEndpoints[endpoint] = reason

	s.audit.Log(ctx, audit.EventEndpointDisabled, domain.SeverityWarning,
		fmt.Sprintf("Endpoint disabled: %s - %s", endpoint, reason),
		map[string]interface{}{
			"endpoint":      endpoint,
			"reason":        reason,
			"authorized_by": authorizedBy,
		},
		audit.WithClient(authorizedBy), audit.WithComponent("control"))

	return nil
}

// EnableEndpoint re-enables one upstream endpoint
func (s *Service) EnableEndpoint(ctx context.Context, endpoint, authorizedBy string) error {
	if endpoint == "" {
		return ErrInvalidEndpoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM disabled_endpoints WHERE endpoint = $1`, endpoint); err != nil {
			return fmt.Errorf("failed to persist endpoint state: %w", err)
		}
	}
	delete(s.disabledEndpoints, endpoint)

	s.audit.Log(ctx, audit.EventEndpointEnabled, domain.SeverityInfo,
		fmt.Sprintf("Endpoint enabled: %s", endpoint),
		map[string]interface{}{
			"endpoint":      endpoint,
			"authorized_by": authorizedBy,
		},
		audit.WithClient(authorizedBy), audit.WithComponent("control"))

	return nil
}

// IsProxyEnabled reports whether the gateway is serving proxied requests
func (s *Service) IsProxyEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proxyEnabled
}

// IsEndpointEnabled reports whether requests for endpoint are allowed
func (s *Service) IsEndpointEnabled(endpoint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, disabled := s.disabledEndpoints[endpoint]
	return !disabled
}

// CheckAccess returns an error when endpoint may not be proxied right now
func (s *Service) CheckAccess(endpoint string) error {
	if !s.IsProxyEnabled() {
		return ErrProxyDisabled
	}
	if !s.IsEndpointEnabled(endpoint) {
		return ErrEndpointDisabled
	}
	return nil
}

// Status returns the current switches
func (s *Service) Status() *domain.ControlStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	endpoints := make([]string, 0, len(s.disabledEndpoints))
	for e := range s.disabledEndpoints {
		endpoints = append(endpoints, e)
	}
	sort.Strings(endpoints)

	return &domain.ControlStatus{
		ProxyEnabled:      s.proxyEnabled,
		DisabledAt:        s.disabledAt,
		DisabledBy:        s.disabledBy,
		DisabledReason:    s.disabledReason,
		DisabledEndpoints: endpoints,
	}
}

// LoadState loads persisted state from the database on startup
func (s *Service) LoadState(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var value, updatedBy string
	var reason sql.NullString
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT value, reason, updated_at, updated_by FROM system_state WHERE key = 'proxy_enabled'`,
	).Scan(&value, &reason, &updatedAt, &updatedBy)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		s.proxyEnabled = value != "false"
		if !s.proxyEnabled {
			s.disabledAt = &updatedAt
			s.disabledBy = updatedBy
			s.disabledReason = reason.String
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT endpoint, reason FROM disabled_endpoints`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var endpoint string
		var reason sql.NullString
		if err := rows.Scan(&endpoint, &reason); err != nil {
			return err
		}
		s.disabledEndpoints[endpoint] = reason.String
	}

	return rows.Err()
}
