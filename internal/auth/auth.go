// Package auth issues and validates gateway access tokens. API clients are
// configured with a bcrypt hash of their secret; tokens are HS256 JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexbotov/hypixel/internal/audit"
	"github.com/alexbotov/hypixel/internal/config"
	"github.com/alexbotov/hypixel/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnknownClient      = errors.New("client is no longer configured")
)

// Claims are the JWT claims of a gateway token
type Claims struct {
	ClientID string `json:"client_id"`
	IP       string `json:"ip,omitempty"`
	jwt.RegisteredClaims
}

// Service provides authentication functionality
type Service struct {
	config *config.AuthConfig
	audit  *audit.Service
	now    func() time.Time
}

// New creates a new auth service
func New(cfg *config.AuthConfig, auditSvc *audit.Service) *Service {
	return &Service{
		config: cfg,
		audit:  auditSvc,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TokenRequest contains client credentials
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// IssueToken checks the client credentials and returns a signed token
func (s *Service) IssueToken(ctx context.Context, req *TokenRequest, ip string) (*domain.Session, string, error) {
	client, ok := s.client(req.ClientID)
	if !ok || req.ClientSecret == "" {
		// Compare anyway so unknown clients cost the same as wrong secrets
		bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.ClientSecret))
		s.authFailed(ctx, req.ClientID, ip)
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(req.ClientSecret)); err != nil {
		s.authFailed(ctx, req.ClientID, ip)
		return nil, "", ErrInvalidCredentials
	}

	now := s.now()
	session := &domain.Session{
		ID:        uuid.New().String(),
		ClientID:  client.ID,
		IPAddress: ip,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.TokenExpiry),
		Status:    domain.SessionStatusActive,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ClientID: session.ClientID,
		IP:       ip,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   session.ClientID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})

	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.audit.Log(ctx, audit.EventTokenIssued, domain.SeverityInfo,
		fmt.Sprintf("Token issued to %s", session.ClientID),
		map[string]string{"expires_at": session.ExpiresAt.Format(time.RFC3339)},
		audit.WithClient(session.ClientID), audit.WithSession(session.ID), audit.WithIP(ip))

	return session, tokenString, nil
}

// ValidateToken validates a JWT token and returns its session
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.ID == "" || claims.ClientID == "" {
		return nil, ErrInvalidToken
	}

	if _, ok := s.client(claims.ClientID); !ok {
		return nil, ErrUnknownClient
	}

	session := &domain.Session{
		ID:        claims.ID,
		ClientID:  claims.ClientID,
		IPAddress: claims.IP,
		Status:    domain.SessionStatusActive,
	}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time.UTC()
	}
	session.ExpiresAt = claims.ExpiresAt.Time.UTC()

	return session, nil
}

func (s *Service) client(id string) (*domain.APIClient, bool) {
	hash, ok := s.config.Clients[id]
	if !ok {
		return nil, false
	}
	return &domain.APIClient{ID: id, SecretHash: hash}, true
}

// IsAdmin reports whether the client may use the control routes
func (s *Service) IsAdmin(clientID string) bool {
	return s.config.IsAdmin(clientID)
}

// HashSecret returns the bcrypt hash to configure for a client secret
func HashSecret(secret string) (string, error) {
	if len(secret) < 16 {
		return "", errors.New("client secret must be at least 16 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

func (s *Service) authFailed(ctx context.Context, clientID, ip string) {
	s.audit.Log(ctx, audit.EventAuthFailed, domain.SeverityWarning,
		"Token request rejected",
		map[string]string{"client_id": clientID},
		audit.WithIP(ip))
}

// dummyHash is a valid bcrypt hash of a random string
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z7L6pY1V8b6Z6r2mU0p8F0eK"
