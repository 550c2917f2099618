// Package auth issues and validates the admin bearer tokens that guard the
// reconciliation dashboard endpoints.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
)

const (
	defaultTokenTTL = 12 * time.Hour
	defaultIssuer   = "backend-tindahan"
	defaultAudience = "tindahan-admin"
)

// Config configures token issuance and validation.
type Config struct {
	Secret    string
	TokenTTL  time.Duration
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// Service signs and parses admin access tokens. All tokens are HS256; any
// other algorithm on an inbound token is rejected before verification.
type Service struct {
	secret    []byte
	tokenTTL  time.Duration
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}

	s := &Service{
		secret:    []byte(secret),
		tokenTTL:  cfg.TokenTTL,
		issuer:    strings.TrimSpace(cfg.Issuer),
		audience:  strings.TrimSpace(cfg.Audience),
		clockSkew: cfg.ClockSkew,
		now:       time.Now,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = defaultTokenTTL
	}
	if s.issuer == "" {
		s.issuer = defaultIssuer
	}
	if s.audience == "" {
		s.audience = defaultAudience
	}
	if s.clockSkew < 0 {
		s.clockSkew = 0
	}
	return s, nil
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// IssueToken signs a fresh token for subject and returns it with its expiry.
func (s *Service) IssueToken(subject string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}

	now := s.now()
	exp := now.Add(s.tokenTTL)
	tok, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(exp).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), exp, nil
}

// ParseToken verifies a token end to end and returns its subject.
func (s *Service) ParseToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", authError("missing token", nil)
	}
	if err := checkSignatureHeader(raw); err != nil {
		return "", authError("invalid token", err)
	}
	tok, err := jwt.ParseString(raw, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", authError("invalid token", err)
	}

	now := s.now()
	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	}
	if s.clockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(s.clockSkew))
	}
	if err := jwt.Validate(tok, opts...); err != nil {
		return "", authError("invalid token", err)
	}
	return tok.Subject(), nil
}

// checkSignatureHeader inspects the JWS envelope before any cryptographic
// verification. Every signature must carry an explicit HS256 header; "none"
// and mixed-algorithm tokens are refused outright.
func checkSignatureHeader(raw string) error {
	msg, err := jws.ParseString(raw)
	if err != nil {
		return err
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return errors.New("token carries no signatures")
	}
	for _, sig := range sigs {
		hdr := sig.ProtectedHeaders()
		if hdr == nil {
			return errors.New("token missing protected headers")
		}
		switch alg := hdr.Algorithm(); alg {
		case jwa.HS256:
		case jwa.NoSignature, "":
			return errors.New("token refuses to name a signing algorithm")
		default:
			return fmt.Errorf("unexpected token algorithm %s", alg)
		}
	}
	return nil
}

func authError(message string, cause error) error {
	return common.NewAppError(common.CodeAuth, message, http.StatusUnauthorized, cause)
}
