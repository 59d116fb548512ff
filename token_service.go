package tube

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService issues and validates both token classes. Access and refresh
// tokens are signed with distinct secrets and carry their own expirations.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      jwt.ClaimStrings
	logger        Logger
}

var (
	_ TokenIssuer   = (*TokenService)(nil)
	_ TokenVerifier = (*TokenService)(nil)
)

// NewTokenService creates a new TokenService instance from config
func NewTokenService(cfg Config, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		accessSecret:  []byte(cfg.GetAccessTokenSecret()),
		refreshSecret: []byte(cfg.GetRefreshTokenSecret()),
		accessTTL:     cfg.GetAccessTokenExpiration(),
		refreshTTL:    cfg.GetRefreshTokenExpiration(),
		issuer:        cfg.GetIssuer(),
		audience:      jwt.ClaimStrings(cfg.GetAudience()),
		logger:        logger,
	}
}

// IssueAccessToken signs a short lived token embedding the identity
// attributes the API hands out with each request.
func (ts *TokenService) IssueAccessToken(identity Identity) (string, error) {
	if len(ts.accessSecret) == 0 {
		return "", ErrMissingSigningSecret
	}

	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	now := time.Now()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.claimAudience(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
		UID:         identity.ID(),
		Email:       identity.Email(),
		Username:    identity.Username(),
		DisplayName: identity.DisplayName(),
	}

	return ts.sign(claims, ts.accessSecret)
}

// IssueRefreshToken signs a longer lived token carrying only the identity id.
// The iat claim guarantees two issuances for the same identity produce
// different token strings, which the rotation check depends on.
func (ts *TokenService) IssueRefreshToken(userID string) (string, error) {
	if len(ts.refreshSecret) == 0 {
		return "", ErrMissingSigningSecret
	}

	now := time.Now()
	claims := &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			Audience:  ts.claimAudience(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
		},
		UID: userID,
	}

	return ts.sign(claims, ts.refreshSecret)
}

// ValidateAccessToken parses and validates an access token string.
func (ts *TokenService) ValidateAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.parse(raw, claims, ts.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefreshToken parses and validates a refresh token string.
func (ts *TokenService) ValidateRefreshToken(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.parse(raw, claims, ts.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (ts *TokenService) sign(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// parse distinguishes expired from malformed so callers can decide between
// prompting a re-login and rejecting outright. It never panics on untrusted
// input.
func (ts *TokenService) parse(raw string, claims jwt.Claims, secret []byte) error {
	if len(secret) == 0 {
		return ErrMissingSigningSecret
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService parse encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	if !token.Valid {
		ts.logger.Error("TokenService parse could not validate claims")
		return ErrTokenMalformed
	}

	return nil
}

func (ts *TokenService) claimAudience() jwt.ClaimStrings {
	if len(ts.audience) == 0 {
		return nil
	}

	aud := make(jwt.ClaimStrings, len(ts.audience))
	copy(aud, ts.audience)
	return aud
}
