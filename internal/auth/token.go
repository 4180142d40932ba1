package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type claim values.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried by both token kinds. Type distinguishes access from
// refresh; refresh tokens additionally get a unique jti (RegisteredClaims.ID).
type Claims struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManagerConfig feeds NewTokenManager. Leeway is the explicit clock
// skew tolerance applied on verification; zero unless configured.
type TokenManagerConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// TokenManager mints and validates HS256 access and refresh tokens signed
// with independent secrets.
type TokenManager struct {
	cfg TokenManagerConfig
}

func NewTokenManager(cfg TokenManagerConfig) *TokenManager {
	return &TokenManager{cfg: cfg}
}

// AccessTTL exposes the nominal access-token lifetime (for expiresIn).
func (m *TokenManager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// TokenPair bundles one issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// GeneratePair signs an access and a refresh token for the identity.
func (m *TokenManager) GeneratePair(userID uint, username, email string) (*TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		Type:     TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Audience:  []string{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTTL)),
		},
	})
	signedAccess, err := access.SignedString(m.cfg.AccessSecret)
	if err != nil {
		return nil, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:   userID,
		Username: username,
		Type:     TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Audience:  []string{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.RefreshTTL)),
			ID:        uuid.NewString(),
		},
	})
	signedRefresh, err := refresh.SignedString(m.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  signedAccess,
		RefreshToken: signedRefresh,
		ExpiresIn:    int(m.cfg.AccessTTL.Seconds()),
	}, nil
}

// VerifyAccess validates an access token. Every failure mode collapses into
// ErrInvalidToken so callers cannot tell which check rejected the token.
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, m.cfg.AccessSecret, TokenTypeAccess)
}

// VerifyRefresh validates a refresh token; same uniform failure as VerifyAccess.
func (m *TokenManager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, m.cfg.RefreshSecret, TokenTypeRefresh)
}

func (m *TokenManager) verify(token string, secret []byte, wantType string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.cfg.Leeway),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
