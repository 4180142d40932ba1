package auth

import (
	"errors"
	"testing"
	"time"
)

func testTokenManager(accessTTL, refreshTTL time.Duration) *TokenManager {
	return NewTokenManager(TokenManagerConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Issuer:        "kleverbot-api",
		Audience:      "kleverbot-client",
	})
}

func TestGeneratePairRoundTrip(t *testing.T) {
	m := testTokenManager(time.Hour, 30*24*time.Hour)

	pair, err := m.GeneratePair(42, "alice", "alice@ex.com")
	if err != nil {
		t.Fatal(err)
	}
	if pair.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", pair.ExpiresIn)
	}

	access, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if access.UserID != 42 || access.Username != "alice" || access.Email != "alice@ex.com" {
		t.Errorf("access claims = %+v", access)
	}
	if access.Type != TokenTypeAccess {
		t.Errorf("access type = %q", access.Type)
	}

	refresh, err := m.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if refresh.Type != TokenTypeRefresh {
		t.Errorf("refresh type = %q", refresh.Type)
	}
	if refresh.ID == "" {
		t.Error("refresh token has no jti")
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m := testTokenManager(time.Hour, time.Hour)
	pair, err := m.GeneratePair(1, "bob", "bob@ex.com")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyAccess(refresh) err = %v, want ErrInvalidToken", err)
	}
	if _, err := m.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyRefresh(access) err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := testTokenManager(-time.Minute, -time.Minute)
	pair, err := m.GeneratePair(1, "bob", "bob@ex.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired access token err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyLeewayAcceptsSkewedToken(t *testing.T) {
	skewed := NewTokenManager(TokenManagerConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     -30 * time.Second,
		RefreshTTL:    time.Hour,
		Issuer:        "kleverbot-api",
		Audience:      "kleverbot-client",
		Leeway:        2 * time.Minute,
	})
	pair, err := skewed.GeneratePair(1, "bob", "bob@ex.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := skewed.VerifyAccess(pair.AccessToken); err != nil {
		t.Errorf("token inside leeway window rejected: %v", err)
	}
}

func TestVerifyRejectsForeignIssuerAndSignature(t *testing.T) {
	m := testTokenManager(time.Hour, time.Hour)
	pair, err := m.GeneratePair(1, "bob", "bob@ex.com")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		mgr  *TokenManager
	}{
		{"different secret", NewTokenManager(TokenManagerConfig{
			AccessSecret:  []byte("some-other-secret"),
			RefreshSecret: []byte("some-other-secret"),
			AccessTTL:     time.Hour,
			RefreshTTL:    time.Hour,
			Issuer:        "kleverbot-api",
			Audience:      "kleverbot-client",
		})},
		{"different issuer", NewTokenManager(TokenManagerConfig{
			AccessSecret:  []byte("access-secret-for-tests"),
			RefreshSecret: []byte("refresh-secret-for-tests"),
			AccessTTL:     time.Hour,
			RefreshTTL:    time.Hour,
			Issuer:        "someone-else",
			Audience:      "kleverbot-client",
		})},
		{"different audience", NewTokenManager(TokenManagerConfig{
			AccessSecret:  []byte("access-secret-for-tests"),
			RefreshSecret: []byte("refresh-secret-for-tests"),
			AccessTTL:     time.Hour,
			RefreshTTL:    time.Hour,
			Issuer:        "kleverbot-api",
			Audience:      "another-client",
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.mgr.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := testTokenManager(time.Hour, time.Hour)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.VerifyAccess(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyAccess(%q) err = %v, want ErrInvalidToken", tok, err)
		}
	}
}
