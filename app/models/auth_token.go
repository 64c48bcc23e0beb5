package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"strings"
	"time"
)

const authTokenPrefix = "lmy_"

var authTokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// AuthToken is a bearer token issued at login. Only the SHA-256 hash is stored;
// the raw token is returned to the client exactly once.
type AuthToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	TokenHash  string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Prefix     string     `gorm:"type:varchar(16);not null" json:"prefix"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	LastUsedAt *time.Time `gorm:"type:timestamp;default:null" json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// IsExpired reports whether the token is past its expiry.
func (t *AuthToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// HashToken returns the SHA-256 hash for the provided raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

// NewAuthToken generates a fresh token for the user and returns the raw value
// alongside the persistable record.
func NewAuthToken(userID uint, ttl time.Duration) (string, *AuthToken, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", nil, err
	}
	raw := authTokenPrefix + strings.ToLower(authTokenEncoding.EncodeToString(b))
	prefix := raw[:minInt(len(raw), 16)]

	return raw, &AuthToken{
		UserID:    userID,
		TokenHash: HashToken(raw),
		Prefix:    prefix,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
