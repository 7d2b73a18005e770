package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const downloadTokenIssuer = "auto-photo-saver"

const DefaultDownloadTokenTTL = 15 * time.Minute

var ErrInvalidDownloadToken = errors.New("invalid download token")

type DownloadTokens interface {
	CreateToken(artifactName string) (string, error)
	VerifyToken(token, artifactName string) error
}

// DownloadTokenSigner issues short lived HS256 tokens bound to one stored
// photo.
type DownloadTokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewDownloadTokenSigner(secret []byte, ttl time.Duration) (*DownloadTokenSigner, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("download token secret must be at least 32 bytes, got %d", len(secret))
	}
	if ttl <= 0 {
		ttl = DefaultDownloadTokenTTL
	}
	return &DownloadTokenSigner{secret: secret, ttl: ttl, now: time.Now}, nil
}

// loadDownloadTokenSecret reads the secret from path, or generates a random
// one when no path is configured. Generated secrets do not survive a
// restart.
func loadDownloadTokenSecret(path string) ([]byte, error) {
	if path == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate download token secret: %w", err)
		}
		return secret, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read download token secret: %w", err)
	}
	return []byte(strings.TrimSpace(string(b))), nil
}

func (s *DownloadTokenSigner) CreateToken(artifactName string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    downloadTokenIssuer,
		Subject:   artifactName,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *DownloadTokenSigner) VerifyToken(token, artifactName string) error {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDownloadToken, err)
	}
	if claims.Issuer != downloadTokenIssuer || claims.Subject != artifactName {
		return fmt.Errorf("%w: token is not valid for %s", ErrInvalidDownloadToken, artifactName)
	}
	return nil
}
