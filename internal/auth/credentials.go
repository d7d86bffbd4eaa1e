// ABOUTME: Bearer token loading and JWT identity claim extraction
// ABOUTME: Token comes from FAMILIAR_TOKEN or the XDG config directory

package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential errors
var (
	ErrNoToken      = errors.New("no token configured")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// tokenEnvVar overrides the token file when set.
const tokenEnvVar = "FAMILIAR_TOKEN"

// Identity is what the token says about the user.
type Identity struct {
	UserID    string
	Workspace string
	ExpiresAt time.Time
}

// TokenPath returns the default token file location, honoring XDG_CONFIG_HOME.
func TokenPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "familiar", "token"), nil
}

// LoadToken returns the bearer token from the environment or the token file
// at path. An empty path means the default location.
func LoadToken(path string) (string, error) {
	if token := os.Getenv(tokenEnvVar); token != "" {
		return token, nil
	}

	if path == "" {
		var err error
		path, err = TokenPath()
		if err != nil {
			return "", err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// SaveToken writes the token to path (default location when empty), creating
// parent directories. The file is user-readable only.
func SaveToken(path, token string) error {
	if path == "" {
		var err error
		path, err = TokenPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// ClearToken removes the token file. Missing files are not an error; the
// goal state is "no stored credential" either way.
func ClearToken(path string) error {
	if path == "" {
		var err error
		path, err = TokenPath()
		if err != nil {
			return err
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// ParseIdentity extracts identity claims from the token without verifying
// the signature. Returns ErrExpiredToken when the exp claim has passed.
func ParseIdentity(tokenString string) (Identity, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Identity{}, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	id := Identity{UserID: sub}
	if ws, ok := claims["workspace"].(string); ok {
		id.Workspace = ws
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
		if time.Now().After(exp.Time) {
			return id, ErrExpiredToken
		}
	}
	return id, nil
}

// MintDevToken creates an HS256 token for local development against a
// gateway configured with a shared secret.
func MintDevToken(secret []byte, userID, workspace string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if workspace != "" {
		claims["workspace"] = workspace
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
