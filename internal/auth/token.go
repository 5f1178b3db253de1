package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionSaveContentGroup is the form action edit-screen tokens are bound to.
const ActionSaveContentGroup = "save-content-group"

// Claims identify a signed-in user on the admin surface and on page views.
type Claims struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
	Role string `json:"role"`
	JTI  string `json:"jti"`
	Exp  int64  `json:"exp"`
}

// NonceClaims bind an edit-form token to one action, document and actor.
type NonceClaims struct {
	Action     string `json:"act"`
	DocumentID string `json:"doc"`
	Sub        string `json:"sub"`
	JTI        string `json:"jti"`
	Exp        int64  `json:"exp"`
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

func IssueToken(secret []byte, claims Claims) (string, error) {
	return issue(secret, claims)
}

func ParseToken(secret []byte, token string) (Claims, error) {
	var claims Claims
	if err := parse(secret, token, &claims); err != nil {
		return Claims{}, err
	}
	if claims.Sub == "" || claims.Name == "" || claims.JTI == "" || claims.Exp == 0 {
		return Claims{}, ErrInvalidToken
	}
	if time.Now().Unix() >= claims.Exp {
		return Claims{}, ErrExpiredToken
	}
	return claims, nil
}

// IssueNonce signs a token for action on documentID by subject, valid for ttl.
// The returned claims carry the generated JTI.
func IssueNonce(secret []byte, action, documentID, subject string, ttl time.Duration) (string, NonceClaims, error) {
	claims := NonceClaims{
		Action:     action,
		DocumentID: documentID,
		Sub:        subject,
		JTI:        uuid.NewString(),
		Exp:        time.Now().Add(ttl).Unix(),
	}
	token, err := issue(secret, claims)
	if err != nil {
		return "", NonceClaims{}, err
	}
	return token, claims, nil
}

// ParseNonce verifies the signature and expiry of token and checks that it was
// issued for the same action, document and subject.
func ParseNonce(secret []byte, token, action, documentID, subject string) (NonceClaims, error) {
	var claims NonceClaims
	if err := parse(secret, token, &claims); err != nil {
		return NonceClaims{}, err
	}
	if claims.JTI == "" || claims.Exp == 0 {
		return NonceClaims{}, ErrInvalidToken
	}
	if claims.Action != action || claims.DocumentID != documentID || claims.Sub != subject {
		return NonceClaims{}, ErrInvalidToken
	}
	if time.Now().Unix() >= claims.Exp {
		return NonceClaims{}, ErrExpiredToken
	}
	return claims, nil
}

func issue(secret []byte, claims any) (string, error) {
	payloadBytes, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	signature := sign(secret, payload)
	return payload + "." + signature, nil
}

func parse(secret []byte, token string, target any) error {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 2 {
		return ErrInvalidToken
	}
	payload := parts[0]
	signature := parts[1]

	expected := sign(secret, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return ErrInvalidToken
	}
	if err := json.Unmarshal(decoded, target); err != nil {
		return ErrInvalidToken
	}
	return nil
}

func sign(secret []byte, payload string) string {
	sum := hmac.New(sha256.New, secret)
	_, _ = sum.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(sum.Sum(nil))
}
