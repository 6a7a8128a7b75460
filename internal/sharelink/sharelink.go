// Package sharelink produces the opaque share tokens handed out for
// encounter exports.
//
// A token encodes {encounterId, userId, expiresAt}, signed with HMAC-SHA256
// under a random per-token key, then truncated to a fixed length. Because
// the key is not retained and the signature is truncated, the token is an
// opaque capability, not a verifiable credential: consumers decode the
// payload and check the expiry themselves.
package sharelink

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/tablewright/encounter-api/internal/errors"
)

// TokenLength is the fixed length tokens are truncated to. It is long
// enough that truncation only ever shortens the signature, not the payload,
// for id lengths the id generator produces.
const TokenLength = 200

// Payload is the data a share token carries
type Payload struct {
	EncounterID string `json:"encounterId"`
	UserID      string `json:"userId"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// Expired reports whether the payload's expiry has passed at now
func (p *Payload) Expired(now time.Time) bool {
	return now.Unix() >= p.ExpiresAt
}

// NewToken builds a share token for the encounter, valid for ttl from now
func NewToken(encounterID, userID string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(encounterID) == "" {
		return "", errors.InvalidArgument("encounter ID is required")
	}
	if strings.TrimSpace(userID) == "" {
		return "", errors.InvalidArgument("user ID is required")
	}
	if ttl <= 0 {
		return "", errors.InvalidArgument("ttl must be positive")
	}

	payload := Payload{
		EncounterID: encounterID,
		UserID:      userID,
		ExpiresAt:   now.Add(ttl).Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode share payload")
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Wrap(err, "failed to generate token key")
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	sig := mac.Sum(nil)

	token := base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(sig)
	if len(token) > TokenLength {
		token = token[:TokenLength]
	}
	return token, nil
}

// Decode recovers the payload from a token. The truncated signature is not
// verified; callers must still check the expiry against their own clock.
func Decode(token string) (*Payload, error) {
	payloadPart, _, _ := strings.Cut(token, ".")

	data, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil, errors.InvalidFormat("share token is not valid base64")
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.InvalidFormat("share token payload is malformed")
	}
	if payload.EncounterID == "" || payload.UserID == "" || payload.ExpiresAt == 0 {
		return nil, errors.InvalidFormat("share token payload is incomplete")
	}
	return &payload, nil
}
