package sharelink_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/sharelink"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestNewToken_RoundTrip(t *testing.T) {
	token, err := sharelink.NewToken("enc_123", "user_456", time.Hour, now)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(token), sharelink.TokenLength)

	payload, err := sharelink.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "enc_123", payload.EncounterID)
	assert.Equal(t, "user_456", payload.UserID)
	assert.Equal(t, now.Add(time.Hour).Unix(), payload.ExpiresAt)
}

func TestToken_ExpiryCheckedByConsumer(t *testing.T) {
	token, err := sharelink.NewToken("enc_123", "user_456", time.Hour, now)
	require.NoError(t, err)

	payload, err := sharelink.Decode(token)
	require.NoError(t, err)

	assert.False(t, payload.Expired(now.Add(30*time.Minute)))
	assert.True(t, payload.Expired(now.Add(2*time.Hour)))
}

func TestNewToken_UniquePerIssue(t *testing.T) {
	// the per-token random key makes each signature distinct
	a, err := sharelink.NewToken("enc_123", "user_456", time.Hour, now)
	require.NoError(t, err)
	b, err := sharelink.NewToken("enc_123", "user_456", time.Hour, now)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNewToken_Validation(t *testing.T) {
	_, err := sharelink.NewToken("", "user", time.Hour, now)
	assert.Error(t, err)

	_, err = sharelink.NewToken("enc", " ", time.Hour, now)
	assert.Error(t, err)

	_, err = sharelink.NewToken("enc", "user", -time.Minute, now)
	assert.Error(t, err)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := sharelink.Decode("!!!not-base64!!!")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidFormat, errors.GetCode(err))

	_, err = sharelink.Decode(strings.Repeat("A", 20) + ".sig")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidFormat, errors.GetCode(err))
}
