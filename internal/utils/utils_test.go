package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"15m", 900000},
		{"7d", 604800000},
		{"30s", 30000},
		{"2h", 7200000},
		{"0m", 0},
		{"", 0},
		{"bogus", 0},
		{"1h30m", 0},
		{"15", 0},
		{"-5m", 0},
		{"5w", 0},
		{"106751d", 9223286400000},
		{"106752d", 0},
		{"106751991167d", 0},
		{"200000000000000d", 0},
		{"9223372036854775807s", 0},
		{"99999999999999999999s", 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDuration(tc.in))
		})
	}
	assert.Equal(t, 15*time.Minute, Millis(ParseDuration("15m")))
	assert.Positive(t, Millis(ParseDuration("106751d")))
}

func TestSignAndParseToken(t *testing.T) {
	now := time.Now()
	st, err := SignToken("secret", 42, "admin", time.Minute, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Minute), st.Exp, time.Second)

	claims, err := ParseToken("secret", st.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.PrincipalID)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID)

	_, err = ParseToken("other", st.Token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)

	_, err = ParseToken("secret", "not-a-jwt")
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	st, err := SignToken("secret", 1, "user", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseToken("secret", st.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokensMintedTogetherDiffer(t *testing.T) {
	now := time.Now()
	a, err := SignToken("secret", 7, "user", time.Hour, now)
	require.NoError(t, err)
	b, err := SignToken("secret", 7, "user", time.Hour, now)
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, HashToken(a.Token), HashToken(b.Token))
	assert.Len(t, HashToken(a.Token), 64)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret!"))
	assert.False(t, VerifyPassword(hash, "S3cret!"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret!"))
	assert.False(t, VerifyPassword("", ""))

	_, err = HashPassword(strings.Repeat("x", MaxPasswordBytes+1), 4)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNormalizePhone(t *testing.T) {
	want := Phone{National: "07701234567", International: "9647701234567"}
	for _, raw := range []string{"07701234567", "+9647701234567", "009647701234567", " 0770 123 4567 "} {
		t.Run(raw, func(t *testing.T) {
			got, err := NormalizePhone(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	for _, raw := range []string{"", "12", "abc", "+14155550123"} {
		t.Run("invalid "+raw, func(t *testing.T) {
			_, err := NormalizePhone(raw)
			assert.ErrorIs(t, err, ErrInvalidPhone)
		})
	}
}
