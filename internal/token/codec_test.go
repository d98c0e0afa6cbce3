package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GeonSoon1/moonshot-myself/internal/config"
	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/token"
)

func testConfig() config.Config {
	return config.Config{
		AccessTokenSecret:  "access-secret-for-tests-01234567",
		RefreshTokenSecret: "refresh-secret-for-tests-0123456",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    7 * 24 * time.Hour,
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := token.NewCodec(testConfig())

	for _, kind := range []token.Kind{token.KindAccess, token.KindRefresh} {
		raw, err := codec.Sign(42, kind)
		require.NoError(t, err)

		userID, got, err := codec.Verify(raw)
		require.NoError(t, err)
		require.Equal(t, int64(42), userID)
		require.Equal(t, kind, got)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := token.NewCodec(testConfig())

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, _, err := codec.Verify(raw)
		require.ErrorIs(t, err, domain.ErrTokenMalformed)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	codec := token.NewCodec(testConfig())

	other := testConfig()
	other.AccessTokenSecret = "some-other-access-secret-0123456"
	other.RefreshTokenSecret = "some-other-refresh-secret-012345"
	foreign := token.NewCodec(other)

	raw, err := foreign.Sign(7, token.KindAccess)
	require.NoError(t, err)

	_, _, err = codec.Verify(raw)
	require.ErrorIs(t, err, domain.ErrTokenMalformed)
}

func TestVerifyReportsExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	codec := token.NewCodec(cfg)

	raw, err := codec.Sign(7, token.KindAccess)
	require.NoError(t, err)

	_, _, err = codec.Verify(raw)
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestKindsDoNotCross(t *testing.T) {
	// A token signed with the refresh secret but claiming to be an access
	// token must not verify.
	cfg := testConfig()
	swapped := cfg
	swapped.AccessTokenSecret, swapped.RefreshTokenSecret = cfg.RefreshTokenSecret, cfg.AccessTokenSecret

	codec := token.NewCodec(cfg)
	forger := token.NewCodec(swapped)

	raw, err := forger.Sign(7, token.KindAccess)
	require.NoError(t, err)

	_, _, err = codec.Verify(raw)
	require.ErrorIs(t, err, domain.ErrTokenMalformed)
}
