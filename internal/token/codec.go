package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/GeonSoon1/moonshot-myself/internal/config"
	"github.com/GeonSoon1/moonshot-myself/internal/domain"
)

// Kind discriminates the two token flavors. Each kind is signed with its own
// secret, so an access token can never pass as a refresh token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Codec signs and verifies bearer tokens. It is stateless: verification never
// consults the session store.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec builds a codec from the injected configuration.
func NewCodec(cfg config.Config) *Codec {
	return &Codec{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

type useClaims struct {
	TokenUse string `json:"token_use"`
}

// Sign produces a signed JWT for the user with an expiry derived from kind.
func (c *Codec) Sign(userID int64, kind Kind) (string, error) {
	secret, ttl, err := c.keyFor(kind)
	if err != nil {
		return "", err
	}

	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		Subject:  strconv.FormatInt(userID, 10),
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(ttl)),
	}

	raw, err := gojwt.Signed(signer).Claims(std).Claims(useClaims{TokenUse: string(kind)}).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return raw, nil
}

// Verify parses and verifies a token, returning its subject and kind.
// Failures collapse to domain.ErrTokenMalformed (unparseable or bad
// signature) or domain.ErrTokenExpired (valid signature, expiry passed).
func (c *Codec) Verify(raw string) (int64, Kind, error) {
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return 0, "", domain.ErrTokenMalformed
	}

	for _, candidate := range []struct {
		kind   Kind
		secret []byte
	}{
		{KindAccess, c.accessSecret},
		{KindRefresh, c.refreshSecret},
	} {
		var std gojwt.Claims
		var use useClaims
		if err := parsed.Claims(candidate.secret, &std, &use); err != nil {
			continue
		}
		// The secret that verified must agree with the embedded kind.
		if Kind(use.TokenUse) != candidate.kind {
			return 0, "", domain.ErrTokenMalformed
		}
		if err := std.Validate(gojwt.Expected{Time: time.Now().UTC()}); err != nil {
			if errors.Is(err, gojwt.ErrExpired) {
				return 0, "", domain.ErrTokenExpired
			}
			return 0, "", domain.ErrTokenMalformed
		}
		userID, err := strconv.ParseInt(std.Subject, 10, 64)
		if err != nil {
			return 0, "", domain.ErrTokenMalformed
		}
		return userID, candidate.kind, nil
	}

	return 0, "", domain.ErrTokenMalformed
}

func (c *Codec) keyFor(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case KindAccess:
		return c.accessSecret, c.accessTTL, nil
	case KindRefresh:
		return c.refreshSecret, c.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
