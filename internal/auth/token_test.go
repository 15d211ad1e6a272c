package auth

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCodecs(t *testing.T, clock *fakeClock) map[string]TokenCodec {
	t.Helper()

	jwtCodec, err := NewJWTCodec(testSecret, WithClock(clock.Now))
	require.NoError(t, err)
	pasetoCodec, err := NewPasetoCodec(testSecret, WithClock(clock.Now))
	require.NoError(t, err)

	return map[string]TokenCodec{
		"jwt":    jwtCodec,
		"paseto": pasetoCodec,
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	clock := newFakeClock()

	for name, codec := range newCodecs(t, clock) {
		t.Run(name, func(t *testing.T) {
			in := Claims{UserID: uuid.New(), Email: "a@x.com", Name: "Ana"}

			token, err := codec.Issue(in, DefaultTokenTTL)
			require.NoError(t, err)

			out, err := codec.Verify(token)
			require.NoError(t, err)

			assert.Equal(t, in.UserID, out.UserID)
			assert.Equal(t, in.Email, out.Email)
			assert.Equal(t, in.Name, out.Name)
			assert.NotEmpty(t, out.ID)
			assert.True(t, clock.Now().Equal(out.IssuedAt))
			assert.True(t, clock.Now().Add(DefaultTokenTTL).Equal(out.ExpiresAt))
		})
	}
}

func TestTokenCodec_UniquePerIssue(t *testing.T) {
	clock := newFakeClock()

	for name, codec := range newCodecs(t, clock) {
		t.Run(name, func(t *testing.T) {
			in := Claims{UserID: uuid.New(), Email: "a@x.com", Name: "Ana"}

			first, err := codec.Issue(in, time.Hour)
			require.NoError(t, err)
			second, err := codec.Issue(in, time.Hour)
			require.NoError(t, err)

			assert.NotEqual(t, first, second)
		})
	}
}

func TestTokenCodec_Expiry(t *testing.T) {
	for _, name := range []string{"jwt", "paseto"} {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			codec := newCodecs(t, clock)[name]

			token, err := codec.Issue(Claims{UserID: uuid.New(), Email: "a@x.com", Name: "Ana"}, time.Hour)
			require.NoError(t, err)

			clock.Advance(time.Hour)
			_, err = codec.Verify(token)
			require.NoError(t, err, "still valid at exactly exp")

			clock.Advance(time.Second)
			_, err = codec.Verify(token)
			assert.ErrorIs(t, err, ErrTokenExpired)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestJWTCodec_TamperedTokenRejected(t *testing.T) {
	clock := newFakeClock()
	codec := newCodecs(t, clock)["jwt"]

	token, err := codec.Issue(Claims{UserID: uuid.New(), Email: "a@x.com", Name: "Ana"}, time.Hour)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		b := []byte(token)
		b[i] ^= 0x01
		_, err := codec.Verify(string(b))
		assert.ErrorIs(t, err, ErrTokenInvalid, "flipped byte %d", i)
	}
}

func TestPasetoCodec_TamperedTokenRejected(t *testing.T) {
	clock := newFakeClock()
	codec := newCodecs(t, clock)["paseto"]

	token, err := codec.Issue(Claims{UserID: uuid.New(), Email: "a@x.com", Name: "Ana"}, time.Hour)
	require.NoError(t, err)

	// skip the trailing character, whose low bits may be base64 padding
	start := len("v4.local.")
	for i := start; i < len(token)-1; i += 7 {
		b := []byte(token)
		b[i] ^= 0x01
		_, err := codec.Verify(string(b))
		assert.ErrorIs(t, err, ErrTokenInvalid, "flipped byte %d", i)
	}
}

func TestTokenCodec_WrongKeyRejected(t *testing.T) {
	clock := newFakeClock()
	otherKey := []byte(strings.Repeat("k", 32))

	otherJWT, err := NewJWTCodec(otherKey, WithClock(clock.Now))
	require.NoError(t, err)
	otherPaseto, err := NewPasetoCodec(otherKey, WithClock(clock.Now))
	require.NoError(t, err)
	others := map[string]TokenCodec{"jwt": otherJWT, "paseto": otherPaseto}

	for name, codec := range newCodecs(t, clock) {
		t.Run(name, func(t *testing.T) {
			token, err := codec.Issue(Claims{UserID: uuid.New(), Email: "a@x.com", Name: "Ana"}, time.Hour)
			require.NoError(t, err)

			_, err = others[name].Verify(token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestTokenCodec_WrongIssuerRejected(t *testing.T) {
	clock := newFakeClock()

	issuerJWT, err := NewJWTCodec(testSecret, WithClock(clock.Now), WithIssuer("someone-else"))
	require.NoError(t, err)
	issuerPaseto, err := NewPasetoCodec(testSecret, WithClock(clock.Now), WithIssuer("someone-else"))
	require.NoError(t, err)
	issuers := map[string]TokenCodec{"jwt": issuerJWT, "paseto": issuerPaseto}

	for name, codec := range newCodecs(t, clock) {
		t.Run(name, func(t *testing.T) {
			token, err := issuers[name].Issue(Claims{UserID: uuid.New(), Email: "a@x.com", Name: "Ana"}, time.Hour)
			require.NoError(t, err)

			_, err = codec.Verify(token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestTokenCodec_Garbage(t *testing.T) {
	clock := newFakeClock()

	for name, codec := range newCodecs(t, clock) {
		t.Run(name, func(t *testing.T) {
			for _, token := range []string{"", "not-a-token", "a.b.c", "v4.local.AAAA"} {
				_, err := codec.Verify(token)
				assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
			}
		})
	}
}

func TestJWTCodec_RejectsOtherAlgorithms(t *testing.T) {
	clock := newFakeClock()
	codec, err := NewJWTCodec(testSecret, WithClock(clock.Now))
	require.NoError(t, err)

	claims := jwtClaims{
		UserID: uuid.NewString(),
		Email:  "a@x.com",
		Name:   "Ana",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuer,
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = codec.Verify(hs512)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Verify(none)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTCodec_RequiresExpiry(t *testing.T) {
	codec, err := NewJWTCodec(testSecret)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID:           uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: defaultIssuer},
	}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewCodec_KeyValidation(t *testing.T) {
	_, err := NewJWTCodec(nil)
	assert.Error(t, err)

	_, err = NewPasetoCodec([]byte("too-short"))
	assert.Error(t, err)
}
