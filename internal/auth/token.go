package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long a session token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

const defaultIssuer = "meditrack"

// Claims is the session payload carried by a token.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Name   string

	// Set by the codec on Issue.
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and verifies session tokens. Verify returns
// ErrTokenExpired for an expired token and ErrTokenInvalid for anything else.
type TokenCodec interface {
	Issue(claims Claims, ttl time.Duration) (string, error)
	Verify(token string) (*Claims, error)
}

type codecOptions struct {
	issuer string
	now    func() time.Time
}

// CodecOption configures a TokenCodec.
type CodecOption func(*codecOptions)

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(o *codecOptions) {
		o.now = now
	}
}

// WithIssuer sets the iss claim written and required by the codec.
func WithIssuer(issuer string) CodecOption {
	return func(o *codecOptions) {
		o.issuer = issuer
	}
}

func buildCodecOptions(opts []CodecOption) codecOptions {
	o := codecOptions{issuer: defaultIssuer, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type jwtClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// JWTCodec issues HS256-signed JWTs.
type JWTCodec struct {
	secret []byte
	opts   codecOptions
}

func NewJWTCodec(secret []byte, opts ...CodecOption) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}

	return &JWTCodec{secret: secret, opts: buildCodecOptions(opts)}, nil
}

func (c *JWTCodec) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := c.opts.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID: claims.UserID.String(),
		Email:  claims.Email,
		Name:   claims.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.opts.issuer,
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Verify(tokenStr string) (*Claims, error) {
	parsed := &jwtClaims{}

	_, err := jwt.ParseWithClaims(tokenStr, parsed, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.opts.now),
		jwt.WithIssuer(c.opts.issuer),
		jwt.WithExpirationRequired(),
		// a token stays valid at its exp instant and expires after it
		jwt.WithLeeway(time.Nanosecond),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(parsed.UserID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{
		UserID:    userID,
		Email:     parsed.Email,
		Name:      parsed.Name,
		ID:        parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}

	return claims, nil
}
