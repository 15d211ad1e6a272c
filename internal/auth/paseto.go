package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoCodec issues PASETO v4.local tokens (XChaCha20-Poly1305 with a
// 32-byte symmetric key). It carries the same claims as JWTCodec.
type PasetoCodec struct {
	key  paseto.V4SymmetricKey
	opts codecOptions
}

func NewPasetoCodec(symmetricKey []byte, opts ...CodecOption) (*PasetoCodec, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoCodec{key: key, opts: buildCodecOptions(opts)}, nil
}

func (c *PasetoCodec) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := c.opts.now()

	token := paseto.NewToken()
	token.SetJti(uuid.NewString())
	token.SetIssuer(c.opts.issuer)
	token.SetSubject(claims.UserID.String())
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(ttl))
	token.SetString("userId", claims.UserID.String())
	token.SetString("email", claims.Email)
	token.SetString("name", claims.Name)

	return token.V4Encrypt(c.key, nil), nil
}

func (c *PasetoCodec) Verify(tokenStr string) (*Claims, error) {
	// expiry is checked below against the codec clock
	parser := paseto.MakeParser(nil)

	token, err := parser.ParseV4Local(c.key, tokenStr, nil)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if iss, err := token.GetIssuer(); err != nil || iss != c.opts.issuer {
		return nil, ErrTokenInvalid
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if c.opts.now().After(expiresAt) {
		return nil, ErrTokenExpired
	}

	rawID, err := token.GetString("userId")
	if err != nil {
		return nil, ErrTokenInvalid
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	email, err := token.GetString("email")
	if err != nil {
		return nil, ErrTokenInvalid
	}
	name, err := token.GetString("name")
	if err != nil {
		return nil, ErrTokenInvalid
	}
	jti, err := token.GetJti()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &Claims{
		UserID:    userID,
		Email:     email,
		Name:      name,
		ID:        jti,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
