package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/config"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	"github.com/shiplogix/logistics-backend/pkg/types"
)

// clockSkew tolerates small drift between the identity service and this API.
const clockSkew = 30 * time.Second

var (
	signingMethod    = jwt.SigningMethodHS256
	errSecretMissing = errors.New("jwt secret is required")
)

// AccessTokenPayload is the identity to encode when minting.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.MemberRole
	JTI    string
}

// AccessTokenClaims is the verified token body.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"user_id"`
	Role   enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the caller identity used by services.
func (c *AccessTokenClaims) Actor() *types.Actor {
	if c == nil {
		return nil
	}
	return &types.Actor{UserID: c.UserID, Role: c.Role}
}

func (c *AccessTokenClaims) checkIdentity() error {
	if !c.Role.IsValid() || c.Role == enums.MemberRoleSystem {
		return fmt.Errorf("role %q cannot be carried by a token", c.Role)
	}
	if c.UserID == uuid.Nil {
		return errors.New("user_id claim is required")
	}
	return nil
}

// Verifier checks HS256 tokens issued by the configured issuer.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(cfg config.JWTConfig) *Verifier {
	return &Verifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// Verify returns the claims of a valid token.
func (v *Verifier) Verify(token string) (*AccessTokenClaims, error) {
	if len(v.secret) == 0 {
		return nil, errSecretMissing
	}
	claims := &AccessTokenClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return nil, err
	}
	if err := claims.checkIdentity(); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseAccessToken is a one-shot Verify.
func ParseAccessToken(cfg config.JWTConfig, token string) (*AccessTokenClaims, error) {
	return NewVerifier(cfg).Verify(token)
}

// MintAccessToken signs a token valid for cfg.ExpirationMinutes from now.
// Real tokens come from the identity service; tooling and tests mint here.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errSecretMissing
	case cfg.Issuer == "":
		return "", errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return "", errors.New("jwt expiration minutes must be positive")
	}
	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
			ID:        strings.TrimSpace(payload.JTI),
		},
	}
	if err := claims.checkIdentity(); err != nil {
		return "", err
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>"
// value. The scheme is matched case-insensitively.
func ParseBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
