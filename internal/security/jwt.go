package security

import (
	"crypto/rsa"
	"time"

	"github.com/careplace/chat-service/internal/domain"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// TokenVerifier проверяет access-токены, выпущенные auth-сервисом платформы.
// Используется SigningMethodRS256; этот сервис токены не подписывает.
type TokenVerifier struct {
	public    *rsa.PublicKey
	issuer    string
	audience  string
	clockSkew time.Duration
}

func NewTokenVerifier(public *rsa.PublicKey, issuer, audience string, clockSkew time.Duration) *TokenVerifier {
	return &TokenVerifier{
		public:    public,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}
}

type AccessClaims struct {
	jwt.StandardClaims
	Role string `json:"role,omitempty"`
}

// Identity — результат резолва bearer-токена.
type Identity struct {
	UserID string
	Role   domain.Role
}

func (v *TokenVerifier) Verify(tokenStr string) (*Identity, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok || t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, domain.ErrUnauthenticated
		}
		return v.public, nil
	})
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	if !token.Valid {
		return nil, domain.ErrUnauthenticated
	}

	if !claims.VerifyIssuer(v.issuer, true) {
		return nil, domain.ErrUnauthenticated
	}
	if !claims.VerifyAudience(v.audience, true) {
		return nil, domain.ErrUnauthenticated
	}

	// временные клеймы с допуском clockSkew
	now := time.Now()
	nbf := time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)
	exp := time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)
	if now.Before(nbf) || now.After(exp) {
		return nil, domain.ErrUnauthenticated
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleClient, domain.RoleWorker, domain.RoleAdmin:
	default:
		return nil, domain.ErrUnauthenticated
	}

	return &Identity{UserID: uid.String(), Role: role}, nil
}
