package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/careplace/chat-service/internal/security"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

type Verifier interface {
	Verify(token string) (*security.Identity, error)
}

// AuthMiddleware — Bearer-токен обязателен; id и роль берутся из токена,
// заголовкам вида X-User-ID здесь не доверяем.
func AuthMiddleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			ident, err := v.Verify(strings.TrimSpace(auth[7:]))
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// WithIdentity кладёт identity в контекст (используется и в тестах хендлеров).
func WithIdentity(ctx context.Context, ident *security.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, ident)
}

func IdentityFromCtx(ctx context.Context) *security.Identity {
	if v := ctx.Value(ctxKeyIdentity); v != nil {
		if ident, ok := v.(*security.Identity); ok {
			return ident
		}
	}
	return nil
}
