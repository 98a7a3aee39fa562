package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/moto-league/ranking-engine/config"
)

type contextKey string

const tenantKey contextKey = "tenant_id"

type apiClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// TenantFromContext returns the tenant resolved by the auth middleware, or
// the default tenant when the request carried no tenant claim.
func TenantFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(tenantKey).(uuid.UUID); ok {
		return id
	}
	return config.DefaultTenantID
}

// Auth verifies the bearer token and stores the tenant on the request
// context. An empty secret disables verification entirely; every request then
// runs under the default tenant.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			tokenStr := strings.TrimPrefix(header, "Bearer ")

			tok, err := jwt.ParseWithClaims(tokenStr, &apiClaims{}, func(token *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			cl, ok := tok.Claims.(*apiClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid claims")
				return
			}

			tenantID := config.DefaultTenantID
			if cl.TenantID != "" {
				parsed, err := uuid.Parse(cl.TenantID)
				if err != nil {
					writeError(w, http.StatusUnauthorized, "invalid tenant claim")
					return
				}
				tenantID = parsed
			}

			ctx := context.WithValue(r.Context(), tenantKey, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit applies a per-client token bucket keyed by remote IP. A
// non-positive rate disables limiting.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	if burst < 1 {
		burst = 1
	}

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(rate.Limit(perSecond), burst)
			limiters[key] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		if perSecond <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !limiterFor(host).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
