package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/httpx"
	"github.com/storifal/storifal/internal/observability/metrics"
	obsmw "github.com/storifal/storifal/internal/observability/middleware"
	"github.com/storifal/storifal/internal/service"
)

const msgNotAuthorized = "Not authorized."

type principalKey struct{}

func contextWithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*domain.Principal)
	return p, ok && p != nil
}

// BearerAuth admits requests carrying a valid access token in the
// Authorization header and stores its principal in the request context.
func BearerAuth(tokens service.TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := "failure"
			defer func() {
				metrics.BearerAuthTotal.WithLabelValues(result).Inc()
			}()
			attrs := obsmw.LogAttrs(r.Context())

			raw := r.Header.Get("Authorization")
			scheme, tok, found := strings.Cut(raw, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
				logger.Warn("bearer auth missing token", attrs...)
				httpx.WriteMessage(w, http.StatusUnauthorized, msgNotAuthorized)
				return
			}

			p, err := tokens.ParseAccess(strings.TrimSpace(tok))
			if err != nil {
				logger.Warn("bearer auth invalid token", append(attrs, "error", err)...)
				httpx.WriteMessage(w, http.StatusUnauthorized, msgNotAuthorized)
				return
			}

			result = "success"
			next.ServeHTTP(w, r.WithContext(contextWithPrincipal(r.Context(), p)))
		})
	}
}
