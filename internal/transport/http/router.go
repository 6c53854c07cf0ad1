package http

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storifal/storifal/internal/httpx"
	obsmw "github.com/storifal/storifal/internal/observability/middleware"
	"github.com/storifal/storifal/internal/service"
)

const welcome = "Welcome to the server of Storifal"

type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig, auth service.AuthService, contacts service.ContactService, tokens service.TokenService) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	// Browsers refuse credentials alongside a wildcard origin.
	allowCredentials := !slices.Contains(cfg.CORSOrigins, "*")

	h := &handler{auth: auth, contacts: contacts, logger: cfg.Logger}
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(obsmw.WithRequestAndTrace(cfg.Logger))
	r.Use(obsmw.WithMetrics)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "X-Trace-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusNotFound, "Route not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(welcome))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Get("/verify-email", h.verifyEmail)
			r.Post("/check-email", h.checkEmail)
			r.Post("/login", h.login)

			r.Group(func(pr chi.Router) {
				pr.Use(BearerAuth(tokens, cfg.Logger))
				pr.Get("/me", h.me)
			})
		})
		r.Post("/contact", h.submitContact)
	})

	return r
}
