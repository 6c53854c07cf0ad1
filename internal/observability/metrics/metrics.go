package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	EmailVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_email_verifications_total",
			Help: "Total number of email verification attempts.",
		},
		[]string{"result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of signed tokens.",
		},
		[]string{"kind", "result"},
	)

	BearerAuthTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_bearer_checks_total",
			Help: "Total number of bearer token checks on protected routes.",
		},
		[]string{"result"},
	)

	VerificationEmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_verification_emails_total",
			Help: "Total number of verification email dispatch attempts.",
		},
		[]string{"result"},
	)

	ContactSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of contact form submissions.",
		},
		[]string{"result"},
	)
)

// MustRegister registers every collector on reg, labelled with the service name.
func MustRegister(reg prometheus.Registerer, serviceName string) {
	prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, reg).MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AuthRegistrationsTotal,
		AuthLoginsTotal,
		EmailVerificationsTotal,
		TokensIssuedTotal,
		BearerAuthTotal,
		VerificationEmailsTotal,
		ContactSubmissionsTotal,
	)
}
