package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/storifal/storifal/internal/observability/logging"
	"github.com/storifal/storifal/internal/observability/metrics"
	"github.com/storifal/storifal/internal/observability/middleware"
	"github.com/storifal/storifal/internal/service"
)

// AsyncNotifier sends verification mail off the request path. Each dispatch
// is a single attempt on a context detached from the caller's cancellation
// and bounded by timeout.
type AsyncNotifier struct {
	email   service.EmailService
	timeout time.Duration
	logger  *slog.Logger

	wg sync.WaitGroup
}

func NewAsyncNotifier(email service.EmailService, timeout time.Duration, logger *slog.Logger) *AsyncNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AsyncNotifier{email: email, timeout: timeout, logger: logger}
}

func (n *AsyncNotifier) Dispatch(ctx context.Context, to string, token string) {
	attrs := middleware.LogAttrs(ctx)
	base := context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		sendCtx, cancel := context.WithTimeout(base, n.timeout)
		defer cancel()

		if err := n.email.SendVerification(sendCtx, to, token); err != nil {
			metrics.VerificationEmailsTotal.WithLabelValues("failure").Inc()
			logging.LogError(n.logger, "verification email failed", err, attrs...)
			return
		}
		metrics.VerificationEmailsTotal.WithLabelValues("success").Inc()
		n.logger.Info("verification email sent", attrs...)
	}()
}

// Close waits for in-flight dispatches or until ctx is done.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
