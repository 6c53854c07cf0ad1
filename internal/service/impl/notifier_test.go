package impl

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/storifal/storifal/internal/observability/metrics"
)

func TestNotifierDeliversInBackground(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	email := &stubEmailService{}
	n := NewAsyncNotifier(email, time.Second, discardLogger)
	before := testutil.ToFloat64(metrics.VerificationEmailsTotal.WithLabelValues("success"))

	n.Dispatch(context.Background(), "ada@storifal.test", "tok")
	require.NoError(t, n.Close(context.Background()))

	require.Len(t, email.sent, 1)
	assert.Equal(t, sentMail{to: "ada@storifal.test", token: "tok"}, email.sent[0])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.VerificationEmailsTotal.WithLabelValues("success")))
}

func TestNotifierSwallowsFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	email := &stubEmailService{err: errBoom}
	n := NewAsyncNotifier(email, time.Second, discardLogger)
	before := testutil.ToFloat64(metrics.VerificationEmailsTotal.WithLabelValues("failure"))

	n.Dispatch(context.Background(), "ada@storifal.test", "tok")
	require.NoError(t, n.Close(context.Background()))

	assert.Len(t, email.sent, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.VerificationEmailsTotal.WithLabelValues("failure")))
}

func TestNotifierOutlivesRequestContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	email := &stubEmailService{delay: 20 * time.Millisecond}
	n := NewAsyncNotifier(email, time.Second, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	n.Dispatch(ctx, "ada@storifal.test", "tok")
	cancel()
	require.NoError(t, n.Close(context.Background()))

	require.Len(t, email.ctxs, 1)
	assert.NoError(t, email.ctxs[0])
}

func TestNotifierBoundsEachSend(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	email := &stubEmailService{delay: time.Second}
	n := NewAsyncNotifier(email, 10*time.Millisecond, discardLogger)

	n.Dispatch(context.Background(), "ada@storifal.test", "tok")
	require.NoError(t, n.Close(context.Background()))

	require.Len(t, email.ctxs, 1)
	assert.ErrorIs(t, email.ctxs[0], context.DeadlineExceeded)
}

func TestNotifierCloseHonoursDeadline(t *testing.T) {
	email := &stubEmailService{delay: 200 * time.Millisecond}
	n := NewAsyncNotifier(email, time.Second, discardLogger)
	n.Dispatch(context.Background(), "ada@storifal.test", "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.Close(ctx), context.DeadlineExceeded)

	require.NoError(t, n.Close(context.Background()))
}
