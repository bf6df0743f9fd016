package status

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/metrics"
	"github.com/Dhoini/payform/internal/repository"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkResult struct {
	status domain.PaymentStatus
	err    error
}

// scriptedChecker отдает ответы по порядку, последний повторяется
type scriptedChecker struct {
	mu       sync.Mutex
	script   []checkResult
	calls    int
	inFlight int
	overlap  bool
	delay    time.Duration
}

func (c *scriptedChecker) CheckStatus(ctx context.Context, pid string) (domain.PaymentStatus, error) {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > 1 {
		c.overlap = true
	}
	idx := c.calls
	if idx >= len(c.script) {
		idx = len(c.script) - 1
	}
	res := c.script[idx]
	c.calls++
	c.mu.Unlock()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	return res.status, res.err
}

func (c *scriptedChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingResolver struct {
	mu       sync.Mutex
	resolved []string
}

func (r *recordingResolver) PaymentResolved(_ context.Context, pid string, status domain.PaymentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, pid+":"+string(status))
}

func newTestWatcher(checker Checker, cache Cache, observer ResolveObserver, interval time.Duration) *Watcher {
	m := metrics.NewPaymentMetrics(prometheus.NewRegistry(), logger.NewNop())
	return NewWatcher(checker, cache, observer, m, logger.NewNop(), Config{Interval: interval, RequestTimeout: time.Second})
}

func TestWatchPollsUntilTerminal(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{
		{status: domain.PaymentStatusProcess},
		{status: domain.PaymentStatusProcess},
		{status: domain.PaymentStatusOK},
	}}
	resolver := &recordingResolver{}
	w := newTestWatcher(checker, repository.NewMemoryStatusCache(time.Minute), resolver, 10*time.Millisecond)

	var views []View
	final := w.Watch(context.Background(), "abc123", func(v View) { views = append(views, v) })

	assert.Equal(t, View{PID: "abc123", Phase: PhaseReceived, Status: domain.PaymentStatusOK}, final)
	assert.Equal(t, 3, checker.callCount())
	require.Len(t, views, 2, "unchanged process view is emitted once")
	assert.Equal(t, domain.PaymentStatusProcess, views[0].Status)
	assert.Equal(t, domain.PaymentStatusOK, views[1].Status)
	assert.Equal(t, TextOK, final.Text())
	assert.Equal(t, []string{"abc123:ok"}, resolver.resolved)

	// после конечного статуса запросов больше нет
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, checker.callCount())
}

func TestWatchPollIntervalIsRespected(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{
		{status: domain.PaymentStatusProcess},
		{status: domain.PaymentStatusProcess},
		{status: domain.PaymentStatusFail},
	}}
	w := newTestWatcher(checker, nil, nil, 40*time.Millisecond)

	start := time.Now()
	final := w.Watch(context.Background(), "p1", nil)

	assert.Equal(t, domain.PaymentStatusFail, final.Status)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestFollowWaitsOneIntervalBeforeFirstCheck(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{
		{status: domain.PaymentStatusProcess},
		{status: domain.PaymentStatusProcess},
		{status: domain.PaymentStatusOK},
	}}
	w := newTestWatcher(checker, nil, nil, 40*time.Millisecond)

	var (
		views []View
		at    []time.Duration
	)
	start := time.Now()
	final := w.Follow(context.Background(), "p1", func(v View) {
		views = append(views, v)
		at = append(at, time.Since(start))
	})

	assert.Equal(t, domain.PaymentStatusOK, final.Status)
	assert.Equal(t, 3, checker.callCount())
	require.Len(t, views, 2)
	assert.Equal(t, domain.PaymentStatusProcess, views[0].Status)
	assert.Equal(t, domain.PaymentStatusOK, views[1].Status)
	assert.GreaterOrEqual(t, at[0], 40*time.Millisecond)
	assert.GreaterOrEqual(t, at[1], 120*time.Millisecond)
}

func TestFollowStopsOnCancelBeforeFirstTick(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{{status: domain.PaymentStatusProcess}}}
	w := newTestWatcher(checker, nil, nil, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	w.Follow(ctx, "p1", func(View) { called = true })

	assert.False(t, called)
	assert.Equal(t, 0, checker.callCount())
}

func TestWatchStopsOnCancel(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{{status: domain.PaymentStatusProcess}}}
	w := newTestWatcher(checker, nil, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan View, 1)
	go func() { done <- w.Watch(ctx, "p1", nil) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	var final View
	select {
	case final = <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.True(t, final.Polling())

	calls := checker.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, checker.callCount(), "no fetch after detach")
}

func TestWatchNeverOverlapsSlowChecks(t *testing.T) {
	checker := &scriptedChecker{
		script: []checkResult{
			{status: domain.PaymentStatusProcess},
			{status: domain.PaymentStatusProcess},
			{status: domain.PaymentStatusProcess},
			{status: domain.PaymentStatusOK},
		},
		delay: 25 * time.Millisecond,
	}
	w := newTestWatcher(checker, nil, nil, 5*time.Millisecond)

	final := w.Watch(context.Background(), "p1", nil)
	assert.Equal(t, domain.PaymentStatusOK, final.Status)
	assert.False(t, checker.overlap)
}

func TestWatchErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"http 500", fmt.Errorf("%w: 500", domain.ErrBadStatusCode), domain.MsgRequestFailed},
		{"no status field", domain.ErrMalformedStatus, domain.MsgMalformedStatus},
		{"connection", fmt.Errorf("%w: refused", domain.ErrBackendUnavailable), domain.MsgConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &scriptedChecker{script: []checkResult{{err: tt.err}}}
			w := newTestWatcher(checker, nil, nil, 10*time.Millisecond)

			final := w.Watch(context.Background(), "p1", nil)
			assert.Equal(t, PhaseError, final.Phase)
			assert.Equal(t, tt.message, final.Text())
			assert.True(t, final.Final())
			assert.Equal(t, 1, checker.callCount())
		})
	}
}

func TestWatchErrorDuringPollingStops(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{
		{status: domain.PaymentStatusProcess},
		{err: fmt.Errorf("%w: 503", domain.ErrBadStatusCode)},
	}}
	w := newTestWatcher(checker, nil, nil, 10*time.Millisecond)

	final := w.Watch(context.Background(), "p1", nil)
	assert.Equal(t, PhaseError, final.Phase)
	assert.Equal(t, 2, checker.callCount())
}

func TestWatchMissingPID(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{{status: domain.PaymentStatusOK}}}
	w := newTestWatcher(checker, nil, nil, 10*time.Millisecond)

	var views []View
	final := w.Watch(context.Background(), "", func(v View) { views = append(views, v) })

	assert.Equal(t, PhaseError, final.Phase)
	assert.Equal(t, domain.MsgMissingPaymentID, final.Message)
	assert.Len(t, views, 1)
	assert.Equal(t, 0, checker.callCount())
}

func TestWatchUnknownStatusStopsWithoutCaching(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{{status: "refunded"}}}
	cache := repository.NewMemoryStatusCache(time.Minute)
	resolver := &recordingResolver{}
	w := newTestWatcher(checker, cache, resolver, 10*time.Millisecond)

	final := w.Watch(context.Background(), "p1", nil)
	assert.Equal(t, TextUnknown, final.Text())

	_, err := cache.Get(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Empty(t, resolver.resolved)
}

func TestCheckServesTerminalStatusFromCache(t *testing.T) {
	checker := &scriptedChecker{script: []checkResult{{status: domain.PaymentStatusFail}}}
	cache := repository.NewMemoryStatusCache(time.Minute)
	resolver := &recordingResolver{}
	w := newTestWatcher(checker, cache, resolver, 10*time.Millisecond)

	first := w.Check(context.Background(), "p1")
	second := w.Check(context.Background(), "p1")

	assert.Equal(t, first, second)
	assert.Equal(t, TextFail, second.Text())
	assert.Equal(t, 1, checker.callCount())
	assert.Equal(t, []string{"p1:fail"}, resolver.resolved, "resolution is published once")
}

func TestViewText(t *testing.T) {
	assert.Equal(t, TextLoading, Loading("p").Text())
	assert.Equal(t, TextProcess, View{Phase: PhaseReceived, Status: domain.PaymentStatusProcess}.Text())
	assert.Equal(t, TextUnknown, View{Phase: PhaseReceived, Status: "weird"}.Text())
	assert.False(t, Loading("p").Final())
	assert.False(t, Loading("p").Polling())
}
