package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/oksasatya/greenloop/config"
	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/internal/domain/xp"
	"github.com/oksasatya/greenloop/internal/observability"
	"github.com/oksasatya/greenloop/pkg/helpers"
	"github.com/oksasatya/greenloop/pkg/mailer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func closeNow(t *testing.T, l *Local) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Close(ctx))
}

func TestLocalDispatchRunsDetached(t *testing.T) {
	release := make(chan struct{})
	var got atomic.Value
	l := NewLocal(func(ctx context.Context, job application.MemoryJob) error {
		<-release
		got.Store(job.ID)
		return nil
	}, time.Second, nil, nil)

	start := time.Now()
	l.Dispatch(application.MemoryJob{ID: "a1", Kind: "action"})
	assert.Less(t, time.Since(start), 100*time.Millisecond, "dispatch must not wait for the job")

	close(release)
	closeNow(t, l)
	assert.Equal(t, "a1", got.Load())
}

func TestLocalJobContextOutlivesCaller(t *testing.T) {
	reqCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	l := NewLocal(nil, time.Second, nil, nil)

	l.Go("probe", func(ctx context.Context) error {
		<-reqCtx.Done()
		done <- ctx.Err()
		return nil
	})
	cancel()
	closeNow(t, l)
	assert.NoError(t, <-done)
}

func TestLocalFailuresAndPanicsAreContained(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	logger, hook := logtest.NewNullLogger()
	l := NewLocal(nil, time.Second, logger, m)

	l.Go("fails", func(context.Context) error { return errors.New("boom") })
	l.Go("panics", func(context.Context) error { panic("oh no") })
	l.Go("ok", func(context.Context) error { return nil })
	closeNow(t, l)

	expected := `
# HELP greenloop_tasks_jobs_total Detached side-effect jobs by outcome
# TYPE greenloop_tasks_jobs_total counter
greenloop_tasks_jobs_total{outcome="failed"} 2
greenloop_tasks_jobs_total{outcome="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "greenloop_tasks_jobs_total"))
	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Message == "job failed" {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestLocalTimeout(t *testing.T) {
	errc := make(chan error, 1)
	l := NewLocal(nil, 20*time.Millisecond, nil, nil)
	l.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		errc <- ctx.Err()
		return ctx.Err()
	})
	closeNow(t, l)
	assert.ErrorIs(t, <-errc, context.DeadlineExceeded)
}

func TestLocalDropsAfterClose(t *testing.T) {
	l := NewLocal(nil, time.Second, nil, nil)
	closeNow(t, l)

	var ran atomic.Bool
	l.Go("late", func(context.Context) error { ran.Store(true); return nil })
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestLocalCloseHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	l := NewLocal(nil, time.Second, nil, nil)
	l.Go("stuck", func(context.Context) error { <-release; return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Close(ctx), context.DeadlineExceeded)

	close(release)
	closeNow(t, l)
}

type recordingPublisher struct {
	mu     sync.Mutex
	bodies []any
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *recordingPublisher) all() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.bodies...)
}

func TestQueuePublishesJob(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewLocal(nil, time.Second, nil, nil)
	NewQueue(pub, l).Dispatch(application.MemoryJob{ID: "s1", Kind: "swap", UserID: "u1"})
	closeNow(t, l)

	bodies := pub.all()
	require.Len(t, bodies, 1)
	assert.Equal(t, "s1", bodies[0].(application.MemoryJob).ID)
}

func TestQueuePublishFailureIsSwallowed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	l := NewLocal(nil, time.Second, nil, nil)
	assert.NotPanics(t, func() {
		NewQueue(pub, l).Dispatch(application.MemoryJob{ID: "s1", Kind: "swap"})
	})
	closeNow(t, l)
}

func TestMemoryConsumer(t *testing.T) {
	var written []string
	consume := MemoryConsumer(func(_ context.Context, job application.MemoryJob) error {
		if job.ID == "bad" {
			return errors.New("embed failed")
		}
		written = append(written, job.ID)
		return nil
	}, nil)

	body, _ := json.Marshal(application.MemoryJob{ID: "a1", Kind: "action"})
	assert.NoError(t, consume(context.Background(), body))
	assert.Equal(t, []string{"a1"}, written)

	assert.ErrorIs(t, consume(context.Background(), []byte("{not json")), helpers.ErrDropMessage)
	assert.ErrorIs(t, consume(context.Background(), []byte(`{}`)), helpers.ErrDropMessage)

	body, _ = json.Marshal(application.MemoryJob{ID: "bad"})
	assert.ErrorIs(t, consume(context.Background(), body), helpers.ErrDropMessage)
}

func TestMailerLevelUp(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewLocal(nil, time.Second, nil, nil)
	cfg := &config.Config{MailSendEnabled: true, AppName: "greenloop"}
	m := NewMailer(pub, l, cfg, xp.Default, nil)

	u := &entity.User{Email: "ada@example.com", Name: "Ada", Level: entity.LevelSapling, TotalXP: 510}
	m.LevelUp(u, entity.LevelSeedling)

	off := &entity.User{Email: "bob@example.com", Level: entity.LevelSapling,
		Settings: entity.Settings{"emailNotifications": false}}
	m.LevelUp(off, entity.LevelSeedling)
	closeNow(t, l)

	bodies := pub.all()
	require.Len(t, bodies, 1)
	job := bodies[0].(mailer.EmailJob)
	assert.Equal(t, "ada@example.com", job.To)
	assert.Equal(t, "level_up", job.Template)
	assert.Equal(t, "Tree", job.Data["NextLevel"])
	assert.Equal(t, "Seedling", job.Data["PreviousLevel"])
}

func TestMailerDisabledByConfig(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewLocal(nil, time.Second, nil, nil)
	m := NewMailer(pub, l, &config.Config{MailSendEnabled: false}, xp.Default, nil)
	m.Welcome(&entity.User{Email: "ada@example.com"})
	closeNow(t, l)
	assert.Empty(t, pub.all())
}
