package engine

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namba3/patrol/internal/configstore"
	"github.com/namba3/patrol/internal/datastore"
	"github.com/namba3/patrol/internal/domain"
	"github.com/namba3/patrol/internal/poller"
	"github.com/namba3/patrol/internal/realtime"
)

// fakePoller returns a fixed text (or error) for every target, regardless
// of its config, so engine tests can drive the tick loop deterministically.
type fakePoller struct {
	text map[domain.Id]string
	err  map[domain.Id]error
}

func (f *fakePoller) Poll(ctx context.Context, cfg domain.Config) (string, error) {
	panic("not used by the engine")
}

func (f *fakePoller) PollMultiple(ctx context.Context, configs map[domain.Id]domain.Config) <-chan poller.Result {
	out := make(chan poller.Result, len(configs))
	go func() {
		defer close(out)
		for id := range configs {
			if err, ok := f.err[id]; ok {
				out <- poller.Result{Id: id, Err: err}
				continue
			}
			out <- poller.Result{Id: id, Text: f.text[id]}
		}
	}()
	return out
}

func mustEngineID(t *testing.T, s string) domain.Id {
	t.Helper()
	id, err := domain.ParseID(s)
	require.NoError(t, err)
	return id
}

func newTestEngine(t *testing.T, p poller.Poller) (*Engine, *configstore.Store, datastore.Handle, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	cs, err := configstore.Open(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	u, err := domain.ParseUrl("https://example.com/a")
	require.NoError(t, err)
	sel, err := domain.ParseSelector("p")
	require.NoError(t, err)
	require.NoError(t, cs.Update(mustEngineID(t, "a"), domain.Config{Url: u, Selector: sel, Mode: domain.ModeSimple}))

	ds, err := datastore.Open(filepath.Join(dir, "data.toml"))
	require.NoError(t, err)
	actor := datastore.NewActor(ds)
	t.Cleanup(actor.Stop)
	handle := datastore.NewHandle(actor)

	var buf bytes.Buffer
	e := New(Config{
		Configs:     cs,
		Data:        handle,
		Poller:      p,
		Broadcaster: realtime.NewBroadcaster(nil, nil),
		Period:      domain.Minutes(1),
		Report:      &buf,
	})
	return e, cs, handle, &buf
}

func TestTickUpdatesDataStoreOnFirstObservation(t *testing.T) {
	id := mustEngineID(t, "a")
	p := &fakePoller{text: map[domain.Id]string{id: "hello"}}
	e, _, handle, buf := newTestEngine(t, p)

	require.NoError(t, e.RunOnce(context.Background()))

	d, ok, err := handle.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, d.LastUpdated)
	assert.Contains(t, buf.String(), "a")
}

func TestTickSkipsEmptyContentWithoutStoreMutation(t *testing.T) {
	id := mustEngineID(t, "a")
	p := &fakePoller{text: map[domain.Id]string{id: "   "}}
	e, _, handle, _ := newTestEngine(t, p)

	require.NoError(t, e.RunOnce(context.Background()))

	_, ok, err := handle.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTickRetriesOnPollError(t *testing.T) {
	id := mustEngineID(t, "a")
	attempts := 0
	p := &countingFailThenSucceed{id: id, failFor: 2, onAttempt: func() { attempts++ }}
	e, _, handle, _ := newTestEngine(t, p)

	require.NoError(t, e.RunOnce(context.Background()))

	d, ok, err := handle.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, d.Hash)
	assert.GreaterOrEqual(t, attempts, 2)
}

// countingFailThenSucceed fails the first failFor attempts for id, then
// returns success, to exercise the engine's bounded-retry loop.
type countingFailThenSucceed struct {
	id        domain.Id
	failFor   int
	seen      int
	onAttempt func()
}

func (c *countingFailThenSucceed) Poll(ctx context.Context, cfg domain.Config) (string, error) {
	panic("not used by the engine")
}

func (c *countingFailThenSucceed) PollMultiple(ctx context.Context, configs map[domain.Id]domain.Config) <-chan poller.Result {
	out := make(chan poller.Result, len(configs))
	go func() {
		defer close(out)
		for id := range configs {
			c.onAttempt()
			c.seen++
			if c.seen <= c.failFor {
				out <- poller.Result{Id: id, Err: assertErr("transient")}
				continue
			}
			out <- poller.Result{Id: id, Text: "content"}
		}
	}()
	return out
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

// blockingPoller never reports a result for any target, simulating a poll
// that outlives the tick deadline so pollRound's roundCtx.Done() branch is
// the one that ends the round, not a received Result.
type blockingPoller struct{}

func (b *blockingPoller) Poll(ctx context.Context, cfg domain.Config) (string, error) {
	panic("not used by the engine")
}

func (b *blockingPoller) PollMultiple(ctx context.Context, configs map[domain.Id]domain.Config) <-chan poller.Result {
	out := make(chan poller.Result)
	go func() {
		<-ctx.Done()
	}()
	return out
}

func TestTickDeadlineCutoffLeavesTargetPendingForNextTick(t *testing.T) {
	id := mustEngineID(t, "a")
	e, _, handle, _ := newTestEngine(t, &blockingPoller{})

	deadline := time.Now().Add(5 * time.Millisecond)
	require.NoError(t, e.tick(context.Background(), deadline))

	_, ok, err := handle.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok, "a poll that never returns before the deadline must not be recorded this tick")

	e.poller = &fakePoller{text: map[domain.Id]string{id: "hello"}}
	require.NoError(t, e.RunOnce(context.Background()))

	d, ok, err := handle.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok, "the next tick's fresh rem must still carry the unresolved id over")
	assert.NotNil(t, d.LastUpdated)
}

func TestTickAdmissionLimitZeroSkipsTick(t *testing.T) {
	id := mustEngineID(t, "a")
	p := &fakePoller{text: map[domain.Id]string{id: "hello"}}
	e, _, handle, _ := newTestEngine(t, p)
	zero := uint8(0)
	e.limit = &zero

	require.NoError(t, e.RunOnce(context.Background()))

	_, ok, err := handle.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok, "a zero limit must skip polling entirely")
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	id := mustEngineID(t, "a")
	p := &fakePoller{text: map[domain.Id]string{id: "hello"}}
	e, _, _, _ := newTestEngine(t, p)
	e.period = domain.Millis(10)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	assert.NoError(t, err)
}
