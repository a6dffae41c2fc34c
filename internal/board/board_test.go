package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"apilab/internal/adapter"
	"apilab/internal/apperr"
	"apilab/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// genai pulls in opencensus, whose view worker starts in init.
var leakOpts = []goleak.Option{
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}

type stubRunners map[string]adapter.RunFunc

func (s stubRunners) Runner(c catalog.Card) (adapter.RunFunc, error) {
	if fn, ok := s[c.ID]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("no runner for %s", c.ID)
}

// gate returns a runner that blocks until release is closed.
type gate struct {
	release chan struct{}
	calls   atomic.Int32
	inputs  chan string
	out     adapter.Outcome
	err     error
}

func newGate(out adapter.Outcome, err error) *gate {
	return &gate{release: make(chan struct{}), inputs: make(chan string, 8), out: out, err: err}
}

func (g *gate) run(ctx context.Context, input string) (adapter.Outcome, error) {
	g.calls.Add(1)
	g.inputs <- input
	<-g.release
	return g.out, g.err
}

func card(id, def string) catalog.Card {
	return catalog.Card{ID: id, Name: id, Kind: catalog.KindSimulate, DefaultInput: def}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestInputFallsBackToDefault(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	g := newGate(adapter.Outcome{}, nil)
	b := New(stubRunners{"webrisk": g.run})
	require.NoError(t, b.Register(card("webrisk", "http://malware.test")))

	in, err := b.Input("webrisk")
	require.NoError(t, err)
	assert.Equal(t, "http://malware.test", in)

	require.NoError(t, b.SetInput("webrisk", ""))
	in, _ = b.Input("webrisk")
	assert.Equal(t, "", in, "an explicit empty input replaces the default")

	u, err := b.Snapshot("webrisk")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, u.State.Status)
}

func TestRunLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	rec := &recorder{}
	g := newGate(adapter.Outcome{Text: "clean", Result: map[string]any{"threat": "none"}}, nil)
	b := New(stubRunners{"webrisk": g.run}, WithObserver(rec.observe))
	require.NoError(t, b.Register(card("webrisk", "http://a.test")))
	require.NoError(t, b.SetInput("webrisk", "http://b.test"))

	started, err := b.Run(context.Background(), "webrisk")
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, "http://b.test", <-g.inputs)

	u, _ := b.Snapshot("webrisk")
	assert.Equal(t, StatusLoading, u.State.Status)
	assert.Empty(t, u.State.Output)

	close(g.release)
	b.Wait()

	u, _ = b.Snapshot("webrisk")
	assert.Equal(t, StatusSuccess, u.State.Status)
	assert.Equal(t, "clean", u.State.Output)
	assert.Equal(t, map[string]any{"threat": "none"}, u.State.Result)
	assert.False(t, u.State.FinishedAt.Before(u.State.StartedAt))

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "webrisk", events[0].UnitID)
	assert.Equal(t, "http://b.test", events[0].Input)
	assert.NoError(t, events[0].Err)
}

func TestSecondRunWhileLoadingIsIgnored(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	g := newGate(adapter.Outcome{Text: "ok"}, nil)
	b := New(stubRunners{"qa": g.run})
	require.NoError(t, b.Register(card("qa", "hours?")))

	started, err := b.Run(context.Background(), "qa")
	require.NoError(t, err)
	require.True(t, started)
	<-g.inputs

	started, err = b.Run(context.Background(), "qa")
	require.NoError(t, err)
	assert.False(t, started)

	close(g.release)
	b.Wait()
	assert.Equal(t, int32(1), g.calls.Load())

	// Settled units can run again.
	started, err = b.Run(context.Background(), "qa")
	require.NoError(t, err)
	assert.True(t, started)
	<-g.inputs
	b.Wait()
	assert.Equal(t, int32(2), g.calls.Load())
}

func TestErrorsBecomeFixedMessages(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	empty := newGate(adapter.Outcome{}, apperr.EmptyInput("vision"))
	failed := newGate(adapter.Outcome{Text: "partial", Result: "partial"}, apperr.Malformed("decode", "bad"))
	close(empty.release)
	close(failed.release)
	rec := &recorder{}
	b := New(stubRunners{"vision": empty.run, "site": failed.run}, WithObserver(rec.observe))
	require.NoError(t, b.Register(card("vision", "")))
	require.NoError(t, b.Register(card("site", "https://example.com")))

	_, err := b.Run(context.Background(), "vision")
	require.NoError(t, err)
	_, err = b.Run(context.Background(), "site")
	require.NoError(t, err)
	b.Wait()

	v, _ := b.Snapshot("vision")
	assert.Equal(t, StatusError, v.State.Status)
	assert.Equal(t, MsgInputRequired, v.State.Output)
	assert.Equal(t, apperr.KindEmptyInput, v.State.ErrorKind)

	s, _ := b.Snapshot("site")
	assert.Equal(t, StatusError, s.State.Status)
	assert.Equal(t, MsgRequestFailed, s.State.Output)
	assert.Equal(t, apperr.KindMalformedResponse, s.State.ErrorKind)
	assert.Nil(t, s.State.Result)

	assert.Len(t, rec.all(), 2)
}

func TestUnitsSettleIndependently(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	fast := newGate(adapter.Outcome{Text: "fast"}, nil)
	slow := newGate(adapter.Outcome{Text: "slow"}, nil)
	b := New(stubRunners{"a": fast.run, "b": slow.run})
	require.NoError(t, b.Register(card("a", "x")))
	require.NoError(t, b.Register(card("b", "y")))

	_, err := b.Run(context.Background(), "a")
	require.NoError(t, err)
	_, err = b.Run(context.Background(), "b")
	require.NoError(t, err)
	<-fast.inputs
	<-slow.inputs

	close(fast.release)
	require.Eventually(t, func() bool {
		u, _ := b.Snapshot("a")
		return u.State.Status == StatusSuccess
	}, 2*time.Second, 5*time.Millisecond)

	ub, _ := b.Snapshot("b")
	assert.Equal(t, StatusLoading, ub.State.Status)
	assert.Empty(t, ub.State.Output)

	close(slow.release)
	b.Wait()
	ua, _ := b.Snapshot("a")
	ub, _ = b.Snapshot("b")
	assert.Equal(t, "fast", ua.State.Output)
	assert.Equal(t, "slow", ub.State.Output)
}

func TestRemovedUnitDropsLateResult(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	rec := &recorder{}
	g := newGate(adapter.Outcome{Text: "late"}, nil)
	b := New(stubRunners{"search": g.run}, WithObserver(rec.observe))
	require.NoError(t, b.Register(card("search", "q")))

	_, err := b.Run(context.Background(), "search")
	require.NoError(t, err)
	<-g.inputs
	require.NoError(t, b.Remove("search"))

	close(g.release)
	b.Wait()

	_, err = b.Snapshot("search")
	assert.ErrorIs(t, err, apperr.ErrUnknownUnit)
	assert.Empty(t, rec.all())
	assert.Empty(t, b.List())
}

func TestRecreatedUnitIgnoresOldRun(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	g := newGate(adapter.Outcome{Text: "stale"}, nil)
	b := New(stubRunners{"maps": g.run})
	require.NoError(t, b.Register(card("maps", "cafes")))

	_, err := b.Run(context.Background(), "maps")
	require.NoError(t, err)
	<-g.inputs
	require.NoError(t, b.Remove("maps"))
	require.NoError(t, b.Register(card("maps", "cafes")))

	close(g.release)
	b.Wait()

	u, err := b.Snapshot("maps")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, u.State.Status)
	assert.Empty(t, u.State.Output)
}

func TestRunSurvivesCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	var sawCancel atomic.Bool
	release := make(chan struct{})
	run := func(ctx context.Context, _ string) (adapter.Outcome, error) {
		<-release
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return adapter.Outcome{Text: "done"}, nil
	}
	b := New(stubRunners{"nlp": run})
	require.NoError(t, b.Register(card("nlp", "text")))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := b.Run(ctx, "nlp")
	require.NoError(t, err)
	cancel()
	close(release)
	b.Wait()

	assert.False(t, sawCancel.Load())
	u, _ := b.Snapshot("nlp")
	assert.Equal(t, StatusSuccess, u.State.Status)
}

func TestRunnerPanicBecomesError(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	b := New(stubRunners{"boom": func(context.Context, string) (adapter.Outcome, error) {
		panic("nil map")
	}})
	require.NoError(t, b.Register(card("boom", "x")))
	_, err := b.Run(context.Background(), "boom")
	require.NoError(t, err)
	b.Wait()

	u, _ := b.Snapshot("boom")
	assert.Equal(t, StatusError, u.State.Status)
	assert.Equal(t, apperr.KindRequestFailed, u.State.ErrorKind)
}

func TestUnknownUnit(t *testing.T) {
	b := New(stubRunners{})
	_, err := b.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrUnknownUnit)
	assert.ErrorIs(t, b.SetInput("nope", "x"), apperr.ErrUnknownUnit)
	assert.ErrorIs(t, b.Remove("nope"), apperr.ErrUnknownUnit)
	_, err = b.Input("nope")
	assert.ErrorIs(t, err, apperr.ErrUnknownUnit)

	assert.Error(t, b.Register(card("unbound", "")))
}

func TestSyncKeepsStateAndOrder(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)
	ok := func(context.Context, string) (adapter.Outcome, error) { return adapter.Outcome{Text: "ok"}, nil }
	b := New(stubRunners{"a": ok, "b": ok, "c": ok})
	require.NoError(t, b.Sync([]catalog.Card{card("a", ""), card("b", "")}))
	require.NoError(t, b.SetInput("a", "kept"))
	_, err := b.Run(context.Background(), "a")
	require.NoError(t, err)
	b.Wait()

	renamed := card("a", "")
	renamed.Name = "A v2"
	require.NoError(t, b.Sync([]catalog.Card{card("c", ""), renamed}))

	units := b.List()
	require.Len(t, units, 2)
	assert.Equal(t, "c", units[0].Card.ID)
	assert.Equal(t, "A v2", units[1].Card.Name)
	assert.Equal(t, "kept", units[1].Input)
	assert.Equal(t, StatusSuccess, units[1].State.Status)

	_, err = b.Snapshot("b")
	assert.ErrorIs(t, err, apperr.ErrUnknownUnit)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, MsgInputRequired, Message(apperr.EmptyInput("x")))
	assert.Equal(t, MsgRequestFailed, Message(apperr.RequestFailed("x", errors.New("y"))))
	assert.Equal(t, MsgRequestFailed, Message(errors.New("plain")))
}
