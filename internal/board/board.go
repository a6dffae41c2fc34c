// Package board owns the per-card view state: current input plus the
// invocation status of the last run. Runs execute on their own goroutines and
// only ever touch the state of the unit that started them.
package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"apilab/internal/adapter"
	"apilab/internal/apperr"
	"apilab/internal/catalog"
	"apilab/internal/logger"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Messages shown in place of output when a run fails.
const (
	MsgInputRequired = "Input required"
	MsgRequestFailed = "API Request Failed"
)

// State is the invocation state of one unit.
type State struct {
	Status     Status      `json:"status"`
	Output     string      `json:"output"`
	Result     any         `json:"result,omitempty"`
	ErrorKind  apperr.Kind `json:"error_kind,omitempty"`
	StartedAt  time.Time   `json:"started_at,omitempty"`
	FinishedAt time.Time   `json:"finished_at,omitempty"`
}

// Unit is a copy of one card's view state.
type Unit struct {
	Card  catalog.Card
	Input string
	State State
}

// Event describes a settled run. Err is the adapter error, nil on success.
type Event struct {
	UnitID string
	Card   catalog.Card
	Input  string
	State  State
	Err    error
}

type Observer func(Event)

// RunnerSource binds cards to executable runs.
type RunnerSource interface {
	Runner(card catalog.Card) (adapter.RunFunc, error)
}

type Option func(*Board)

func WithObserver(fn Observer) Option {
	return func(b *Board) { b.observer = fn }
}

func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

type unit struct {
	card     catalog.Card
	run      adapter.RunFunc
	input    string
	hasInput bool
	state    State
	gen      uint64
}

func (u *unit) effectiveInput() string {
	if u.hasInput {
		return u.input
	}
	return u.card.DefaultInput
}

func (u *unit) snapshot() Unit {
	return Unit{Card: u.card, Input: u.effectiveInput(), State: u.state}
}

type Board struct {
	runners  RunnerSource
	observer Observer
	now      func() time.Time

	mu    sync.Mutex
	units map[string]*unit
	order []string
	gen   uint64

	wg sync.WaitGroup
}

func New(runners RunnerSource, opts ...Option) *Board {
	b := &Board{
		runners: runners,
		now:     time.Now,
		units:   make(map[string]*unit),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a card as an idle unit, or updates the definition of an
// existing unit while keeping its input and state.
func (b *Board) Register(card catalog.Card) error {
	run, err := b.runners.Runner(card)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.units[card.ID]; ok {
		u.card = card
		u.run = run
		return nil
	}
	b.gen++
	b.units[card.ID] = &unit{card: card, run: run, state: State{Status: StatusIdle}, gen: b.gen}
	b.order = append(b.order, card.ID)
	return nil
}

// Sync makes the board hold exactly the given cards, in order.
func (b *Board) Sync(cards []catalog.Card) error {
	keep := make(map[string]bool, len(cards))
	for _, c := range cards {
		if err := b.Register(c); err != nil {
			return err
		}
		keep[c.ID] = true
	}
	b.mu.Lock()
	order := make([]string, 0, len(cards))
	for _, id := range b.order {
		if !keep[id] {
			delete(b.units, id)
		}
	}
	for _, c := range cards {
		order = append(order, c.ID)
	}
	b.order = order
	b.mu.Unlock()
	return nil
}

func (b *Board) SetInput(id, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.units[id]
	if !ok {
		return apperr.UnknownUnit(id)
	}
	u.input = value
	u.hasInput = true
	return nil
}

// Input returns the value a run would use: the last SetInput, else the card
// default.
func (b *Board) Input(id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.units[id]
	if !ok {
		return "", apperr.UnknownUnit(id)
	}
	return u.effectiveInput(), nil
}

// Run starts a run for id. It reports false without error when the unit is
// already loading. The run outlives ctx cancellation; only the model client
// timeout bounds it.
func (b *Board) Run(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	u, ok := b.units[id]
	if !ok {
		b.mu.Unlock()
		return false, apperr.UnknownUnit(id)
	}
	if u.state.Status == StatusLoading {
		b.mu.Unlock()
		return false, nil
	}
	started := b.now()
	u.state = State{Status: StatusLoading, StartedAt: started}
	input, run, gen, card := u.effectiveInput(), u.run, u.gen, u.card
	b.wg.Add(1)
	b.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer b.wg.Done()
		out, err := invoke(runCtx, run, input)
		b.settle(id, gen, card, input, started, out, err)
	}()
	return true, nil
}

func invoke(ctx context.Context, run adapter.RunFunc, input string) (out adapter.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.RequestFailed("board", fmt.Errorf("runner panic: %v", r))
		}
	}()
	return run(ctx, input)
}

func (b *Board) settle(id string, gen uint64, card catalog.Card, input string, started time.Time, out adapter.Outcome, err error) {
	state := State{StartedAt: started, FinishedAt: b.now()}
	if err != nil {
		state.Status = StatusError
		state.ErrorKind = apperr.KindOf(err)
		state.Output = Message(err)
	} else {
		state.Status = StatusSuccess
		state.Output = out.Text
		state.Result = out.Result
	}

	b.mu.Lock()
	u, ok := b.units[id]
	if !ok || u.gen != gen {
		b.mu.Unlock()
		logger.Debugf("[board] dropping result for removed unit %s", id)
		return
	}
	u.state = state
	observer := b.observer
	b.mu.Unlock()

	if err != nil {
		logger.Warnf("[board] %s failed after %s: %v", id, state.FinishedAt.Sub(started).Round(time.Millisecond), err)
	} else {
		logger.Infof("[board] %s done in %s", id, state.FinishedAt.Sub(started).Round(time.Millisecond))
	}
	if observer != nil {
		observer(Event{UnitID: id, Card: card, Input: input, State: state, Err: err})
	}
}

// Message maps an adapter error to the fixed text shown to the user.
func Message(err error) string {
	if apperr.KindOf(err) == apperr.KindEmptyInput {
		return MsgInputRequired
	}
	return MsgRequestFailed
}

// Remove deletes a unit. A run still in flight for it settles into nothing.
func (b *Board) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.units[id]; !ok {
		return apperr.UnknownUnit(id)
	}
	delete(b.units, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Board) Snapshot(id string) (Unit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.units[id]
	if !ok {
		return Unit{}, apperr.UnknownUnit(id)
	}
	return u.snapshot(), nil
}

// List returns every unit in registration order.
func (b *Board) List() []Unit {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Unit, 0, len(b.order))
	for _, id := range b.order {
		if u, ok := b.units[id]; ok {
			out = append(out, u.snapshot())
		}
	}
	return out
}

// Wait blocks until every started run has settled.
func (b *Board) Wait() {
	b.wg.Wait()
}
