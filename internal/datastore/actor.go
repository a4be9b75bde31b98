package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/namba3/patrol/internal/domain"
)

// Errors seen by Actor clients.
var (
	// ErrSendFailed means the actor's request channel was closed or the
	// actor's run loop has already exited (the actor is "gone").
	ErrSendFailed = errors.New("datastore actor: send failed, actor is gone")
	// ErrRecvFailed means the reply channel was dropped before a reply
	// arrived.
	ErrRecvFailed = errors.New("datastore actor: recv failed, reply channel dropped")
)

// request is the single message type the actor accepts; its opKind field
// selects the operation and only the fields that operation reads are set.
// A typed struct (rather than an interface{} payload) keeps the actor's run
// loop a plain switch, mirroring the single
// background-goroutine-owns-state shape of steveyegge-beads'
// cmd/bd/flush_manager.go FlushManager.
type request struct {
	kind    opKind
	id      domain.Id
	ids     []domain.Id
	hash    domain.Hash
	batch   map[domain.Id]domain.Hash
	replyCh chan reply
}

type opKind int

const (
	opGet opKind = iota
	opGetMultiple
	opGetAll
	opUpdate
	opUpdateMultiple
	opDelete
)

type reply struct {
	data        domain.Data
	dataMap     map[domain.Id]domain.Data
	timestamp   *domain.Timestamp
	timestamps  map[domain.Id]domain.Timestamp
	priorData   *domain.Data
	found       bool
	err         error
}

// Actor owns a *Store on a single background goroutine, so that no two
// Update calls for the same id (or any other operation) ever interleave.
// Handle is the clonable client-facing type; Actor itself is the run loop.
type Actor struct {
	store  *Store
	reqCh  chan request
	doneCh chan struct{}
}

// NewActor starts the actor's run loop over store and returns it. Call Stop
// to shut the run loop down.
func NewActor(store *Store) *Actor {
	a := &Actor{
		store:  store,
		reqCh:  make(chan request),
		doneCh: make(chan struct{}),
	}
	go a.run()
	return a
}

// Stop closes the request channel and waits for the run loop to exit. After
// Stop returns, further Handle calls observe ErrSendFailed.
func (a *Actor) Stop() {
	close(a.reqCh)
	<-a.doneCh
}

func (a *Actor) run() {
	defer close(a.doneCh)
	for req := range a.reqCh {
		req.replyCh <- a.apply(req)
	}
}

func (a *Actor) apply(req request) reply {
	switch req.kind {
	case opGet:
		d, ok := a.store.Get(req.id)
		return reply{data: d, found: ok}
	case opGetMultiple:
		return reply{dataMap: a.store.GetMultiple(req.ids)}
	case opGetAll:
		return reply{dataMap: a.store.GetAll()}
	case opUpdate:
		ts, err := a.store.Update(req.id, req.hash)
		return reply{timestamp: ts, err: err}
	case opUpdateMultiple:
		ts, err := a.store.UpdateMultiple(req.batch)
		return reply{timestamps: ts, err: err}
	case opDelete:
		prior, err := a.store.Delete(req.id)
		return reply{priorData: prior, err: err}
	default:
		return reply{err: fmt.Errorf("datastore actor: unknown op %d", req.kind)}
	}
}

// send dispatches req and awaits its reply, translating channel-layer
// failures into the actor's own error values.
func (a *Actor) send(ctx context.Context, req request) (reply, error) {
	req.replyCh = make(chan reply, 1)

	// Stop closes reqCh before doneCh; checking doneCh first keeps a send
	// after Stop from selecting the closed reqCh and panicking.
	select {
	case <-a.doneCh:
		return reply{}, ErrSendFailed
	default:
	}

	select {
	case a.reqCh <- req:
	case <-a.doneCh:
		return reply{}, ErrSendFailed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}

	select {
	case r, ok := <-req.replyCh:
		if !ok {
			return reply{}, ErrRecvFailed
		}
		return r, nil
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

// Handle is a cheap, clonable client handle onto an Actor: it holds only a
// pointer to the actor, so cloning it is trivial.
type Handle struct {
	actor *Actor
}

// NewHandle returns a Handle bound to a.
func NewHandle(a *Actor) Handle {
	return Handle{actor: a}
}

func (h Handle) Get(ctx context.Context, id domain.Id) (domain.Data, bool, error) {
	r, err := h.actor.send(ctx, request{kind: opGet, id: id})
	if err != nil {
		return domain.Data{}, false, err
	}
	return r.data, r.found, nil
}

func (h Handle) GetMultiple(ctx context.Context, ids []domain.Id) (map[domain.Id]domain.Data, error) {
	r, err := h.actor.send(ctx, request{kind: opGetMultiple, ids: ids})
	if err != nil {
		return nil, err
	}
	return r.dataMap, nil
}

func (h Handle) GetAll(ctx context.Context) (map[domain.Id]domain.Data, error) {
	r, err := h.actor.send(ctx, request{kind: opGetAll})
	if err != nil {
		return nil, err
	}
	return r.dataMap, nil
}

func (h Handle) Update(ctx context.Context, id domain.Id, hash domain.Hash) (*domain.Timestamp, error) {
	r, err := h.actor.send(ctx, request{kind: opUpdate, id: id, hash: hash})
	if err != nil {
		return nil, err
	}
	return r.timestamp, r.err
}

func (h Handle) UpdateMultiple(ctx context.Context, updates map[domain.Id]domain.Hash) (map[domain.Id]domain.Timestamp, error) {
	r, err := h.actor.send(ctx, request{kind: opUpdateMultiple, batch: updates})
	if err != nil {
		return nil, err
	}
	return r.timestamps, r.err
}

func (h Handle) Delete(ctx context.Context, id domain.Id) (*domain.Data, error) {
	r, err := h.actor.send(ctx, request{kind: opDelete, id: id})
	if err != nil {
		return nil, err
	}
	return r.priorData, r.err
}
