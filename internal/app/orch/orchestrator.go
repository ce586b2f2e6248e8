// Package orch is the service object the host talks to. It is built once at
// startup and shared by every call site.
package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/p2pcall/internal/app"
	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
	"github.com/dkeye/p2pcall/internal/metrics"
	"github.com/rs/zerolog/log"
)

type Options struct {
	QueueCapacity int
	QueuePolicy   app.QueuePolicy
	RoleCollision app.CollisionPolicy
}

type Orchestrator struct {
	Registry   *app.Directory
	Rooms      *app.RoomTable
	Dispatcher *app.Dispatcher
	Metrics    *metrics.Metrics
}

func New(opts Options, proc core.Processor, host core.Pusher, m *metrics.Metrics) *Orchestrator {
	if m == nil {
		m = metrics.New()
	}
	reg := app.NewDirectory()
	rooms := app.NewRoomTable(reg, opts.RoleCollision, m)
	pub := app.NewPublisher(host, m)
	disp := app.NewDispatcher(app.DispatcherOptions{
		Capacity: opts.QueueCapacity,
		Policy:   opts.QueuePolicy,
	}, reg, rooms, proc, pub, m)
	return &Orchestrator{
		Registry:   reg,
		Rooms:      rooms,
		Dispatcher: disp,
		Metrics:    m,
	}
}

// Run drives the dispatcher worker until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	return o.Dispatcher.Run(ctx)
}

// CreateSession associates a fresh, unbound session with handle.
func (o *Orchestrator) CreateSession(handle core.Handle) error {
	if handle == "" {
		return domain.ErrEmptyHandle
	}
	sess := o.Rooms.Admit(handle)
	o.Metrics.Inc(metrics.EventSessionCreated)
	log.Info().Str("module", "orch").Stringer("session", sess.Ref()).Msg("initializing session")
	return nil
}

// HandleMessage wraps an inbound message with a non-owning reference to its
// session and queues it. Unknown handles fail synchronously and nothing is
// queued.
func (o *Orchestrator) HandleMessage(ctx context.Context, handle core.Handle, transaction string, body, jsep core.Payload) error {
	sess, ok := o.Registry.Lookup(handle)
	if !ok {
		o.Metrics.Inc(metrics.EventSessionNotFound)
		return fmt.Errorf("handle %q: %w", handle, domain.ErrSessionNotFound)
	}
	return o.Dispatcher.Enqueue(ctx, app.Envelope{
		Session:     sess.Ref(),
		Transaction: transaction,
		Body:        body,
		Jsep:        jsep,
	})
}

func (o *Orchestrator) QuerySession(handle core.Handle) (core.SessionInfo, error) {
	sess, ok := o.Registry.Lookup(handle)
	if !ok {
		return core.SessionInfo{}, fmt.Errorf("handle %q: %w", handle, domain.ErrSessionNotFound)
	}
	return sess.Info(), nil
}

type Stats struct {
	Sessions int               `json:"sessions"`
	Rooms    int               `json:"rooms"`
	QueueLen int               `json:"queue_len"`
	QueueCap int               `json:"queue_cap"`
	Events   map[string]uint64 `json:"events"`
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Sessions: o.Registry.Len(),
		Rooms:    o.Rooms.Len(),
		QueueLen: o.Dispatcher.Len(),
		QueueCap: o.Dispatcher.Cap(),
		Events:   o.Metrics.Snapshot(),
	}
}
