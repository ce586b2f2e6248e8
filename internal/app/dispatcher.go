package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
	"github.com/dkeye/p2pcall/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

const DefaultQueueCapacity = 1024

var ErrAlreadyRunning = errors.New("dispatcher already running")

// Envelope is an inbound message waiting for the worker.
// Session is non-owning: the session may be gone by the time it is dequeued.
type Envelope struct {
	Session     core.SessionRef
	Transaction string
	Body        core.Payload
	Jsep        core.Payload
}

type DispatcherOptions struct {
	Capacity int
	Policy   QueuePolicy
}

// Dispatcher is the single serialization point for message-driven
// mutations of the directory and the room table. Any number of producers
// may Enqueue; exactly one goroutine runs Run.
type Dispatcher struct {
	dir     *Directory
	rooms   *RoomTable
	proc    core.Processor
	pub     *Publisher
	policy  QueuePolicy
	metrics *metrics.Metrics

	queue    chan Envelope
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

func NewDispatcher(
	opts DispatcherOptions,
	dir *Directory,
	rooms *RoomTable,
	proc core.Processor,
	pub *Publisher,
	m *metrics.Metrics,
) *Dispatcher {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Dispatcher{
		dir:     dir,
		rooms:   rooms,
		proc:    proc,
		pub:     pub,
		policy:  opts.Policy,
		metrics: m,
		queue:   make(chan Envelope, capacity),
		done:    make(chan struct{}),
	}
}

// Enqueue hands env to the worker in FIFO order. With RejectNew it never
// blocks; with BlockProducer it waits for space or ctx.
func (d *Dispatcher) Enqueue(ctx context.Context, env Envelope) error {
	select {
	case <-d.done:
		return domain.ErrDispatcherClosed
	default:
	}

	if d.policy == BlockProducer {
		select {
		case d.queue <- env:
		case <-d.done:
			return domain.ErrDispatcherClosed
		case <-ctx.Done():
			return fmt.Errorf("enqueue: %w", ctx.Err())
		}
	} else {
		select {
		case d.queue <- env:
		default:
			d.metrics.Inc(metrics.EventQueueRejected)
			return domain.ErrQueueFull
		}
	}
	d.metrics.Inc(metrics.EventEnqueued)
	return nil
}

// Run processes envelopes until ctx is done or Close is called.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.Close()

	log.Info().Str("module", "app.dispatcher").Int("capacity", cap(d.queue)).Stringer("policy", d.policy).Msg("start handling messages")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.dispatcher").Int("pending", len(d.queue)).Msg("dispatcher ctx done")
			return nil
		case <-d.done:
			return nil
		case env := <-d.queue:
			d.process(env)
		}
	}
}

// Close stops the worker and rejects further envelopes.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() { close(d.done) })
}

func (d *Dispatcher) Len() int { return len(d.queue) }
func (d *Dispatcher) Cap() int { return cap(d.queue) }

func (d *Dispatcher) process(env Envelope) {
	logger := log.With().
		Str("module", "app.dispatcher").
		Stringer("session", env.Session).
		Str("transaction", env.Transaction).
		Logger()

	sess, ok := d.dir.Resolve(env.Session)
	if !ok {
		d.metrics.Inc(metrics.EventTeardownRace)
		logger.Warn().Msg("got a message for destroyed session")
		return
	}
	d.metrics.Inc(metrics.EventProcessed)

	out, err := d.invoke(sess, env)
	if err != nil {
		d.metrics.Inc(metrics.EventProtocolError)
		logger.Error().Err(err).Msg("error processing message")
		d.reply(&logger, sess, env.Transaction, FailurePayload(err))
		return
	}

	if out.Join != nil {
		if err := d.rooms.Claim(out.Join.RoomID, out.Join.Role, sess); err != nil {
			if errors.Is(err, domain.ErrSessionClosed) {
				d.metrics.Inc(metrics.EventTeardownRace)
				logger.Warn().Msg("session torn down before join was applied")
				return
			}
			d.metrics.Inc(metrics.EventProtocolError)
			logger.Warn().Err(err).Msg("join rejected")
			d.reply(&logger, sess, env.Transaction, FailurePayload(err))
			return
		}
	}

	target, ok := d.dir.Resolve(out.Target)
	if !ok {
		d.metrics.Inc(metrics.EventPeerHasGone)
		logger.Warn().Stringer("peer", out.Target).Msg("peer has gone")
		d.reply(&logger, sess, env.Transaction, FailurePayload(domain.ErrPeerHasGone))
		return
	}
	d.reply(&logger, target, env.Transaction, MarkOK(out.Payload))
}

func (d *Dispatcher) invoke(sess *Session, env Envelope) (out core.Outcome, err error) {
	snap := d.rooms.Snapshot(sess)
	req := core.Request{Transaction: env.Transaction, Body: env.Body, Jsep: env.Jsep}

	var pc panics.Catcher
	pc.Try(func() { out, err = d.proc.Process(snap, d.rooms, req) })
	if r := pc.Recovered(); r != nil {
		d.metrics.Inc(metrics.EventProcessorPanic)
		log.Error().
			Str("module", "app.dispatcher").
			Stringer("session", sess.ref).
			Interface("panic", r.Value).
			Bytes("stack", r.Stack).
			Msg("processor panicked")
		return core.Outcome{}, domain.NewProtocolError("internal error")
	}
	return out, err
}

func (d *Dispatcher) reply(logger *zerolog.Logger, target *Session, transaction string, payload core.Payload) {
	if err := d.pub.Publish(target, transaction, payload); err != nil {
		logger.Error().Err(err).Stringer("target", target.ref).Msg("publish failed, dropping")
	}
}
