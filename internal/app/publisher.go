package app

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
	"github.com/dkeye/p2pcall/internal/metrics"
)

// Publisher delivers outcome payloads through the host's push primitive.
// It never retries.
type Publisher struct {
	host    core.Pusher
	metrics *metrics.Metrics
}

func NewPublisher(host core.Pusher, m *metrics.Metrics) *Publisher {
	return &Publisher{host: host, metrics: m}
}

func (p *Publisher) Publish(target *Session, transaction string, payload core.Payload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		p.metrics.Inc(metrics.EventPublishFailed)
		return fmt.Errorf("encode payload for %s: %w", target.ref, err)
	}
	if err := p.host.Push(target.Handle(), transaction, b); err != nil {
		p.metrics.Inc(metrics.EventPublishFailed)
		return fmt.Errorf("push to %s: %w: %w", target.ref, domain.ErrPublish, err)
	}
	p.metrics.Inc(metrics.EventPublished)
	return nil
}

// MarkOK returns a copy of payload with "ok": true unless it already
// carries an ok key. The processor's map is never written.
func MarkOK(payload core.Payload) core.Payload {
	out := make(core.Payload, len(payload)+1)
	maps.Copy(out, payload)
	if _, ok := out["ok"]; !ok {
		out["ok"] = true
	}
	return out
}

// FailurePayload is the wire form of every processing error.
func FailurePayload(err error) core.Payload {
	return core.Payload{"ok": false, "error": err.Error()}
}
