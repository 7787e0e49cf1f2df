package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"custos/internal/platform/kafka"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

// Publisher captures structured audit events. The store write is the durable
// copy; when a kafka producer is configured, events are mirrored to the
// compliance topic after the store accepts them.
//
// Emit is fail-closed for compliance events: if the store write fails, the
// caller MUST fail its operation. A custody append that cannot be audited did
// not happen.
type Publisher struct {
	store    Store
	producer *kafka.Producer
	logger   *slog.Logger
}

func NewPublisher(store Store, producer *kafka.Producer, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, producer: producer, logger: logger}
}

// Emit persists one audit event, filling timestamp, actor, and request ID
// from context when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Actor(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail write failed")
	}

	p.mirror(ctx, event)
	return nil
}

// mirror publishes the event to kafka, best-effort. The store already holds
// the durable copy.
func (p *Publisher) mirror(ctx context.Context, event Event) {
	if p.producer == nil {
		return
	}
	payload, err := json.Marshal(kafkaPayload(event))
	if err != nil {
		p.logger.ErrorContext(ctx, "audit event marshal failed", "error", err.Error())
		return
	}
	key := []byte(event.CaseID)
	if len(key) == 0 {
		key = []byte(event.EvidenceID)
	}
	if err := p.producer.Produce(ctx, key, payload); err != nil {
		p.logger.WarnContext(ctx, "audit kafka mirror failed",
			"action", string(event.Action),
			"error", err.Error(),
		)
	}
}

// ListByCase returns the audit trail for a case in emission order.
func (p *Publisher) ListByCase(ctx context.Context, caseID string) ([]Event, error) {
	return p.store.ListByCase(ctx, caseID)
}

type payload struct {
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	Action     string `json:"action"`
	CaseID     string `json:"case_id,omitempty"`
	EvidenceID string `json:"evidence_id,omitempty"`
	DisposalID string `json:"disposal_id,omitempty"`
	Actor      string `json:"actor"`
	Decision   string `json:"decision,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func kafkaPayload(e Event) payload {
	return payload{
		Category:   string(e.Category),
		Timestamp:  e.Timestamp.Format(time.RFC3339Nano),
		Action:     string(e.Action),
		CaseID:     e.CaseID,
		EvidenceID: e.EvidenceID,
		DisposalID: e.DisposalID,
		Actor:      e.Actor,
		Decision:   e.Decision,
		Reason:     e.Reason,
		RequestID:  e.RequestID,
	}
}
