package usecase

import (
	"context"
	"encoding/json"
	"time"

	"SlipScope/internal/domain/models"
	domrepo "SlipScope/internal/domain/repository"
	pkgkafka "SlipScope/pkg/kafka"
)

// KafkaObservationsHandler consumes observation messages and writes them to storage.
type KafkaObservationsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, kind, p, v, b, bs, a, as}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		Kind   string  `json:"kind"`
		P      float64 `json:"p"`
		V      float64 `json:"v"`
		B      float64 `json:"b"`
		BS     float64 `json:"bs"`
		A      float64 `json:"a"`
		AS     float64 `json:"as"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	ts := time.Unix(m.T, 0)
	if m.T > 1e11 { // ms
		ts = time.UnixMilli(m.T)
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	o := &models.Observation{
		Symbol:    m.Symbol,
		Timestamp: ts,
		Kind:      models.ObservationKind(m.Kind),
		Price:     m.P,
		Volume:    m.V,
		BidPrice:  m.B,
		BidSize:   m.BS,
		AskPrice:  m.A,
		AskSize:   m.AS,
	}

	start := time.Now()
	err := h.storage.Store(ctx, o)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
