package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SlipScope/internal/domain/models"
	"SlipScope/internal/domain/repository"
	pkgkafka "SlipScope/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

const obsColumns = "ts, symbol, kind, price, volume, bid_price, bid_size, ask_price, ask_size"

func obsArgs(o *models.Observation) []interface{} {
	return []interface{}{
		o.Timestamp,
		o.Symbol,
		string(o.Kind),
		o.Price,
		o.Volume,
		o.BidPrice,
		o.BidSize,
		o.AskPrice,
		o.AskSize,
	}
}

func (s *ClickHouseStorage) Store(ctx context.Context, o *models.Observation) error {
	if err := o.Validate(); err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, obsColumns)
	_, err := s.db.ExecContext(ctx, q, obsArgs(o)...)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips, chunked at 2000 rows.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, o := range obs[start:end] {
			if o == nil || o.Symbol == "" || o.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, obsArgs(o)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, obsColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Observation, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?", obsColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObservations(rows)
}

// Latest returns the most recent n observations in chronological order.
func (s *ClickHouseStorage) Latest(ctx context.Context, symbol string, n int) ([]*models.Observation, error) {
	q := fmt.Sprintf("SELECT %s FROM (SELECT %s FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?) ORDER BY ts ASC",
		obsColumns, obsColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]*models.Observation, error) {
	var obs []*models.Observation
	for rows.Next() {
		var o models.Observation
		var ts time.Time
		var kind string
		if err := rows.Scan(&ts, &o.Symbol, &kind, &o.Price, &o.Volume,
			&o.BidPrice, &o.BidSize, &o.AskPrice, &o.AskSize); err != nil {
			return nil, err
		}
		o.Timestamp = ts
		o.Kind = models.ObservationKind(kind)
		obs = append(obs, &o)
	}
	return obs, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func obsPayload(o *models.Observation) map[string]interface{} {
	return map[string]interface{}{
		"symbol": o.Symbol,
		"t":      o.Timestamp.UnixMilli(),
		"kind":   string(o.Kind),
		"p":      o.Price,
		"v":      o.Volume,
		"b":      o.BidPrice,
		"bs":     o.BidSize,
		"a":      o.AskPrice,
		"as":     o.AskSize,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.Observation) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.Symbol), obsPayload(o))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(o.Symbol),
			Value: obsPayload(o),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
