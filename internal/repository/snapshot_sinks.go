package repository

import (
	"context"
	"fmt"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	pkgch "KryptoMarket/pkg/clickhouse"
	pkgkafka "KryptoMarket/pkg/kafka"
	xlogger "KryptoMarket/pkg/logger"
)

// NoopSink drops every snapshot.
type NoopSink struct{}

var _ domrepo.SnapshotSink = NoopSink{}

func (NoopSink) Publish(context.Context, models.AnalysisSnapshot) error { return nil }
func (NoopSink) Name() string                                          { return "none" }
func (NoopSink) Close() error                                          { return nil }

// Publisher is the part of pkg/kafka.Producer the sink needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

var _ Publisher = (*pkgkafka.Producer)(nil)

// KafkaSnapshotSink writes snapshots as JSON keyed by symbol, so one symbol's
// history stays ordered within a partition.
type KafkaSnapshotSink struct {
	producer Publisher
	topic    string
	owned    bool
}

var _ domrepo.SnapshotSink = (*KafkaSnapshotSink)(nil)

// NewKafkaSnapshotSink publishes on topic. When owned is false Close leaves the
// producer open for its other users (the log digest).
func NewKafkaSnapshotSink(producer Publisher, topic string, owned bool) *KafkaSnapshotSink {
	return &KafkaSnapshotSink{producer: producer, topic: topic, owned: owned}
}

func (s *KafkaSnapshotSink) Publish(ctx context.Context, snap models.AnalysisSnapshot) error {
	return s.producer.Publish(ctx, s.topic, []byte(snap.Symbol), snap)
}

func (s *KafkaSnapshotSink) Name() string { return "kafka" }

func (s *KafkaSnapshotSink) Close() error {
	if !s.owned {
		return nil
	}
	return s.producer.Close()
}

// ClickHouseSnapshotSink appends snapshots to <db>.analysis_snapshots.
type ClickHouseSnapshotSink struct {
	client *pkgch.Client
	logger *xlogger.Logger
}

var _ domrepo.SnapshotSink = (*ClickHouseSnapshotSink)(nil)

// SnapshotSchema returns the DDL for the snapshot table in database db.
func SnapshotSchema(db string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.analysis_snapshots (
			symbol       LowCardinality(String),
			interval     LowCardinality(String),
			candle_time  DateTime64(3, 'UTC'),
			close        Float64,
			rsi          Float64,
			macd         Float64,
			macd_signal  Float64,
			macd_hist    Float64,
			ema20        Float64,
			ema50        Float64,
			ema200       Float64,
			signal       LowCardinality(String),
			computed_at  DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(computed_at)
		PARTITION BY toYYYYMM(candle_time)
		ORDER BY (symbol, interval, candle_time)`, db),
	}
}

// NewClickHouseSnapshotSink creates the schema and returns the sink.
func NewClickHouseSnapshotSink(ctx context.Context, client *pkgch.Client, logger *xlogger.Logger) (*ClickHouseSnapshotSink, error) {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if err := client.InitSchema(ctx, SnapshotSchema(client.Database())); err != nil {
		return nil, err
	}
	return &ClickHouseSnapshotSink{client: client, logger: logger}, nil
}

func (s *ClickHouseSnapshotSink) Publish(ctx context.Context, snap models.AnalysisSnapshot) error {
	query := fmt.Sprintf(`INSERT INTO %s.analysis_snapshots
		(symbol, interval, candle_time, close, rsi, macd, macd_signal, macd_hist, ema20, ema50, ema200, signal, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.client.Database())

	_, err := s.client.DB().ExecContext(ctx, query,
		snap.Symbol, snap.Interval, snap.CandleTime.UTC(), snap.Close,
		snap.RSI, snap.MACD, snap.MACDSignal, snap.MACDHist,
		snap.EMA20, snap.EMA50, snap.EMA200, string(snap.Signal), snap.ComputedAt.UTC(),
	)
	if err != nil {
		s.logger.Error("clickhouse snapshot insert failed",
			xlogger.String("symbol", snap.Symbol),
			xlogger.String("interval", snap.Interval),
			xlogger.Error(err),
		)
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *ClickHouseSnapshotSink) Name() string { return "clickhouse" }

func (s *ClickHouseSnapshotSink) Close() error { return s.client.Close() }
