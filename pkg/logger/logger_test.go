package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	logs   [][]AggregatedLogEntry
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.logs = append(p.logs, value.([]AggregatedLogEntry))
	return nil
}

func TestWriterLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)

	l.Info("tick", String("symbol", "BTCUSDT"), Float64("price", 42.5), Int("n", 3))

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if got["symbol"] != "BTCUSDT" || got["price"] != 42.5 || got["n"] != float64(3) {
		t.Fatalf("unexpected fields: %v", got)
	}
	if got["message"] != "tick" {
		t.Fatalf("unexpected message: %v", got["message"])
	}
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "logs",
		Publisher:      pub,
	})

	for i := 0; i < 5; i++ {
		l.Error("exchange down", String("symbol", "ETHUSDT"), Error(errors.New("boom")))
	}
	l.Error("other", String("symbol", "ETHUSDT"))

	if got := l.collector.Pending(); got != 2 {
		t.Fatalf("expected 2 unique entries, got %d", got)
	}

	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.logs) != 1 {
		t.Fatalf("expected one digest, got %d", len(pub.logs))
	}
	if pub.topics[0] != "logs" {
		t.Fatalf("unexpected topic %q", pub.topics[0])
	}
	total := 0
	for _, e := range pub.logs[0] {
		total += e.Count
	}
	if total != 6 {
		t.Fatalf("expected 6 occurrences in digest, got %d", total)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")

	if got := c.Pending(); got != 0 {
		t.Fatalf("expected flush at threshold, %d pending", got)
	}
}
