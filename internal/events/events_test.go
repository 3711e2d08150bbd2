package events

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, string, string, interface{}) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingPublisher) Close() error { return nil }

func TestEmitSwallowsAndLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := &failingPublisher{}
	Emit(context.Background(), pub, zap.New(core), "order.placed", "o1", OrderPlaced{OrderID: "o1"})
	if pub.calls != 1 {
		t.Fatalf("expected one publish attempt, got %d", pub.calls)
	}
	if logs.FilterMessage("event_publish_failed").Len() != 1 {
		t.Fatalf("expected failure to be logged")
	}
}

func TestEmitNilPublisher(t *testing.T) {
	Emit(context.Background(), nil, zap.NewNop(), "t", "k", nil)
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	pub := NewLogPublisher(zap.New(core))
	if err := pub.Publish(context.Background(), "product.created", "p1", ProductCreated{ProductID: "p1"}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if logs.FilterMessage("domain_event").Len() != 1 {
		t.Fatalf("expected debug event log")
	}
	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}
}

func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestKafkaPublisherRejectsUnencodablePayload(t *testing.T) {
	pub := NewKafkaPublisher([]string{closedAddr(t)})
	defer pub.Close()

	err := pub.Publish(context.Background(), "order.placed", "o1", map[string]interface{}{"bad": make(chan int)})
	if err == nil || !strings.Contains(err.Error(), "marshal order.placed event") {
		t.Fatalf("expected marshal error, got %v", err)
	}
}

func TestKafkaPublisherUnreachableBroker(t *testing.T) {
	pub := NewKafkaPublisher([]string{closedAddr(t)})
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, "order.placed", "o1", OrderPlaced{OrderID: "o1"}); err == nil {
		t.Fatalf("expected delivery to fail without a broker")
	}
}

func TestKafkaReadinessCheck(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := KafkaReady(nil)(ctx); err == nil || !strings.Contains(err.Error(), "no kafka brokers") {
		t.Fatalf("expected missing broker error, got %v", err)
	}
	if err := KafkaReady([]string{closedAddr(t)})(ctx); err == nil {
		t.Fatalf("expected dial error for a closed port")
	}
}
