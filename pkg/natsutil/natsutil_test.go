package natsutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	natstest "github.com/nats-io/nats-server/v2/test"
)

type checkReq struct {
	VIN string `json:"vin"`
}

type checkResp struct {
	VIN   string `json:"vin"`
	Valid bool   `json:"valid"`
}

func connect(t *testing.T) *nats.Conn {
	t.Helper()
	srv := natstest.RunRandClientPortServer()
	t.Cleanup(srv.Shutdown)
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(nc.Close)
	return nc
}

func TestNatsHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*natsHeaderCarrier)(msg)

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestNatsHeaderCarrierNilHeader(t *testing.T) {
	carrier := (*natsHeaderCarrier)(&nats.Msg{})
	if got := carrier.Get("missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if keys := carrier.Keys(); keys != nil {
		t.Fatalf("expected nil keys, got %v", keys)
	}
}

func TestPublishSubscribe(t *testing.T) {
	nc := connect(t)

	ch := make(chan checkReq, 1)
	sub, err := Subscribe(nc, "test.pubsub", func(_ context.Context, m checkReq) { ch <- m })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	// Malformed payloads are dropped without reaching the handler.
	if err := nc.Publish("test.pubsub", []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if err := Publish(context.Background(), nc, "test.pubsub", checkReq{VIN: "1HGCM82633A004352"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.VIN != "1HGCM82633A004352" {
			t.Fatalf("unexpected message %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHandleAndRequest(t *testing.T) {
	nc := connect(t)

	sub, err := Handle(nc, "test.check", "workers", func(_ context.Context, r checkReq) checkResp {
		return checkResp{VIN: r.VIN, Valid: len(r.VIN) == 17}
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := Request[checkReq, checkResp](ctx, nc, "test.check", checkReq{VIN: "1HGCM82633A004352"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if !got.Valid || got.VIN != "1HGCM82633A004352" {
		t.Fatalf("unexpected reply %+v", got)
	}
}

func TestRequestTimesOutWithoutResponder(t *testing.T) {
	nc := connect(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := Request[checkReq, checkResp](ctx, nc, "test.nobody", checkReq{}); err == nil {
		t.Fatal("expected error without responder")
	}
}

func TestQueueSubscribeDeliversOnce(t *testing.T) {
	nc := connect(t)

	var mu sync.Mutex
	count := 0
	done := make(chan struct{})
	handler := func(_ context.Context, _ checkReq) {
		mu.Lock()
		defer mu.Unlock()
		count++
		if count == 10 {
			close(done)
		}
	}
	for i := 0; i < 2; i++ {
		sub, err := QueueSubscribe(nc, "test.queue", "intake", handler)
		if err != nil {
			t.Fatalf("QueueSubscribe: %v", err)
		}
		defer sub.Unsubscribe()
	}

	for i := 0; i < 10; i++ {
		if err := Publish(context.Background(), nc, "test.queue", checkReq{VIN: "X"}); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for messages")
	}
	nc.Flush()
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 10 {
		t.Fatalf("expected each message once, got %d deliveries", count)
	}
}
