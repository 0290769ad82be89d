package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/nats-io/nats.go"
)

func TestClickConsumer_HandleStoresEvent(t *testing.T) {
	repo := &memClickRepository{}
	c := NewClickConsumer(nil, nil, repo)

	event := model.ClickEvent{ID: "evt-1", LinkID: 3, OwnerID: 1, IP: "198.51.100.1", Timestamp: time.Now().UTC()}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := c.handle(context.Background(), data); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].ID != "evt-1" || repo.events[0].LinkID != 3 {
		t.Fatalf("unexpected stored events %+v", repo.events)
	}
}

func TestClickConsumer_HandleRejectsBadPayload(t *testing.T) {
	repo := &memClickRepository{}
	c := NewClickConsumer(nil, nil, repo)

	if err := c.handle(context.Background(), []byte("{not json")); !errors.Is(err, errMalformedClick) {
		t.Fatalf("expected errMalformedClick, got %v", err)
	}
	if len(repo.events) != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestClickConsumer_HandleReportsStoreFailure(t *testing.T) {
	storeErr := errors.New("db down")
	c := NewClickConsumer(nil, nil, &memClickRepository{err: storeErr})

	data, _ := json.Marshal(model.ClickEvent{ID: "evt-2", LinkID: 1})
	if err := c.handle(context.Background(), data); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

type recordedAck struct {
	acked, naked, termed int
}

func (r *recordedAck) Ack(...nats.AckOpt) error {
	r.acked++
	return nil
}

func (r *recordedAck) Nak(...nats.AckOpt) error {
	r.naked++
	return nil
}

func (r *recordedAck) Term(...nats.AckOpt) error {
	r.termed++
	return nil
}

func TestSettle(t *testing.T) {
	c := NewClickConsumer(nil, nil, &memClickRepository{err: errors.New("db down")})

	tests := []struct {
		name string
		data []byte
		want recordedAck
	}{
		{name: "stored", data: nil, want: recordedAck{acked: 1}},
		{name: "undecodable is terminated", data: []byte("{not json"), want: recordedAck{termed: 1}},
		{name: "store failure is redelivered", data: []byte(`{"id":"evt-3","link_id":1}`), want: recordedAck{naked: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg recordedAck
			var err error
			if tt.data != nil {
				err = c.handle(context.Background(), tt.data)
			}
			settle(&msg, err)
			if msg != tt.want {
				t.Fatalf("got %+v, want %+v", msg, tt.want)
			}
		})
	}
}

func TestClickConsumer_StopWaitsForLoop(t *testing.T) {
	c := NewClickConsumer(nil, nil, &memClickRepository{})
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go func() {
		<-ctx.Done()
		close(c.done)
	}()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := c.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Stop returned before the loop exited")
	}
}

func TestClickConsumer_StopTimesOut(t *testing.T) {
	c := NewClickConsumer(nil, nil, &memClickRepository{})
	c.cancel = func() {}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stopCancel()
	if err := c.Stop(stopCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClickConsumer_StopBeforeStart(t *testing.T) {
	c := NewClickConsumer(nil, nil, &memClickRepository{})
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
