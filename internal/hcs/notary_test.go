package hcs

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmerrifield20/anchorledger/internal/notify"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"go.uber.org/zap"
)

func testEvent(submitter string) notify.Event {
	return notify.NewAnchoredEvent(model.Record{
		Hash:       digest.SumString("notarised"),
		Submitter:  submitter,
		Ordinal:    7,
		ObservedAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	})
}

func TestNew_validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"no operator", Config{OperatorKey: "k", TopicID: "0.0.5"}, "operator account ID is required"},
		{"no key", Config{OperatorID: "0.0.2", TopicID: "0.0.5"}, "operator private key is required"},
		{"bad operator", Config{OperatorID: "nope", OperatorKey: "k", TopicID: "0.0.5"}, "invalid operator account ID"},
		{"bad key", Config{OperatorID: "0.0.2", OperatorKey: "zz", TopicID: "0.0.5"}, "unparseable operator key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, zap.NewNop())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestConfig_Enabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	if !(Config{TopicID: "0.0.1234"}).Enabled() {
		t.Error("config with topic should be enabled")
	}
}

func TestMessage(t *testing.T) {
	ev := testEvent("alice")
	b, err := Message(ev)
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	var got message
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Protocol != Protocol || got.Hash != ev.DataHash.Hex() || got.Ordinal != 7 || got.Submitter != "alice" {
		t.Errorf("unexpected message: %+v", got)
	}
	if got.ObservedAt != "2026-10-19T08:00:00Z" {
		t.Errorf("observed_at: %s", got.ObservedAt)
	}
}

func TestMessage_tooLarge(t *testing.T) {
	_, err := Message(testEvent(strings.Repeat("s", MaxMessageBytes)))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("want ErrMessageTooLarge, got %v", err)
	}
}

func TestNotary_Handle(t *testing.T) {
	var (
		payloads [][]byte
		outcomes []bool
	)
	n := &Notary{logger: zap.NewNop()}
	n.SetMetricsRecorder(func(ok bool) { outcomes = append(outcomes, ok) })
	n.submit = func(p []byte) (Receipt, error) {
		payloads = append(payloads, p)
		if len(payloads) == 2 {
			return Receipt{}, errors.New("busy")
		}
		return Receipt{TransactionID: "0.0.2@1.1", SequenceNumber: uint64(len(payloads))}, nil
	}

	n.Handle(context.Background(), testEvent("alice"))
	n.Handle(context.Background(), testEvent("bob"))

	if len(payloads) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(payloads))
	}
	if len(outcomes) != 2 || !outcomes[0] || outcomes[1] {
		t.Errorf("outcomes: %v", outcomes)
	}
}

func TestNotary_Handle_cancelled(t *testing.T) {
	called := false
	n := &Notary{logger: zap.NewNop(), submit: func([]byte) (Receipt, error) {
		called = true
		return Receipt{}, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Handle(ctx, testEvent("alice"))
	if called {
		t.Error("submit called with cancelled context")
	}
	if err := n.Close(); err != nil {
		t.Errorf("Close without client: %v", err)
	}
}
