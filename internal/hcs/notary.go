// Package hcs mirrors Anchored notifications onto a Hedera Consensus Service
// topic. Each event becomes one topic message, so every anchor also carries a
// consensus timestamp and sequence number assigned by the Hedera network.
package hcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/jmerrifield20/anchorledger/internal/notify"
	"go.uber.org/zap"
)

// Protocol tags every message published by the notary.
const Protocol = "anchorledger/1"

// MaxMessageBytes is the largest payload that fits in a single HCS chunk.
const MaxMessageBytes = 1024

// Network names accepted in Config.
const (
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
)

// ErrMessageTooLarge is returned by Message when an event does not fit in one chunk.
var ErrMessageTooLarge = errors.New("hcs: message exceeds single chunk")

// Config selects the Hedera network, paying operator and destination topic.
type Config struct {
	Network     string `mapstructure:"network"`
	OperatorID  string `mapstructure:"operator_id"`
	OperatorKey string `mapstructure:"operator_key"`
	TopicID     string `mapstructure:"topic_id"`
}

// Enabled reports whether a topic has been configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.TopicID) != ""
}

// Receipt identifies a published topic message.
type Receipt struct {
	TransactionID  string
	SequenceNumber uint64
}

// submitFunc publishes one payload and returns its receipt.
type submitFunc func(payload []byte) (Receipt, error)

// MetricsRecorder is an optional callback for recording publish outcomes.
type MetricsRecorder func(success bool)

// Notary is a notify.Sink that submits each event to an HCS topic.
type Notary struct {
	client    *hedera.Client
	submit    submitFunc
	onMetrics MetricsRecorder
	logger    *zap.Logger
}

// New connects a Notary for cfg. No network traffic happens until the first
// event is handled.
func New(cfg Config, logger *zap.Logger) (*Notary, error) {
	if strings.TrimSpace(cfg.OperatorID) == "" {
		return nil, fmt.Errorf("hcs: operator account ID is required")
	}
	if strings.TrimSpace(cfg.OperatorKey) == "" {
		return nil, fmt.Errorf("hcs: operator private key is required")
	}
	operatorID, err := hedera.AccountIDFromString(strings.TrimSpace(cfg.OperatorID))
	if err != nil {
		return nil, fmt.Errorf("hcs: invalid operator account ID: %w", err)
	}
	operatorKey, err := parsePrivateKey(cfg.OperatorKey)
	if err != nil {
		return nil, err
	}
	topic, err := hedera.TopicIDFromString(strings.TrimSpace(cfg.TopicID))
	if err != nil {
		return nil, fmt.Errorf("hcs: invalid topic ID %q: %w", cfg.TopicID, err)
	}

	var client *hedera.Client
	switch strings.ToLower(strings.TrimSpace(cfg.Network)) {
	case "", NetworkTestnet:
		client = hedera.ClientForTestnet()
	case NetworkMainnet:
		client = hedera.ClientForMainnet()
	default:
		return nil, fmt.Errorf("hcs: unknown network %q", cfg.Network)
	}
	client.SetOperator(operatorID, operatorKey)

	n := &Notary{client: client, logger: logger}
	n.submit = func(payload []byte) (Receipt, error) {
		resp, err := hedera.NewTopicMessageSubmitTransaction().
			SetTopicID(topic).
			SetMessage(payload).
			SetTransactionMemo(Protocol).
			Execute(client)
		if err != nil {
			return Receipt{}, fmt.Errorf("submit topic message: %w", err)
		}
		receipt, err := resp.GetReceipt(client)
		if err != nil {
			return Receipt{}, fmt.Errorf("get topic message receipt: %w", err)
		}
		return Receipt{
			TransactionID:  resp.TransactionID.String(),
			SequenceNumber: receipt.TopicSequenceNumber,
		}, nil
	}
	return n, nil
}

// parsePrivateKey accepts ED25519, ECDSA or DER-encoded operator keys.
func parsePrivateKey(raw string) (hedera.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if key, err := hedera.PrivateKeyFromStringEd25519(candidate); err == nil {
		return key, nil
	}
	if key, err := hedera.PrivateKeyFromStringECDSA(candidate); err == nil {
		return key, nil
	}
	key, err := hedera.PrivateKeyFromString(candidate)
	if err != nil {
		return hedera.PrivateKey{}, fmt.Errorf("hcs: unparseable operator key: %w", err)
	}
	return key, nil
}

// SetMetricsRecorder configures the metrics callback.
func (n *Notary) SetMetricsRecorder(fn MetricsRecorder) {
	n.onMetrics = fn
}

// Name implements notify.Sink.
func (n *Notary) Name() string { return "hcs" }

// Handle implements notify.Sink. Failures are logged; the anchor itself is
// already committed and is not affected.
func (n *Notary) Handle(ctx context.Context, ev notify.Event) {
	if ctx.Err() != nil {
		return
	}
	payload, err := Message(ev)
	if err != nil {
		n.logger.Error("hcs: encode event", zap.String("event_id", ev.ID.String()), zap.Error(err))
		n.record(false)
		return
	}
	receipt, err := n.submit(payload)
	if err != nil {
		n.logger.Warn("hcs: publish failed",
			zap.String("event_id", ev.ID.String()),
			zap.String("data_hash", ev.DataHash.Hex()),
			zap.Error(err),
		)
		n.record(false)
		return
	}
	n.record(true)
	n.logger.Debug("hcs: published",
		zap.String("data_hash", ev.DataHash.Hex()),
		zap.String("transaction_id", receipt.TransactionID),
		zap.Uint64("sequence", receipt.SequenceNumber),
	)
}

// Close releases the Hedera client.
func (n *Notary) Close() error {
	if n.client == nil {
		return nil
	}
	return n.client.Close()
}

func (n *Notary) record(success bool) {
	if n.onMetrics != nil {
		n.onMetrics(success)
	}
}

// message is the on-topic representation of an Anchored event.
type message struct {
	Protocol   string `json:"p"`
	Hash       string `json:"hash"`
	Submitter  string `json:"submitter"`
	Ordinal    uint64 `json:"ordinal"`
	ObservedAt string `json:"observed_at"`
}

// Message encodes ev as a compact topic message.
func Message(ev notify.Event) ([]byte, error) {
	b, err := json.Marshal(message{
		Protocol:   Protocol,
		Hash:       ev.DataHash.Hex(),
		Submitter:  ev.Submitter,
		Ordinal:    ev.Ordinal,
		ObservedAt: ev.ObservedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	if len(b) > MaxMessageBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(b))
	}
	return b, nil
}
