package grpcapi

import (
	"context"
	"time"

	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	// Token is sent as a bearer token on write calls when set.
	Token string
	// Submitter is sent as x-submitter metadata when Token is empty.
	Submitter string
	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

// Client is a typed client for the Anchor gRPC service. Errors are mapped
// back to the model sentinel errors, so callers can use errors.Is exactly as
// they would against the service.
type Client struct {
	cc   *grpc.ClientConn // nil when built with NewClient
	rpc  AnchorClient
	opts ClientOptions
}

// Dial connects to target without transport security.
func Dial(target string, opts ClientOptions) (*Client, error) {
	cc, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	c := NewClient(cc, opts)
	c.cc = cc
	return c, nil
}

// NewClient wraps an existing connection. Close does not close cc.
func NewClient(cc grpc.ClientConnInterface, opts ClientOptions) *Client {
	return &Client{rpc: NewAnchorClient(cc), opts: opts}
}

// Close releases the connection opened by Dial.
func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// AnchorSingle anchors hash.
func (c *Client) AnchorSingle(ctx context.Context, hash digest.Digest) (*model.Record, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.rpc.AnchorSingle(ctx, hashRequest(hash))
	return decode[model.Record](reply, err)
}

// AnchorRoot anchors a Merkle root.
func (c *Client) AnchorRoot(ctx context.Context, root digest.Digest) (*model.Record, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.rpc.AnchorRoot(ctx, hashRequest(root))
	return decode[model.Record](reply, err)
}

// AnchorBatch anchors hashes in one call.
func (c *Client) AnchorBatch(ctx context.Context, hashes []digest.Digest) (*model.BatchResult, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	in := &structpb.Struct{Fields: map[string]*structpb.Value{"hashes": digestList(hashes)}}
	reply, err := c.rpc.AnchorBatch(ctx, in)
	return decode[model.BatchResult](reply, err)
}

// GetAnchor returns the record for hash or model.ErrNotAnchored.
func (c *Client) GetAnchor(ctx context.Context, hash digest.Digest) (*model.Record, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.rpc.GetAnchor(ctx, hashRequest(hash))
	return decode[model.Record](reply, err)
}

// Verify checks an inclusion proof server-side. With checkRoot the server
// also reports whether root is anchored.
func (c *Client) Verify(ctx context.Context, proof []digest.Digest, root, leaf digest.Digest, checkRoot bool) (*model.Verification, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"proof":      digestList(proof),
		"root":       structpb.NewStringValue(root.Hex()),
		"leaf":       structpb.NewStringValue(leaf.Hex()),
		"check_root": structpb.NewBoolValue(checkRoot),
	}}
	reply, err := c.rpc.VerifyInclusion(ctx, in)
	return decode[model.Verification](reply, err)
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	switch {
	case c.opts.Token != "":
		parent = metadata.AppendToOutgoingContext(parent, "authorization", "Bearer "+c.opts.Token)
	case c.opts.Submitter != "":
		parent = metadata.AppendToOutgoingContext(parent, SubmitterMetadataKey, c.opts.Submitter)
	}
	if c.opts.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.opts.Timeout)
}

func decode[T any](reply *structpb.Struct, err error) (*T, error) {
	if err != nil {
		return nil, mapRPC(err)
	}
	out := new(T)
	if err := fromStruct(reply, out); err != nil {
		return nil, err
	}
	return out, nil
}
