package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmerrifield20/anchorledger/internal/notify"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

// Result types are shared with the server so both transports decode into
// the same values.
type (
	Record       = model.Record
	BatchResult  = model.BatchResult
	BatchItem    = model.BatchItem
	ItemStatus   = model.ItemStatus
	Verification = model.Verification
	Event        = notify.Event
)

// Sentinel errors mapped from HTTP status codes. The first four are the
// registry's own errors, so errors.Is works the same against the gRPC client.
var (
	ErrInvalidHash     = model.ErrInvalidHash
	ErrAlreadyAnchored = model.ErrAlreadyAnchored
	ErrNotAnchored     = model.ErrNotAnchored
	ErrUnauthorized    = model.ErrInvalidSubmitter
	ErrBadRequest      = errors.New("bad request")
	ErrRateLimited     = errors.New("rate limited")
)

const maxResponseBytes = 4 << 20

// Overview is the response of GET /api/v1/anchors.
type Overview struct {
	Records     int     `json:"records"`
	LastOrdinal uint64  `json:"last_ordinal"`
	Indexed     int     `json:"indexed,omitempty"`
	Recent      []Event `json:"recent,omitempty"`
}

// Client is the SDK entry point.
type Client struct {
	base        string
	httpClient  *http.Client
	bearerToken string
	submitter   string
	cache       *recordCache
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithBearerToken attaches a submitter token to every write request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// WithSubmitter sets the X-Submitter header used by servers in open mode.
func WithSubmitter(submitter string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(submitter) == "" {
			return errors.New("submitter must not be empty")
		}
		c.submitter = submitter
		return nil
	}
}

// WithCacheTTL enables in-memory caching of anchor records. Records never
// change once created, so the TTL only bounds memory.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		c.cache = newRecordCache(ttl)
		return nil
	}
}

// New creates a Client for the registry at base, e.g. "http://localhost:8080".
//
//	c, err := client.New("http://localhost:8080",
//	    client.WithBearerToken(tok),
//	    client.WithCacheTTL(time.Hour),
//	)
func New(base string, opts ...Option) (*Client, error) {
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// AnchorSingle anchors one content hash.
func (c *Client) AnchorSingle(ctx context.Context, hash digest.Digest) (*Record, error) {
	return c.anchor(ctx, "/api/v1/anchors", hash)
}

// AnchorRoot anchors a Merkle root.
func (c *Client) AnchorRoot(ctx context.Context, root digest.Digest) (*Record, error) {
	return c.anchor(ctx, "/api/v1/roots", root)
}

func (c *Client) anchor(ctx context.Context, path string, hash digest.Digest) (*Record, error) {
	var rec Record
	if err := c.call(ctx, http.MethodPost, path, map[string]string{"hash": hash.Hex()}, &rec); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.set(rec.Hash, &rec)
	}
	return &rec, nil
}

// AnchorBatch anchors many hashes in one call. Zero and already-anchored
// entries are reported as skipped rather than failing the call.
func (c *Client) AnchorBatch(ctx context.Context, hashes []digest.Digest) (*BatchResult, error) {
	var res BatchResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/anchors/batch", map[string][]string{"hashes": digest.HexAll(hashes)}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetAnchor returns the anchor record for hash, or ErrNotAnchored.
func (c *Client) GetAnchor(ctx context.Context, hash digest.Digest) (*Record, error) {
	if c.cache != nil {
		if rec, ok := c.cache.get(hash); ok {
			return rec, nil
		}
	}

	var rec Record
	if err := c.call(ctx, http.MethodGet, "/api/v1/anchors/"+hash.Hex(), nil, &rec); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.set(hash, &rec)
	}
	return &rec, nil
}

// Verify checks an inclusion proof server-side. With checkRoot the server
// also reports whether root is anchored.
func (c *Client) Verify(ctx context.Context, proof []digest.Digest, root, leaf digest.Digest, checkRoot bool) (*Verification, error) {
	body := map[string]any{
		"proof":      digest.HexAll(proof),
		"root":       root.Hex(),
		"leaf":       leaf.Hex(),
		"check_root": checkRoot,
	}
	var v Verification
	if err := c.call(ctx, http.MethodPost, "/api/v1/verify", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Overview returns registry statistics and the most recent notifications.
func (c *Client) Overview(ctx context.Context, limit int) (*Overview, error) {
	var o Overview
	if err := c.call(ctx, http.MethodGet, "/api/v1/anchors?limit="+strconv.Itoa(limit), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Health reports whether the server answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/healthz", nil, nil)
}

// call sends reqBody as JSON and decodes a 2xx response into respBody.
func (c *Client) call(ctx context.Context, method, path string, reqBody, respBody any) error {
	var rdr io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do executes an HTTP request with credentials attached and maps error
// statuses to the sentinel errors.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	} else if c.submitter != "" {
		req.Header.Set("X-Submitter", c.submitter)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 300 {
		return body, nil
	}

	msg := errorMessage(body)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		switch msg {
		case ErrInvalidHash.Error():
			return nil, ErrInvalidHash
		case ErrUnauthorized.Error():
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, msg)
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusNotFound:
		return nil, ErrNotAnchored
	case http.StatusConflict:
		return nil, ErrAlreadyAnchored
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}
	return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, msg)
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
