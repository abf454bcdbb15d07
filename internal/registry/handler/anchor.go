package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/anchorledger/internal/identity"
	"github.com/jmerrifield20/anchorledger/internal/index"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/internal/registry/service"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"go.uber.org/zap"
)

// DefaultMaxBatch bounds the number of hashes accepted by one batch request.
const DefaultMaxBatch = 1000

// AnchorHandler handles HTTP requests for the anchor registry.
type AnchorHandler struct {
	svc      *service.AnchorService
	tokens   *identity.TokenIssuer // nil = open mode, X-Submitter header
	index    *index.Index          // nil = no recent listing
	maxBatch int
	logger   *zap.Logger
}

// NewAnchorHandler creates a new AnchorHandler.
// tokens may be nil to run write routes in open mode.
func NewAnchorHandler(svc *service.AnchorService, tokens *identity.TokenIssuer, logger *zap.Logger) *AnchorHandler {
	return &AnchorHandler{svc: svc, tokens: tokens, maxBatch: DefaultMaxBatch, logger: logger}
}

// SetIndex attaches the notification index served by GET /anchors.
func (h *AnchorHandler) SetIndex(x *index.Index) {
	h.index = x
}

// SetMaxBatch overrides the per-request batch size limit.
func (h *AnchorHandler) SetMaxBatch(n int) {
	if n > 0 {
		h.maxBatch = n
	}
}

// Register mounts the anchor routes on the given router group.
func (h *AnchorHandler) Register(rg *gin.RouterGroup) {
	write := identity.RequireSubmitter(h.tokens)

	a := rg.Group("/anchors")
	{
		a.GET("", h.Overview)
		a.GET("/:hash", h.GetAnchor)
		a.POST("", write, h.AnchorSingle)
		a.POST("/batch", write, h.AnchorBatch)
	}
	rg.POST("/roots", write, h.AnchorRoot)
	rg.POST("/verify", h.Verify)
}

type anchorRequest struct {
	Hash string `json:"hash" binding:"required"`
}

type batchRequest struct {
	Hashes []string `json:"hashes" binding:"required"`
}

type verifyRequest struct {
	Proof     []string `json:"proof"`
	Root      string   `json:"root" binding:"required"`
	Leaf      string   `json:"leaf" binding:"required"`
	CheckRoot bool     `json:"check_root"`
}

// AnchorSingle handles POST /anchors: anchors one content hash.
func (h *AnchorHandler) AnchorSingle(c *gin.Context) {
	h.anchorOne(c, "single")
}

// AnchorRoot handles POST /roots: anchors a Merkle root.
func (h *AnchorHandler) AnchorRoot(c *gin.Context) {
	h.anchorOne(c, "root")
}

func (h *AnchorHandler) anchorOne(c *gin.Context, op string) {
	var req anchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := digest.Parse(req.Hash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submitter := identity.SubmitterFromCtx(c)
	var rec *model.Record
	if op == "root" {
		rec, err = h.svc.AnchorRoot(c.Request.Context(), hash, submitter)
	} else {
		rec, err = h.svc.AnchorSingle(c.Request.Context(), hash, submitter)
	}
	if err != nil {
		RecordAnchorRejected(op, err)
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// AnchorBatch handles POST /anchors/batch: anchors many hashes, skipping
// zero and already-anchored entries.
func (h *AnchorHandler) AnchorBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Hashes) > h.maxBatch {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "batch exceeds " + strconv.Itoa(h.maxBatch) + " hashes",
		})
		return
	}
	hashes, err := digest.ParseAll(req.Hashes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.AnchorBatch(c.Request.Context(), hashes, identity.SubmitterFromCtx(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	RecordBatch(res)

	c.JSON(http.StatusOK, res)
}

// GetAnchor handles GET /anchors/:hash: returns the anchor record. The hash
// may be given in hex or as a keccak-256 CID.
func (h *AnchorHandler) GetAnchor(c *gin.Context) {
	hash, err := digest.ParseAny(c.Param("hash"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.GetAnchor(c.Request.Context(), hash)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Overview handles GET /anchors: returns registry statistics and, when an
// index is attached, the most recent notifications (?limit=, default 20).
func (h *AnchorHandler) Overview(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("anchor stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query registry"})
		return
	}

	resp := gin.H{
		"records":      stats.Records,
		"last_ordinal": stats.LastOrdinal,
	}
	if h.index != nil {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		recent := h.index.Recent(limit)
		if recent == nil {
			recent = []index.Entry{}
		}
		resp["recent"] = recent
		resp["indexed"] = h.index.Count()
	}
	c.JSON(http.StatusOK, resp)
}

// Verify handles POST /verify: checks a Merkle inclusion proof. With
// check_root it also reports whether the root is anchored, as a separate
// registry lookup.
func (h *AnchorHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proof, err := digest.ParseAll(req.Proof)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proof: " + err.Error()})
		return
	}
	root, err := digest.Parse(req.Root)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "root: " + err.Error()})
		return
	}
	leaf, err := digest.Parse(req.Leaf)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "leaf: " + err.Error()})
		return
	}

	if !req.CheckRoot {
		c.JSON(http.StatusOK, gin.H{"valid": h.svc.VerifyInclusion(proof, root, leaf)})
		return
	}

	v, err := h.svc.VerifyAgainstRegistry(c.Request.Context(), proof, root, leaf)
	if err != nil {
		h.logger.Error("verify against registry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query registry"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *AnchorHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidHash), errors.Is(err, model.ErrInvalidSubmitter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrAlreadyAnchored):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotAnchored):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("anchor service", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
