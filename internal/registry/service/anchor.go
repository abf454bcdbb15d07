package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/internal/registry/repository"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"github.com/jmerrifield20/anchorledger/pkg/merkle"
	"go.uber.org/zap"
)

// Notifier receives one call per newly anchored digest, after the write that
// created it has committed. *notify.Bus satisfies this interface.
type Notifier interface {
	NotifyAnchored(ctx context.Context, rec model.Record) error
}

// Clock supplies the observation time for new records.
type Clock func() time.Time

// AnchorService is the only mutator of the anchor registry.
type AnchorService struct {
	store    repository.Store
	notifier Notifier // nil = no notifications
	clock    Clock
	logger   *zap.Logger
}

// NewAnchorService creates an AnchorService. notifier may be nil.
func NewAnchorService(store repository.Store, notifier Notifier, logger *zap.Logger) *AnchorService {
	return &AnchorService{
		store:    store,
		notifier: notifier,
		clock:    func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// SetClock replaces the time source used for ObservedAt.
func (s *AnchorService) SetClock(c Clock) {
	s.clock = c
}

// AnchorSingle records hash as anchored by submitter.
// It fails with model.ErrInvalidHash for the zero digest and with
// model.ErrAlreadyAnchored when hash already has a record.
func (s *AnchorService) AnchorSingle(ctx context.Context, hash digest.Digest, submitter string) (*model.Record, error) {
	if hash.IsZero() {
		return nil, model.ErrInvalidHash
	}
	if err := checkSubmitter(submitter); err != nil {
		return nil, err
	}

	var rec *model.Record
	err := s.store.Write(ctx, func(ctx context.Context, w repository.Writer) error {
		exists, err := w.Exists(ctx, hash)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrAlreadyAnchored
		}
		rec = s.newRecord(w, hash, submitter, s.clock())
		return w.Insert(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("hash anchored",
		zap.String("hash", hash.Hex()),
		zap.String("submitter", submitter),
		zap.Uint64("ordinal", rec.Ordinal),
	)
	s.notify(ctx, *rec)
	return rec, nil
}

// AnchorRoot is AnchorSingle under the name used when hash is a Merkle root.
func (s *AnchorService) AnchorRoot(ctx context.Context, root digest.Digest, submitter string) (*model.Record, error) {
	return s.AnchorSingle(ctx, root, submitter)
}

// AnchorBatch anchors each hash in order. Zero digests and digests that are
// already anchored (including repeats within hashes) are skipped without
// error or notification. The call fails only for call-level reasons: an
// invalid submitter or a store failure. There is no rollback: when the store
// fails part way, items anchored before the failure stay anchored and are
// notified, and the wrapped store error is returned.
func (s *AnchorService) AnchorBatch(ctx context.Context, hashes []digest.Digest, submitter string) (*model.BatchResult, error) {
	if err := checkSubmitter(submitter); err != nil {
		return nil, err
	}

	var (
		result  *model.BatchResult
		created []model.Record
	)
	err := s.store.Write(ctx, func(ctx context.Context, w repository.Writer) error {
		now := s.clock()
		result = &model.BatchResult{
			Ordinal:    w.Ordinal(),
			ObservedAt: now,
			Items:      make([]model.BatchItem, 0, len(hashes)),
		}
		created = created[:0]

		for _, h := range hashes {
			if h.IsZero() {
				result.Items = append(result.Items, model.BatchItem{Hash: h, Status: model.ItemSkippedInvalid})
				continue
			}
			exists, err := w.Exists(ctx, h)
			if err != nil {
				return err
			}
			if exists {
				result.Items = append(result.Items, model.BatchItem{Hash: h, Status: model.ItemSkippedDuplicate})
				continue
			}
			rec := s.newRecord(w, h, submitter, now)
			if err := w.Insert(ctx, rec); err != nil {
				return err
			}
			created = append(created, *rec)
			result.Items = append(result.Items, model.BatchItem{Hash: h, Status: model.ItemAnchored})
		}
		return nil
	})
	if err != nil {
		kept := s.committed(ctx, created)
		if len(kept) > 0 {
			s.logger.Warn("batch interrupted after partial anchoring",
				zap.String("submitter", submitter),
				zap.Int("submitted", len(hashes)),
				zap.Int("anchored", len(kept)),
				zap.Error(err),
			)
		}
		for _, rec := range kept {
			s.notify(ctx, rec)
		}
		return nil, fmt.Errorf("anchor batch: %w", err)
	}

	s.logger.Info("batch anchored",
		zap.String("submitter", submitter),
		zap.Uint64("ordinal", result.Ordinal),
		zap.Int("submitted", len(hashes)),
		zap.Int("anchored", len(created)),
	)
	for _, rec := range created {
		s.notify(ctx, rec)
	}
	return result, nil
}

// GetAnchor returns the record for hash or model.ErrNotAnchored.
func (s *AnchorService) GetAnchor(ctx context.Context, hash digest.Digest) (*model.Record, error) {
	if hash.IsZero() {
		return nil, model.ErrNotAnchored
	}
	return s.store.Get(ctx, hash)
}

// State reports the lifecycle state of hash.
func (s *AnchorService) State(ctx context.Context, hash digest.Digest) (model.AnchorState, error) {
	_, err := s.GetAnchor(ctx, hash)
	switch {
	case err == nil:
		return model.AnchorStateAnchored, nil
	case errors.Is(err, model.ErrNotAnchored):
		return model.AnchorStateUnanchored, nil
	default:
		return "", err
	}
}

// Stats returns the registry size and last ordinal.
func (s *AnchorService) Stats(ctx context.Context) (model.Stats, error) {
	return s.store.Stats(ctx)
}

// VerifyInclusion checks leaf, proof and root for consistency only; it does
// not consult the registry.
func (s *AnchorService) VerifyInclusion(proof []digest.Digest, root, leaf digest.Digest) bool {
	return merkle.VerifyInclusion(proof, root, leaf)
}

// VerifyAgainstRegistry runs VerifyInclusion and then, as a separate step,
// looks up whether root itself is anchored.
func (s *AnchorService) VerifyAgainstRegistry(ctx context.Context, proof []digest.Digest, root, leaf digest.Digest) (*model.Verification, error) {
	v := &model.Verification{Valid: merkle.VerifyInclusion(proof, root, leaf)}
	rec, err := s.GetAnchor(ctx, root)
	switch {
	case err == nil:
		v.RootAnchored = true
		v.RootRecord = rec
	case errors.Is(err, model.ErrNotAnchored):
	default:
		return nil, err
	}
	return v, nil
}

func (s *AnchorService) newRecord(w repository.Writer, hash digest.Digest, submitter string, at time.Time) *model.Record {
	return &model.Record{
		Hash:       hash,
		Submitter:  submitter,
		Ordinal:    w.Ordinal(),
		ObservedAt: at,
	}
}

// committed returns the records of recs that the store actually holds.
func (s *AnchorService) committed(ctx context.Context, recs []model.Record) []model.Record {
	ctx = context.WithoutCancel(ctx)
	var out []model.Record
	for _, rec := range recs {
		got, err := s.store.Get(ctx, rec.Hash)
		if err != nil || got.Ordinal != rec.Ordinal {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// notify hands rec to the notifier. The record is already committed, so the
// caller's cancellation does not apply and a delivery failure is logged
// rather than returned.
func (s *AnchorService) notify(ctx context.Context, rec model.Record) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAnchored(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error("anchored notification dropped",
			zap.String("hash", rec.Hash.Hex()),
			zap.Error(err),
		)
	}
}

func checkSubmitter(submitter string) error {
	if strings.TrimSpace(submitter) == "" {
		return model.ErrInvalidSubmitter
	}
	return nil
}
