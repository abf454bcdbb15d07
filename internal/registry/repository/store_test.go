package repository_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/internal/registry/repository"
	"github.com/jmerrifield20/anchorledger/migrations"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"go.uber.org/zap"
)

var ctx = context.Background()

func record(name, submitter string, ordinal uint64) *model.Record {
	return &model.Record{
		Hash:       digest.SumString(name),
		Submitter:  submitter,
		Ordinal:    ordinal,
		ObservedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, digest.SumString("missing")); !errors.Is(err, model.ErrNotAnchored) {
			t.Fatalf("want ErrNotAnchored, got %v", err)
		}
	})

	t.Run("insert then get", func(t *testing.T) {
		s := newStore(t)
		var ord uint64
		err := s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
			ord = w.Ordinal()
			return w.Insert(ctx, record("file1", "alice", w.Ordinal()))
		})
		if err != nil {
			t.Fatal(err)
		}
		if ord != 1 {
			t.Errorf("first ordinal = %d, want 1", ord)
		}

		got, err := s.Get(ctx, digest.SumString("file1"))
		if err != nil {
			t.Fatal(err)
		}
		if got.Submitter != "alice" || got.Ordinal != 1 {
			t.Errorf("unexpected record: %+v", got)
		}
		if !got.ObservedAt.Equal(record("file1", "", 0).ObservedAt) {
			t.Errorf("observed_at = %v", got.ObservedAt)
		}
	})

	t.Run("ordinal advances per committed call", func(t *testing.T) {
		s := newStore(t)
		for i, name := range []string{"a", "b", "c"} {
			err := s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
				if w.Ordinal() != uint64(i+1) {
					t.Errorf("call %d: ordinal %d", i, w.Ordinal())
				}
				return w.Insert(ctx, record(name, "bob", w.Ordinal()))
			})
			if err != nil {
				t.Fatal(err)
			}
		}
		st, err := s.Stats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if st.Records != 3 || st.LastOrdinal != 3 {
			t.Errorf("stats = %+v, want 3 records, last ordinal 3", st)
		}
	})

	t.Run("call failing before any insert commits nothing", func(t *testing.T) {
		s := newStore(t)
		boom := errors.New("boom")
		err := s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("want boom, got %v", err)
		}
		st, _ := s.Stats(ctx)
		if st.LastOrdinal != 0 || st.Records != 0 {
			t.Errorf("failed call changed the store: %+v", st)
		}
	})

	t.Run("inserts before a failure remain anchored", func(t *testing.T) {
		s := newStore(t)
		boom := errors.New("boom")
		err := s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
			if err := w.Insert(ctx, record("kept", "carol", w.Ordinal())); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("want boom, got %v", err)
		}
		got, err := s.Get(ctx, digest.SumString("kept"))
		if err != nil {
			t.Fatalf("earlier insert lost: %v", err)
		}
		if got.Ordinal != 1 {
			t.Errorf("ordinal = %d, want 1", got.Ordinal)
		}
		st, _ := s.Stats(ctx)
		if st.LastOrdinal != 1 || st.Records != 1 {
			t.Errorf("stats = %+v, want 1 record, last ordinal 1", st)
		}
	})

	t.Run("failed insert leaves earlier inserts in place", func(t *testing.T) {
		s := newStore(t)
		_ = s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
			return w.Insert(ctx, record("first", "dave", w.Ordinal()))
		})
		err := s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
			if err := w.Insert(ctx, record("second", "dave", w.Ordinal())); err != nil {
				return err
			}
			return w.Insert(ctx, record("first", "dave", w.Ordinal()))
		})
		if !errors.Is(err, model.ErrAlreadyAnchored) {
			t.Fatalf("want ErrAlreadyAnchored, got %v", err)
		}
		if _, err := s.Get(ctx, digest.SumString("second")); err != nil {
			t.Errorf("insert before the failure lost: %v", err)
		}
		st, _ := s.Stats(ctx)
		if st.Records != 2 || st.LastOrdinal != 2 {
			t.Errorf("stats = %+v, want 2 records, last ordinal 2", st)
		}
	})

	t.Run("exists sees earlier inserts", func(t *testing.T) {
		s := newStore(t)
		err := s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
			if err := w.Insert(ctx, record("dup", "dave", w.Ordinal())); err != nil {
				return err
			}
			ok, err := w.Exists(ctx, digest.SumString("dup"))
			if err != nil {
				return err
			}
			if !ok {
				t.Error("Exists = false for earlier insert")
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("duplicate insert rejected", func(t *testing.T) {
		s := newStore(t)
		_ = s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
			return w.Insert(ctx, record("once", "erin", w.Ordinal()))
		})
		err := s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
			return w.Insert(ctx, record("once", "frank", w.Ordinal()))
		})
		if !errors.Is(err, model.ErrAlreadyAnchored) {
			t.Fatalf("want ErrAlreadyAnchored, got %v", err)
		}
		got, _ := s.Get(ctx, digest.SumString("once"))
		if got.Submitter != "erin" {
			t.Errorf("record overwritten: %+v", got)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(*testing.T) repository.Store { return repository.NewMemoryStore() })
}

func TestMemoryStore_concurrentWritersAreSerialised(t *testing.T) {
	s := repository.NewMemoryStore()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Write(ctx, func(ctx context.Context, w repository.Writer) error {
				return w.Insert(ctx, record(string(rune('A'+i)), "g", w.Ordinal()))
			})
		}(i)
	}
	wg.Wait()

	st, _ := s.Stats(ctx)
	if st.Records != n || st.LastOrdinal != n {
		t.Fatalf("stats = %+v, want %d/%d", st, n, n)
	}
}

func TestMemoryStore_cancelledContext(t *testing.T) {
	s := repository.NewMemoryStore()
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	called := false
	err := s.Write(cctx, func(context.Context, repository.Writer) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("cancelled write admitted: err=%v called=%v", err, called)
	}
}

// TestPostgresStore runs the store contract against a real database.
// Set TEST_DATABASE_URL to enable it.
func TestPostgresStore(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	schema, err := fs.ReadFile(migrations.FS, "001_init.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	runStoreContract(t, func(t *testing.T) repository.Store {
		if _, err := pool.Exec(ctx, `TRUNCATE anchors`); err != nil {
			t.Fatal(err)
		}
		if _, err := pool.Exec(ctx, `UPDATE anchor_sequence SET last_ordinal = 0 WHERE id = 1`); err != nil {
			t.Fatal(err)
		}
		return repository.NewPostgresStore(pool, zap.NewNop())
	})
}
