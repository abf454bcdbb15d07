package index_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmerrifield20/anchorledger/internal/index"
	"github.com/jmerrifield20/anchorledger/internal/notify"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

func feed(x *index.Index, submitter string, names ...string) {
	for i, n := range names {
		x.Handle(context.Background(), notify.NewAnchoredEvent(model.Record{
			Hash:      digest.SumString(n),
			Submitter: submitter,
			Ordinal:   uint64(i + 1),
		}))
	}
}

func TestIndex_recentNewestFirst(t *testing.T) {
	x := index.New(10)
	feed(x, "alice", "a", "b", "c")

	got := x.Recent(2)
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(got))
	}
	if got[0].DataHash != digest.SumString("c") || got[1].DataHash != digest.SumString("b") {
		t.Errorf("unexpected order: %s, %s", got[0].DataHash, got[1].DataHash)
	}
	if all := x.Recent(0); len(all) != 3 {
		t.Errorf("Recent(0) = %d entries, want 3", len(all))
	}
}

func TestIndex_wrapsAtCapacity(t *testing.T) {
	x := index.New(3)
	names := make([]string, 7)
	for i := range names {
		names[i] = fmt.Sprintf("n%d", i)
	}
	feed(x, "bob", names...)

	if x.Count() != 7 {
		t.Errorf("Count() = %d, want 7", x.Count())
	}
	got := x.Recent(10)
	if len(got) != 3 {
		t.Fatalf("retained %d entries, want 3", len(got))
	}
	for i, want := range []string{"n6", "n5", "n4"} {
		if got[i].DataHash != digest.SumString(want) {
			t.Errorf("entry %d = %s, want %s", i, got[i].DataHash, want)
		}
	}
}

func TestIndex_countBySubmitter(t *testing.T) {
	x := index.New(0)
	feed(x, "alice", "a1", "a2")
	feed(x, "bob", "b1")

	if n := x.CountBySubmitter("alice"); n != 2 {
		t.Errorf("alice = %d", n)
	}
	if n := x.CountBySubmitter("carol"); n != 0 {
		t.Errorf("carol = %d", n)
	}
	if x.Name() != "index" {
		t.Errorf("Name() = %q", x.Name())
	}
}

func TestIndex_emptyRecent(t *testing.T) {
	if got := index.New(5).Recent(3); len(got) != 0 {
		t.Errorf("empty index returned %d entries", len(got))
	}
}
