package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jmerrifield20/anchorledger/internal/identity"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestHashCommand(t *testing.T) {
	got, err := execute(t, "hash", "my file contents")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if want := digest.SumString("my file contents").Hex(); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHashCommand_cid(t *testing.T) {
	t.Cleanup(func() { hashCID = false })
	got, err := execute(t, "hash", "--cid", "my file contents")
	if err != nil {
		t.Fatalf("hash --cid: %v", err)
	}
	d, err := digest.ParseAny(got)
	if err != nil {
		t.Fatalf("output %q is not a CID: %v", got, err)
	}
	if d != digest.SumString("my file contents") {
		t.Errorf("CID carries %s", d)
	}
}

func TestTokenCommand(t *testing.T) {
	secret := "0123456789abcdef0123"
	got, err := execute(t, "token", "--subject", "alice", "--secret", secret)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	issuer, err := identity.NewTokenIssuer([]byte(secret), "anchord", 0)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := issuer.Verify(got)
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if claims.Submitter() != "alice" {
		t.Errorf("submitter: got %q, want alice", claims.Submitter())
	}
}

func TestLeafDigests(t *testing.T) {
	ds, err := leafDigests([]string{"x", "y"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if ds[0] != digest.SumString("x") || ds[1] != digest.SumString("y") {
		t.Errorf("text leaves not hashed: %v", ds)
	}

	if _, err := leafDigests([]string{"x"}, false); err == nil {
		t.Error("expected error for non-hex leaf")
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Errorf("empty: got %v", got)
	}
	got := splitList("a, b ,c")
	if len(got) != 3 || got[1] != "b" {
		t.Errorf("got %v", got)
	}
}
