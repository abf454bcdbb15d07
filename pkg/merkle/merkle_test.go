package merkle_test

import (
	"errors"
	"fmt"
	"testing"
	"testing/quick"

	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"github.com/jmerrifield20/anchorledger/pkg/merkle"
)

func leavesOf(names ...string) []digest.Digest {
	out := make([]digest.Digest, len(names))
	for i, n := range names {
		out[i] = digest.SumString(n)
	}
	return out
}

func TestVerifyInclusion_validProof(t *testing.T) {
	leaves := leavesOf("a", "b", "c", "d")
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		t.Fatal(err)
	}

	proof, err := tree.Proof(leaves[2])
	if err != nil {
		t.Fatal(err)
	}
	if len(proof) != 2 {
		t.Fatalf("expected 2 siblings for a 4-leaf tree, got %d", len(proof))
	}
	if !merkle.VerifyInclusion(proof, tree.Root(), leaves[2]) {
		t.Error("valid proof rejected")
	}
}

func TestVerifyInclusion_wrongLeaf(t *testing.T) {
	leaves := leavesOf("a", "b", "c", "d")
	tree, _ := merkle.NewTree(leaves)
	proofForC, _ := tree.Proof(leaves[2])

	if merkle.VerifyInclusion(proofForC, tree.Root(), leaves[0]) {
		t.Error("proof for c accepted for leaf a")
	}
}

func TestVerifyInclusion_singleLeaf(t *testing.T) {
	leaf := digest.SumString("only")
	other := digest.SumString("other")

	if !merkle.VerifyInclusion(nil, leaf, leaf) {
		t.Error("empty proof with leaf == root should verify")
	}
	if merkle.VerifyInclusion([]digest.Digest{}, other, leaf) {
		t.Error("empty proof with leaf != root should not verify")
	}

	tree, err := merkle.NewTree([]digest.Digest{leaf})
	if err != nil {
		t.Fatal(err)
	}
	if tree.Root() != leaf {
		t.Errorf("one-leaf root = %s, want the leaf", tree.Root())
	}
	proof, _ := tree.Proof(leaf)
	if len(proof) != 0 {
		t.Errorf("one-leaf proof length = %d, want 0", len(proof))
	}
}

func TestVerifyInclusion_truncatedAndExtendedProofs(t *testing.T) {
	leaves := leavesOf("a", "b", "c", "d", "e")
	tree, _ := merkle.NewTree(leaves)
	proof, _ := tree.Proof(leaves[1])

	if merkle.VerifyInclusion(proof[:len(proof)-1], tree.Root(), leaves[1]) {
		t.Error("truncated proof accepted")
	}
	extended := append(append([]digest.Digest{}, proof...), digest.SumString("extra"))
	if merkle.VerifyInclusion(extended, tree.Root(), leaves[1]) {
		t.Error("extended proof accepted")
	}
}

func TestVerifyInclusion_siblingOrderIsIrrelevantPerLevel(t *testing.T) {
	a, b := digest.SumString("left"), digest.SumString("right")
	root := digest.Combine(b, a)
	if !merkle.VerifyInclusion([]digest.Digest{b}, root, a) {
		t.Error("a under Combine(b, a) rejected")
	}
	if !merkle.VerifyInclusion([]digest.Digest{a}, root, b) {
		t.Error("b under Combine(b, a) rejected")
	}
}

func TestTree_roundTripAllSizes(t *testing.T) {
	for n := 1; n <= 17; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("leaf-%d", i)
		}
		leaves := leavesOf(names...)
		tree, err := merkle.NewTree(leaves)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		for i, l := range leaves {
			proof, err := tree.ProofAt(i)
			if err != nil {
				t.Fatalf("n=%d i=%d: %v", n, i, err)
			}
			if !merkle.VerifyInclusion(proof, tree.Root(), l) {
				t.Errorf("n=%d i=%d: round trip failed", n, i)
			}
		}
	}
}

func TestTree_oddNodePromoted(t *testing.T) {
	leaves := leavesOf("x", "y", "z")
	tree, _ := merkle.NewTree(leaves)

	want := digest.Combine(digest.Combine(leaves[0], leaves[1]), leaves[2])
	if tree.Root() != want {
		t.Errorf("root = %s, want %s", tree.Root(), want)
	}

	proof, _ := tree.Proof(leaves[2])
	if len(proof) != 1 || proof[0] != digest.Combine(leaves[0], leaves[1]) {
		t.Errorf("proof for promoted leaf = %v", proof)
	}
}

func TestTree_tamperProperty(t *testing.T) {
	f := func(seed uint8, pick uint8, forged digest.Digest) bool {
		n := int(seed%15) + 2
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("%d-%d", seed, i)
		}
		leaves := leavesOf(names...)
		tree, err := merkle.NewTree(leaves)
		if err != nil {
			return false
		}
		i := int(pick) % n
		proof, _ := tree.ProofAt(i)
		if forged == leaves[i] {
			return true
		}
		return !merkle.VerifyInclusion(proof, tree.Root(), forged)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatalf("tamper property: %v", err)
	}
}

func TestNewTree_errors(t *testing.T) {
	if _, err := merkle.NewTree(nil); !errors.Is(err, merkle.ErrEmptyTree) {
		t.Errorf("NewTree(nil): want ErrEmptyTree, got %v", err)
	}
	if _, err := merkle.NewTree([]digest.Digest{digest.SumString("a"), digest.Zero}); !errors.Is(err, merkle.ErrZeroLeaf) {
		t.Errorf("NewTree(zero leaf): want ErrZeroLeaf, got %v", err)
	}
}

func TestTree_proofForUnknownLeaf(t *testing.T) {
	tree, _ := merkle.NewTree(leavesOf("a", "b"))
	if _, err := tree.Proof(digest.SumString("zzz")); !errors.Is(err, merkle.ErrLeafNotFound) {
		t.Errorf("want ErrLeafNotFound, got %v", err)
	}
	if _, err := tree.ProofAt(5); !errors.Is(err, merkle.ErrLeafNotFound) {
		t.Errorf("ProofAt(5): want ErrLeafNotFound, got %v", err)
	}
}

// Roots and proofs as produced by merkletreejs
// `new MerkleTree(leaves, keccak256, { sortPairs: true })` over keccak256 of
// each letter, the form the on-chain verifier is tested with.
func TestTree_matchesSortedPairVectors(t *testing.T) {
	const (
		a = "0x3ac225168df54212a25c1c01fd35bebfea408fdac2e31ddd6f80a4bbf9a5f1cb"
		b = "0xb5553de315e0edf504d9150af82dafa5c4667fa618ed0a6f19c69b41166c5510"
		c = "0x0b42b6393c1f53060fe3ddbfcd7aadcca894465a5a438f69c87d790b2299b9b2"
		d = "0xf1918e8562236eb17adc8502332f4c9c82bc14e19bfc0aa10ab674ff75b3d2f3"

		hashAB = "0x805b21d846b189efaeb0377d6bb0d201b3872a363e607c25088f025b0c6ae1f8"
		hashCD = "0xd253a52d4cb00de2895e85f2529e2976e6aaaa5c18106b68ab66813e14415669"
	)

	tests := []struct {
		name   string
		leaves []string
		root   string
		proofs [][]string
	}{
		{
			name:   "four leaves",
			leaves: []string{"a", "b", "c", "d"},
			root:   "0x68203f90e9d07dc5859259d7536e87a6ba9d345f2552b5b9de2999ddce9ce1bf",
			proofs: [][]string{
				{b, hashCD},
				{a, hashCD},
				{d, hashAB},
				{c, hashAB},
			},
		},
		{
			name:   "three leaves, odd node promoted",
			leaves: []string{"a", "b", "c"},
			root:   "0x5842148bc6ebeb52af882a317c765fccd3ae80589b21a9b8cbf21abb630e46a7",
			proofs: [][]string{
				{b, c},
				{a, c},
				{hashAB},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaves := leavesOf(tt.leaves...)
			tree, err := merkle.NewTree(leaves)
			if err != nil {
				t.Fatal(err)
			}
			root := digest.MustParse(tt.root)
			if tree.Root() != root {
				t.Fatalf("root = %s, want %s", tree.Root(), root)
			}
			for i, want := range tt.proofs {
				got, err := tree.ProofAt(i)
				if err != nil {
					t.Fatal(err)
				}
				if fmt.Sprint(digest.HexAll(got)) != fmt.Sprint(want) {
					t.Errorf("proof for %s = %v, want %v", tt.leaves[i], digest.HexAll(got), want)
				}
				wantProof := make([]digest.Digest, len(want))
				for j, p := range want {
					wantProof[j] = digest.MustParse(p)
				}
				if !merkle.VerifyInclusion(wantProof, root, leaves[i]) {
					t.Errorf("reference proof for %s rejected", tt.leaves[i])
				}
			}
		})
	}
}
