// Package merkle builds sorted-pair Merkle trees over digests and verifies
// membership proofs against a caller-supplied root.
//
// Pairs are combined with digest.Combine, which orders its inputs before
// hashing, so proofs carry no left/right position flags. A proof is the list
// of sibling digests from the leaf upwards; index 0 is the leaf's sibling.
//
// VerifyInclusion only checks that leaf, proof and root are cryptographically
// consistent. Whether the root itself was anchored is a separate lookup.
package merkle

import (
	"errors"

	"github.com/jmerrifield20/anchorledger/pkg/digest"
)

var (
	// ErrEmptyTree is returned by NewTree when called without leaves.
	ErrEmptyTree = errors.New("merkle: no leaves")
	// ErrZeroLeaf is returned by NewTree when a leaf is the zero digest.
	ErrZeroLeaf = errors.New("merkle: zero digest is not a valid leaf")
	// ErrLeafNotFound is returned when a proof is requested for an unknown leaf.
	ErrLeafNotFound = errors.New("merkle: leaf not in tree")
)

// VerifyInclusion folds proof into leaf and reports whether the result equals
// root. An empty proof is valid only when leaf == root. It never fails: a
// proof of the wrong length or content simply yields false.
func VerifyInclusion(proof []digest.Digest, root, leaf digest.Digest) bool {
	return ComputeRoot(proof, leaf) == root
}

// ComputeRoot returns the root implied by leaf and proof.
func ComputeRoot(proof []digest.Digest, leaf digest.Digest) digest.Digest {
	acc := leaf
	for _, sibling := range proof {
		acc = digest.Combine(acc, sibling)
	}
	return acc
}

// Tree is an immutable sorted-pair Merkle tree. levels[0] holds the leaves
// and the last level holds the single root.
type Tree struct {
	levels [][]digest.Digest
}

// NewTree builds a tree over leaves, which are used as given (already
// hashed) and in the given order. Adjacent nodes are combined left to right;
// an odd trailing node is promoted to the next level unchanged.
func NewTree(leaves []digest.Digest) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := make([]digest.Digest, len(leaves))
	for i, l := range leaves {
		if l.IsZero() {
			return nil, ErrZeroLeaf
		}
		level[i] = l
	}

	levels := [][]digest.Digest{level}
	for len(level) > 1 {
		next := make([]digest.Digest, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, digest.Combine(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the tree root. For a one-leaf tree this is the leaf itself.
func (t *Tree) Root() digest.Digest {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Leaves returns a copy of the leaf level.
func (t *Tree) Leaves() []digest.Digest {
	out := make([]digest.Digest, len(t.levels[0]))
	copy(out, t.levels[0])
	return out
}

// Depth returns the number of levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// Proof returns the sibling path for the first occurrence of leaf.
func (t *Tree) Proof(leaf digest.Digest) ([]digest.Digest, error) {
	for i, l := range t.levels[0] {
		if l == leaf {
			return t.ProofAt(i)
		}
	}
	return nil, ErrLeafNotFound
}

// ProofAt returns the sibling path for the leaf at index i. Levels where the
// node was promoted without a sibling contribute nothing.
func (t *Tree) ProofAt(i int) ([]digest.Digest, error) {
	if i < 0 || i >= t.Len() {
		return nil, ErrLeafNotFound
	}
	proof := make([]digest.Digest, 0, t.Depth())
	idx := i
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}
	return proof, nil
}
