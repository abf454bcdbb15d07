// Package client is the Go SDK for the anchor registry HTTP API.
//
// # Anchoring a document hash
//
//	c, err := client.New("http://localhost:8080", client.WithBearerToken(tok))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rec, err := c.AnchorSingle(ctx, digest.Sum(doc))
//	switch {
//	case errors.Is(err, client.ErrAlreadyAnchored):
//	    // someone anchored it first; fetch their record
//	    rec, err = c.GetAnchor(ctx, digest.Sum(doc))
//	case err != nil:
//	    log.Fatal(err)
//	}
//
// # Merkle roots
//
// Build the tree locally with pkg/merkle, anchor only the root, and hand
// each leaf holder its proof:
//
//	tree, _ := merkle.NewTree(leaves)
//	_, err = c.AnchorRoot(ctx, tree.Root())
//	proof, _ := tree.Proof(leaves[0])
//
// A verifier checks the proof offline with merkle.VerifyInclusion, or asks the
// server with Verify(ctx, proof, root, leaf, true), which also reports whether
// the root is anchored.
//
// # Servers in open mode
//
// When the server runs without a token secret, identify yourself with
// WithSubmitter instead of WithBearerToken.
package client
