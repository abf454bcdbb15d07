package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"github.com/jmerrifield20/anchorledger/pkg/merkle"
	"github.com/spf13/cobra"
)

// ── hash ─────────────────────────────────────────────────────────────────────

var (
	hashFile string
	hashCID  bool
)

var hashCmd = &cobra.Command{
	Use:   "hash [text]",
	Short: "Print the Keccak-256 digest of text, a file, or stdin",
	Long: `Hash prints the Keccak-256 digest used as an anchor key.

  anchorctl hash "my file contents"
  anchorctl hash --file report.pdf
  cat report.pdf | anchorctl hash
  anchorctl hash --cid --file report.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		switch {
		case hashFile != "":
			b, err := os.ReadFile(hashFile)
			if err != nil {
				return fmt.Errorf("read %s: %w", hashFile, err)
			}
			data = b
		case len(args) == 1:
			data = []byte(args[0])
		default:
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			data = b
		}
		d := digest.Sum(data)
		if hashCID {
			fmt.Fprintln(cmd.OutOrStdout(), d.CIDString())
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Hex())
		return nil
	},
}

func init() {
	hashCmd.Flags().StringVar(&hashFile, "file", "", "hash the contents of this file")
	hashCmd.Flags().BoolVar(&hashCID, "cid", false, "print the digest as a CIDv1 instead of hex")
}

// ── tree ─────────────────────────────────────────────────────────────────────

var treeText bool

type treeOutput struct {
	Root   digest.Digest `json:"root"`
	Depth  int           `json:"depth"`
	Leaves []leafProof   `json:"leaves"`
}

type leafProof struct {
	Leaf  digest.Digest   `json:"leaf"`
	Proof []digest.Digest `json:"proof"`
}

var treeCmd = &cobra.Command{
	Use:   "tree <leaf> [leaf] ...",
	Short: "Build a Merkle tree and print its root and per-leaf proofs",
	Long: `Tree builds a sorted-pair Keccak-256 Merkle tree over the given leaves and
prints the root together with the inclusion proof of every leaf.

Leaves are hex digests, or arbitrary strings hashed first with --text:

  anchorctl tree --text x y z`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		leaves, err := leafDigests(args, treeText)
		if err != nil {
			return err
		}
		tree, err := merkle.NewTree(leaves)
		if err != nil {
			return err
		}

		out := treeOutput{Root: tree.Root(), Depth: tree.Depth()}
		for i, l := range leaves {
			proof, err := tree.ProofAt(i)
			if err != nil {
				return err
			}
			out.Leaves = append(out.Leaves, leafProof{Leaf: l, Proof: proof})
		}
		if format == "json" {
			return printJSON(out)
		}

		fmt.Printf("Root:  %s\nDepth: %d\n\n", out.Root, out.Depth)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LEAF\tPROOF")
		for _, lp := range out.Leaves {
			fmt.Fprintf(w, "%s\t%s\n", lp.Leaf, strings.Join(digest.HexAll(lp.Proof), ","))
		}
		return w.Flush()
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeText, "text", false, "hash each argument as text to form the leaves")
}

func leafDigests(args []string, text bool) ([]digest.Digest, error) {
	if !text {
		return parseDigests(args)
	}
	out := make([]digest.Digest, len(args))
	for i, a := range args {
		out[i] = digest.SumString(a)
	}
	return out, nil
}

// ── verify ───────────────────────────────────────────────────────────────────

var (
	verifyProof     string
	verifyRoot      string
	verifyLeaf      string
	verifyRemote    bool
	verifyCheckRoot bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify --proof h1,h2,... --root <root> --leaf <leaf>",
	Short: "Check a Merkle inclusion proof",
	Long: `Verify checks that leaf, proof and root are consistent. It runs locally
unless --remote is given; --check-root (implies --remote) also asks the
registry whether the root itself is anchored.

Exits non-zero when the proof does not verify.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proof, err := parseDigests(splitList(verifyProof))
		if err != nil {
			return err
		}
		root, err := digest.ParseAny(verifyRoot)
		if err != nil {
			return fmt.Errorf("invalid root: %w", err)
		}
		leaf, err := digest.ParseAny(verifyLeaf)
		if err != nil {
			return fmt.Errorf("invalid leaf: %w", err)
		}

		if !verifyRemote && !verifyCheckRoot {
			valid := merkle.VerifyInclusion(proof, root, leaf)
			if format == "json" {
				if err := printJSON(map[string]bool{"valid": valid}); err != nil {
					return err
				}
			} else {
				fmt.Printf("Proof valid? %v\n", valid)
			}
			if !valid {
				return fmt.Errorf("proof does not verify")
			}
			return nil
		}

		api, closeFn, err := connect()
		if err != nil {
			return err
		}
		defer closeFn()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		v, err := api.Verify(ctx, proof, root, leaf, verifyCheckRoot)
		if err != nil {
			return err
		}
		if format == "json" {
			if err := printJSON(v); err != nil {
				return err
			}
		} else {
			fmt.Printf("Proof valid? %v\n", v.Valid)
			if verifyCheckRoot {
				fmt.Printf("Root anchored? %v\n", v.RootAnchored)
				if v.RootRecord != nil {
					fmt.Printf("Root submitter: %s (ordinal %d)\n", v.RootRecord.Submitter, v.RootRecord.Ordinal)
				}
			}
		}
		if !v.Valid {
			return fmt.Errorf("proof does not verify")
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyProof, "proof", "", "comma-separated sibling hashes, leaf to root (empty for a single-leaf tree)")
	verifyCmd.Flags().StringVar(&verifyRoot, "root", "", "Merkle root")
	verifyCmd.Flags().StringVar(&verifyLeaf, "leaf", "", "leaf hash")
	verifyCmd.Flags().BoolVar(&verifyRemote, "remote", false, "verify on the registry instead of locally")
	verifyCmd.Flags().BoolVar(&verifyCheckRoot, "check-root", false, "also report whether the root is anchored")
	_ = verifyCmd.MarkFlagRequired("root")
	_ = verifyCmd.MarkFlagRequired("leaf")
}
