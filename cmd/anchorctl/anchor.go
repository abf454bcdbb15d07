package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"github.com/spf13/cobra"
)

// ── anchor / root ────────────────────────────────────────────────────────────

var anchorCmd = &cobra.Command{
	Use:   "anchor <hash>",
	Short: "Anchor a content hash",
	Long: `Anchor records a content hash on the registry under your submitter
identity. A hash can be anchored only once; the first submitter wins.

  anchorctl anchor $(anchorctl hash --file report.pdf)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnchor(args[0], false)
	},
}

var rootAnchorCmd = &cobra.Command{
	Use:   "root <merkle-root>",
	Short: "Anchor a Merkle root",
	Long: `Root anchors the root of a Merkle tree built with 'anchorctl tree'.
Leaves are then proven against it with 'anchorctl verify'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnchor(args[0], true)
	},
}

func runAnchor(arg string, root bool) error {
	h, err := digest.ParseAny(arg)
	if err != nil {
		return fmt.Errorf("invalid hash: %w", err)
	}
	api, closeFn, err := connect()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var rec *model.Record
	if root {
		rec, err = api.AnchorRoot(ctx, h)
	} else {
		rec, err = api.AnchorSingle(ctx, h)
	}
	if errors.Is(err, model.ErrAlreadyAnchored) {
		return fmt.Errorf("%s is already anchored; see 'anchorctl get %s'", h, h)
	}
	if err != nil {
		return err
	}
	return printRecord(rec)
}

// ── batch ────────────────────────────────────────────────────────────────────

var batchCmd = &cobra.Command{
	Use:   "batch <hash> [hash] ...",
	Short: "Anchor many hashes in one call",
	Long: `Batch anchors every hash in one registry call. Zero hashes and hashes
that are already anchored are skipped and reported, not treated as errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashes, err := parseDigests(args)
		if err != nil {
			return err
		}
		api, closeFn, err := connect()
		if err != nil {
			return err
		}
		defer closeFn()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := api.AnchorBatch(ctx, hashes)
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(res)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HASH\tSTATUS")
		for _, it := range res.Items {
			fmt.Fprintf(w, "%s\t%s\n", it.Hash, it.Status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d anchored at ordinal %d\n", res.Count(model.ItemAnchored), res.Ordinal)
		return nil
	},
}

// ── get ──────────────────────────────────────────────────────────────────────

var getCmd = &cobra.Command{
	Use:   "get <hash>",
	Short: "Show the anchor record for a hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := digest.ParseAny(args[0])
		if err != nil {
			return fmt.Errorf("invalid hash: %w", err)
		}
		api, closeFn, err := connect()
		if err != nil {
			return err
		}
		defer closeFn()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		rec, err := api.GetAnchor(ctx, h)
		if errors.Is(err, model.ErrNotAnchored) {
			return fmt.Errorf("%s is not anchored", h)
		}
		if err != nil {
			return err
		}
		return printRecord(rec)
	},
}
