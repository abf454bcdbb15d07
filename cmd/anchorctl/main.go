package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jmerrifield20/anchorledger/internal/grpcapi"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/client"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile   string
	serverURL string
	grpcAddr  string
	token     string
	submitter string
	format    string
	timeout   time.Duration
)

// ledger is the registry API shared by the HTTP SDK and the gRPC client.
type ledger interface {
	AnchorSingle(ctx context.Context, hash digest.Digest) (*model.Record, error)
	AnchorRoot(ctx context.Context, root digest.Digest) (*model.Record, error)
	AnchorBatch(ctx context.Context, hashes []digest.Digest) (*model.BatchResult, error)
	GetAnchor(ctx context.Context, hash digest.Digest) (*model.Record, error)
	Verify(ctx context.Context, proof []digest.Digest, root, leaf digest.Digest, checkRoot bool) (*model.Verification, error)
}

var (
	_ ledger = (*client.Client)(nil)
	_ ledger = (*grpcapi.Client)(nil)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "anchorctl",
	Short: "Anchor ledger CLI",
	Long: `anchorctl anchors content hashes and Merkle roots on an anchor registry,
looks up anchor records, and builds and checks Merkle inclusion proofs.

Hashes are 32-byte Keccak-256 digests in hex, with or without a 0x prefix.
Use 'anchorctl hash' to compute one.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.anchorctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("anchorctl")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if grpcAddr == "" {
			grpcAddr = viper.GetString("grpc")
		}
		if token == "" {
			token = viper.GetString("token")
		}
		if submitter == "" {
			submitter = viper.GetString("submitter")
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.anchorctl/config.yaml)")
	pf.StringVar(&serverURL, "server", "", "registry HTTP base URL (default http://localhost:8080)")
	pf.StringVar(&grpcAddr, "grpc", "", "registry gRPC address (e.g. localhost:9090); uses HTTP when empty")
	pf.StringVar(&token, "token", "", "submitter bearer token")
	pf.StringVar(&submitter, "submitter", "", "submitter name for servers in open mode")
	pf.StringVar(&format, "format", "text", "output format: text or json")
	pf.DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")

	rootCmd.AddCommand(hashCmd, anchorCmd, rootAnchorCmd, batchCmd, getCmd)
	rootCmd.AddCommand(treeCmd, verifyCmd, tokenCmd, demoCmd, versionCmd)
}

// connect returns the configured transport and a closer.
func connect() (ledger, func(), error) {
	if grpcAddr != "" {
		c, err := grpcapi.Dial(grpcAddr, grpcapi.ClientOptions{Token: token, Submitter: submitter, Timeout: timeout})
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", grpcAddr, err)
		}
		return c, func() { c.Close() }, nil
	}

	opts := []client.Option{}
	if token != "" {
		opts = append(opts, client.WithBearerToken(token))
	} else if submitter != "" {
		opts = append(opts, client.WithSubmitter(submitter))
	}
	c, err := client.New(serverURL, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, func() {}, nil
}

func parseDigests(args []string) ([]digest.Digest, error) {
	ds := make([]digest.Digest, 0, len(args))
	for i, a := range args {
		d, err := digest.ParseAny(a)
		if err != nil {
			return nil, fmt.Errorf("invalid hash %d: %w", i, err)
		}
		ds = append(ds, d)
	}
	return ds, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecord(rec *model.Record) error {
	if format == "json" {
		return printJSON(rec)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Hash:\t%s\n", rec.Hash)
	fmt.Fprintf(w, "CID:\t%s\n", rec.Hash.CIDString())
	fmt.Fprintf(w, "Submitter:\t%s\n", rec.Submitter)
	fmt.Fprintf(w, "Ordinal:\t%d\n", rec.Ordinal)
	fmt.Fprintf(w, "Observed:\t%s\n", rec.ObservedAt.Format(time.RFC3339))
	return w.Flush()
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the anchorctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("anchorctl %s\n", version)
	},
}
