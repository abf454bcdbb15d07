package main

import (
	"fmt"

	"github.com/jmerrifield20/anchorledger/internal/identity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	tokenSubject string
	tokenSecret  string
	tokenIssuer  string
)

var tokenCmd = &cobra.Command{
	Use:   "token --subject <name>",
	Short: "Mint a submitter token from the server's shared secret",
	Long: `Token signs a submitter token with the same secret anchord is configured
with (auth.secret). The subject becomes the submitter recorded on anchors.

The secret is read from --secret or ANCHORCTL_AUTH_SECRET.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := tokenSecret
		if secret == "" {
			secret = viper.GetString("auth_secret")
		}
		if secret == "" {
			return fmt.Errorf("no secret: pass --secret or set ANCHORCTL_AUTH_SECRET")
		}

		issuer, err := identity.NewTokenIssuer([]byte(secret), tokenIssuer, viper.GetDuration("token_ttl"))
		if err != nil {
			return err
		}
		tok, err := issuer.Issue(tokenSubject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "submitter identity")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "shared HMAC secret")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "anchord", "token issuer; must match the server's auth.issuer")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default 24h)")
	_ = viper.BindPFlag("token_ttl", tokenCmd.Flags().Lookup("ttl"))
	_ = tokenCmd.MarkFlagRequired("subject")
}
