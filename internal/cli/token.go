package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robalobadob/motmystere/internal/identity"
)

func init() {
	var user, purpose string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		Long:  "Issue a signed bearer token. Purpose \"content\" unlocks the educator endpoints, \"play\" records progress for a player.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			tok, exp, err := identity.NewIssuer(cfg.JWTSecret, ttl).Token(user, purpose)
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(map[string]any{
				"token":     tok,
				"user":      user,
				"purpose":   purpose,
				"expiresAt": exp.UTC().Format(time.RFC3339),
			}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id (required)")
	cmd.Flags().StringVar(&purpose, "purpose", identity.PurposeContent, "Token purpose: content or play")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Lifetime (default: $TOKEN_TTL_MINUTES)")
	_ = cmd.MarkFlagRequired("user")
	RootCmd.AddCommand(cmd)
}
