package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"competencymap/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for local testing",
	Example: `  competencymap token --sub admin --caps '*=question:editall'
  competencymap token --sub instructor --caps '15=question:viewall;16=question:editall'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		subject, _ := cmd.Flags().GetString("sub")
		capSpec, _ := cmd.Flags().GetString("caps")
		caps, err := auth.ParseCapabilities(capSpec)
		if err != nil {
			return err
		}

		authenticator, err := auth.New(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.CookieName, cfg.Auth.TokenTTL.Duration())
		if err != nil {
			return err
		}
		token, err := authenticator.Issue(subject, caps)
		if err != nil {
			return err
		}
		session, err := authenticator.Parse(token)
		if err != nil {
			return err
		}

		if onlyToken, _ := cmd.Flags().GetBool("quiet"); onlyToken {
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "token:   %s\n", token)
		fmt.Fprintf(cmd.OutOrStdout(), "cookie:  %s=%s\n", authenticator.CookieName(), token)
		fmt.Fprintf(cmd.OutOrStdout(), "sesskey: %s\n", authenticator.SessKey(session))
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("sub", "admin", "Subject (user id) of the session")
	tokenCmd.Flags().String("caps", "*="+auth.CapEditAll, "Capabilities as context=cap[,cap];context=cap")
	tokenCmd.Flags().BoolP("quiet", "q", false, "Print only the token")
}
