package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var identity, secret string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session and save its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if identity == "" || secret == "" {
				return fmt.Errorf("--identity and --secret are required")
			}

			req := map[string]string{
				"identity": identity,
				"secret":   secret,
			}
			var result SessionResult

			if err := client.Post("/api/v1/sessions", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			client.SetToken(result.SessionToken)

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "Identity to log in as (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "Secret for the identity (required)")
	_ = cmd.MarkFlagRequired("identity")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session and forget its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("not logged in")
			}

			if err := client.Delete("/api/v1/sessions/current"); err != nil {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}
