package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solatis/courier/internal/core/auth"
	"github.com/solatis/courier/internal/core/config"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage transfer API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Issue an API key; the key is printed once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		authenticator, closeDB, err := openAuthenticator()
		if err != nil {
			return err
		}
		defer closeDB()

		id, key, err := authenticator.Issue(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		logger.Info("api key issued", slog.String("api_key_id", id), slog.String("name", args[0]))
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		authenticator, closeDB, err := openAuthenticator()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := authenticator.Revoke(cmd.Context(), args[0]); err != nil {
			return err
		}
		logger.Info("api key revoked", slog.String("api_key_id", args[0]))
		return nil
	},
}

func openAuthenticator() (*auth.Authenticator, func(), error) {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return nil, nil, fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
	}

	database, queries, err := openQueries()
	if err != nil {
		return nil, nil, err
	}
	return auth.NewAuthenticator(secrets, queries), func() { database.Close() }, nil
}

func init() {
	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd)
	rootCmd.AddCommand(keysCmd)
}
