package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/types"
)

var idsCmd = &cobra.Command{
	Use:   "ids",
	Short: "Manage the identifier mapping table",
}

var idsImportCmd = &cobra.Command{
	Use:   "import <seed-url>",
	Short: "Import mappings from a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := download(ctx, args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		entries, err := identity.LoadSeed(bytes.NewReader(data))
		if err != nil {
			return err
		}

		database, queries, err := openQueries()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := identity.NewStore(queries).Import(ctx, entries); err != nil {
			return err
		}
		logger.Info("identifiers imported", slog.Int("count", len(entries)), slog.String("source", args[0]))
		return nil
	},
}

var idsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export mappings as a YAML seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")
		kinds, err := kindsFlag(cmd)
		if err != nil {
			return err
		}

		database, queries, err := openQueries()
		if err != nil {
			return err
		}
		defer database.Close()

		store := identity.NewStore(queries)
		var entries []identity.Entry
		for _, kind := range kinds {
			list, err := store.List(ctx, kind)
			if err != nil {
				return err
			}
			entries = append(entries, list...)
		}

		var buf bytes.Buffer
		if err := identity.WriteSeed(&buf, entries); err != nil {
			return err
		}
		return upload(ctx, output, buf.Bytes(), cmd.OutOrStdout())
	},
}

var idsRegisterCmd = &cobra.Command{
	Use:   "register <local-id>...",
	Short: "Assign stable keys to local ids that have none",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kind, err := kindFlag(cmd)
		if err != nil {
			return err
		}

		database, queries, err := openQueries()
		if err != nil {
			return err
		}
		defer database.Close()

		store := identity.NewStore(queries)
		for _, arg := range args {
			id, err := types.ParseLocalID(arg)
			if err != nil {
				return fmt.Errorf("invalid local id %q: %w", arg, err)
			}
			key, err := store.Register(ctx, kind, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", kind, id, key)
		}
		return nil
	},
}

var idsLookupCmd = &cobra.Command{
	Use:   "lookup <local-id|stable-key>",
	Short: "Translate a local id to its stable key or back",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kind, err := kindFlag(cmd)
		if err != nil {
			return err
		}

		database, queries, err := openQueries()
		if err != nil {
			return err
		}
		defer database.Close()

		store := identity.NewStore(queries)
		if id, err := types.ParseLocalID(args[0]); err == nil {
			key, err := store.ToStableKey(ctx, id, kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		}

		id, err := store.ToLocalID(ctx, types.StableKey(args[0]), kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var allKinds = []types.Kind{types.KindDataType, types.KindDocument, types.KindMedia}

func parseKind(s string) (types.Kind, error) {
	for _, k := range allKinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q (want dataType, document or media)", s)
}

func kindFlag(cmd *cobra.Command) (types.Kind, error) {
	s, _ := cmd.Flags().GetString("kind")
	return parseKind(s)
}

func kindsFlag(cmd *cobra.Command) ([]types.Kind, error) {
	s, _ := cmd.Flags().GetString("kind")
	if s == "" {
		return allKinds, nil
	}
	k, err := parseKind(s)
	if err != nil {
		return nil, err
	}
	return []types.Kind{k}, nil
}

func init() {
	idsExportCmd.Flags().String("kind", "", "kind to export (default all)")
	idsExportCmd.Flags().StringP("output", "o", "-", "output URL")
	idsRegisterCmd.Flags().String("kind", string(types.KindDocument), "identifier kind")
	idsLookupCmd.Flags().String("kind", string(types.KindDocument), "identifier kind")

	idsCmd.AddCommand(idsImportCmd, idsExportCmd, idsRegisterCmd, idsLookupCmd)
	rootCmd.AddCommand(idsCmd)
}
