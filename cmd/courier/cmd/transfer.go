package cmd

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/transfer"
	"github.com/solatis/courier/internal/types"
)

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Translate a bundle's local ids into stable keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(cmd, types.Packaging)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Translate a bundle's stable keys into local ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(cmd, types.Extracting)
	},
}

func runTransfer(cmd *cobra.Command, direction types.Direction) error {
	ctx := cmd.Context()
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	seed, _ := cmd.Flags().GetString("ids")
	maxBatch, _ := cmd.Flags().GetInt("max-batch-size")

	data, err := download(ctx, input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	bundle, err := transfer.DecodeBundle(bytes.NewReader(data))
	if err != nil {
		return err
	}

	// A seed file gives a self-contained run; otherwise use the mapping table.
	var ids identity.Map
	if seed != "" {
		seedData, err := download(ctx, seed, cmd.InOrStdin())
		if err != nil {
			return err
		}
		entries, err := identity.LoadSeed(bytes.NewReader(seedData))
		if err != nil {
			return err
		}
		ids = identity.NewMemory(entries...)
	} else {
		database, queries, err := openQueries()
		if err != nil {
			return err
		}
		defer database.Close()
		ids = identity.NewStore(queries)
	}

	pipeline, err := transfer.NewPipeline(ids, logger, nil)
	if err != nil {
		return err
	}
	result, err := pipeline.Runner(ids,
		transfer.WithMaxBatchSize(maxBatch),
		transfer.WithLogger(logger),
	).Run(ctx, direction, bundle)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := transfer.EncodeBundle(&buf, result.Bundle); err != nil {
		return err
	}
	if err := upload(ctx, output, buf.Bytes(), cmd.OutOrStdout()); err != nil {
		return err
	}

	if failed := result.Failed(); failed > 0 {
		for _, r := range result.Results {
			if !r.OK {
				logger.Error("item not resolved", slog.String("item_id", r.ItemID), slog.String("error", r.Error))
			}
		}
		return fmt.Errorf("%d of %d items failed", failed, len(result.Results))
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{packageCmd, extractCmd} {
		c.Flags().StringP("input", "i", "-", "input bundle URL")
		c.Flags().StringP("output", "o", "-", "output bundle URL")
		c.Flags().String("ids", "", "YAML identifier seed URL (instead of --db-url)")
		c.Flags().Int("max-batch-size", 0, "reject bundles with more records (0 = unlimited)")
		rootCmd.AddCommand(c)
	}
}
