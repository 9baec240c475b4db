package main

import (
	"context"
	"fmt"
	"path/filepath"
	"workdiary/internal/admin"
	"workdiary/internal/providers"
	"workdiary/internal/store"
	"workdiary/internal/structures"

	"github.com/spf13/cobra"
)

type purgeOptions struct {
	images  bool
	entries bool
	force   bool
}

func newPurgeCommand() *cobra.Command {
	var opts purgeOptions

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored images and/or all work diary entries",
		Long: `Permanently delete stored screenshot files, database rows, or both.

Without --images or --entries both are purged. Unless --force is given the
command asks for the confirmation word on stdin first.

Example:
  workdiary purge --images
  workdiary purge --entries --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			conf, err := providers.NewConfigProvider(&structures.CliFlags{ConfigPath: configPath})
			if err != nil {
				return err
			}
			return runPurge(cmd, conf, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.images, "images", false, "Delete every stored image file")
	cmd.Flags().BoolVar(&opts.entries, "entries", false, "Delete every database row and reset ids")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

func runPurge(cmd *cobra.Command, conf *structures.Config, opts purgeOptions) error {
	if !opts.images && !opts.entries {
		opts.images, opts.entries = true, true
	}

	root, err := filepath.Abs(conf.Storage.Root)
	if err != nil {
		return err
	}

	var targets []string
	if opts.images {
		targets = append(targets, "all files under "+root)
	}
	if opts.entries {
		targets = append(targets, "all rows of the workDiary table in "+conf.Database.DSN)
	}

	if !opts.force {
		if err := admin.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), targets); err != nil {
			return err
		}
	}

	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return err
	}
	defer logger.Close()

	if opts.images {
		n, err := admin.PurgeImages(root, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d image files\n", n)
	}

	if opts.entries {
		st, err := store.NewStoreFromConfig(conf)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := admin.PurgeEntries(context.Background(), st, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted all work diary entries")
	}
	return nil
}
