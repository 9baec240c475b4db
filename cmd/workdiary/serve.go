package main

import (
	"workdiary/internal/di"
	"workdiary/internal/structures"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			app, cleanup, err := di.InitApp(&structures.CliFlags{ConfigPath: configPath, DebugMode: debug})
			if err != nil {
				return err
			}
			defer cleanup()
			return app.Run()
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Mirror logs to stdout")
	return cmd
}
