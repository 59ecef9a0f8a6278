package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Message every New lead once and mark it contacted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("outreach"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.runOutreach(ctx)
		if err != nil {
			return eris.Wrap(err, "outreach")
		}
		return printJSON(os.Stdout, report)
	},
}

func init() {
	rootCmd.AddCommand(outreachCmd)
}
