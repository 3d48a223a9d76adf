package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/benaskins/roost/internal/config"
	"github.com/benaskins/roost/internal/update"
)

var checkUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Check the release feed for a newer version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		checker := update.NewChecker(cfg.UpdateFeed, version, time.Second)
		rel, err := checker.Check(cmd.Context())
		if err != nil {
			return err
		}

		if rel.Newer {
			fmt.Printf("New version %s available: %s\n", rel.Version, rel.URL)
		} else {
			fmt.Printf("roost %s is up to date (latest: %s)\n", version, rel.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkUpdateCmd)
}
