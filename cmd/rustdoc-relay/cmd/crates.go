package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/huhu/rustdoc-relay/internal/crates"
	"github.com/huhu/rustdoc-relay/internal/logging"
	"github.com/huhu/rustdoc-relay/internal/search"
	"github.com/huhu/rustdoc-relay/internal/storage"
)

var (
	cratesDumpDir   string
	cratesForce     bool
	cratesMaxCrates int
)

var cratesCmd = &cobra.Command{
	Use:   "crates",
	Short: "Build the minified crates index from a crates.io dump",
	Long: `crates reads crates.csv and versions.csv from the dump directory,
keeps the most-downloaded crates with their latest versions, writes the
minified crates.js artifact and refreshes the local crate search index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.BuildLogger(logLevel)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cratesDumpDir != "" {
			cfg.DumpDir = cratesDumpDir
		}
		if cfg.DumpDir == "" {
			return errors.New("dump directory required (--dump-dir or config dump_dir)")
		}
		if cratesMaxCrates > 0 {
			cfg.MaxCrates = cratesMaxCrates
		}

		indexer, err := search.NewSQLiteIndexer(cfg.IndexPath())
		if err != nil {
			return err
		}
		defer func() {
			if err := indexer.Close(); err != nil {
				logger.Error("close crate index", "error", err)
			}
		}()

		builder := &crates.Builder{
			DumpDir:   cfg.DumpDir,
			MaxCrates: cfg.MaxCrates,
			Force:     cratesForce,
			Artifacts: storage.New(cfg.ArtifactDir()),
			Indexer:   indexer,
			Logger:    logger,
		}
		return builder.Run(cmd.Context())
	},
}

func init() {
	cratesCmd.Flags().StringVar(&cratesDumpDir, "dump-dir", "", "Directory holding crates.csv and versions.csv")
	cratesCmd.Flags().BoolVar(&cratesForce, "force", false, "Rebuild even when the dump is unchanged")
	cratesCmd.Flags().IntVar(&cratesMaxCrates, "max-crates", 0, "Cap on indexed crates (default 20000)")
	rootCmd.AddCommand(cratesCmd)
}
