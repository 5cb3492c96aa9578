package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huhu/rustdoc-relay/internal/logging"
	"github.com/huhu/rustdoc-relay/internal/search"
	"github.com/huhu/rustdoc-relay/internal/storage"
	"github.com/huhu/rustdoc-relay/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the relayed payload and crate search over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.BuildLogger(logLevel)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var searcher web.CrateSearcher
		if s, err := search.NewSQLiteSearcher(cfg.IndexPath()); err != nil {
			logger.Warn("crate index unavailable", "error", err)
		} else {
			searcher = s
			defer func() { _ = s.Close() }()
		}

		server := web.NewServer(logger, searcher, storage.New(cfg.ArtifactDir()))
		return server.ListenAndServe(serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP bind address")
	rootCmd.AddCommand(serveCmd)
}
