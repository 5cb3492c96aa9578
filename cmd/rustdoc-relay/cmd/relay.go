package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/huhu/rustdoc-relay/internal/fetcher"
	"github.com/huhu/rustdoc-relay/internal/logging"
	"github.com/huhu/rustdoc-relay/internal/relay"
	"github.com/huhu/rustdoc-relay/internal/storage"
)

var (
	relayDocsURL string
	relayTarget  string
	relayStdout  bool
	relayNoStore bool
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Extract the nightly search index and broadcast it once",
	Long: `relay fetches the nightly std docs page, reduces its search index to
the std, test and proc_macro crates, reads the toolchain version from
the page sidebar and sends exactly one message to the configured
target.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.BuildLogger(logLevel)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if relayDocsURL != "" {
			cfg.DocsURL = relayDocsURL
		}
		if relayTarget != "" {
			cfg.RelayTarget = relayTarget
		}

		var bus relay.Broadcaster
		if relayStdout || cfg.RelayTarget == "" {
			bus = &relay.WriterBroadcaster{W: os.Stdout}
		} else {
			b := relay.NewHTTPBroadcaster(cfg.RelayTarget)
			b.Logger = logger
			bus = b
		}

		source := fetcher.New(cfg.DocsURL)
		source.Logger = logger

		svc := &relay.Service{
			Source: source,
			Bus:    bus,
			Logger: logger,
		}
		if !relayNoStore {
			svc.Archive = storage.New(cfg.ArtifactDir())
		}

		return svc.Run(cmd.Context())
	},
}

func init() {
	relayCmd.Flags().StringVar(&relayDocsURL, "docs-url", "", "Override the docs page URL")
	relayCmd.Flags().StringVar(&relayTarget, "target", "", "Override the broadcast target URL")
	relayCmd.Flags().BoolVar(&relayStdout, "stdout", false, "Write the message to stdout instead of posting it")
	relayCmd.Flags().BoolVar(&relayNoStore, "no-store", false, "Do not archive the payload for the API server")
	rootCmd.AddCommand(relayCmd)
}
