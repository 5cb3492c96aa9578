package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/huhu/rustdoc-relay/internal/search"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the local crate index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		searcher, err := search.NewSQLiteSearcher(cfg.IndexPath())
		if err != nil {
			return err
		}
		defer func() { _ = searcher.Close() }()

		resp, err := searcher.Search(cmd.Context(), strings.Join(args, " "), searchLimit, 0)
		if err != nil {
			return err
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		if resp.Total == 0 {
			fmt.Println("no crates found")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, r := range resp.Results {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Name, r.Version, r.Downloads, r.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d of %d crates\n", len(resp.Results), resp.Total)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Emit results as JSON")
	rootCmd.AddCommand(searchCmd)
}
