package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devchat-app/aidebug/internal/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and search past analyses",
	Long: `Display stored analyses, newest first.

Examples:
  # Last 20 analyses
  aidebug history

  # Python analyses that raised a console-related issue
  aidebug history --language python --search console

  # Aggregate statistics
  aidebug history --stats`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("language", "", "Only analyses of this language")
	historyCmd.Flags().String("search", "", "Full-text search over issue titles")
	historyCmd.Flags().String("source", "", "Only analyses of this file ('*' is a wildcard)")
	historyCmd.Flags().String("severity", "", "Only analyses with an issue of this severity")
	historyCmd.Flags().Int("limit", 20, "Number of analyses to show")
	historyCmd.Flags().Bool("stats", false, "Show aggregate statistics")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
}

// runHistory implements the history command logic
func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.History.Enabled {
		return errors.New("history is disabled (history.enabled: false)")
	}

	store, err := history.NewStore(history.StoreConfig{Path: cfg.History.Path})
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer store.Close()

	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		s, err := store.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("computing stats: %w", err)
		}
		if asJSON {
			return printJSON(out, s)
		}
		printHistoryStats(out, s)
		return nil
	}

	q := history.Query{}
	q.Language, _ = cmd.Flags().GetString("language")
	q.Text, _ = cmd.Flags().GetString("search")
	q.Source, _ = cmd.Flags().GetString("source")
	q.Severity, _ = cmd.Flags().GetString("severity")
	q.Limit, _ = cmd.Flags().GetInt("limit")
	q.Language = strings.ToLower(q.Language)

	res, err := store.List(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}
	if asJSON {
		return printJSON(out, res)
	}

	if len(res.Records) == 0 {
		fmt.Fprintln(out, "No analyses found.")
		return nil
	}
	printHistoryRecords(out, res)
	return nil
}

func printHistoryRecords(w io.Writer, res *history.ListResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tLANGUAGE\tISSUES\tE/W/I\tFIXED")
	for _, r := range res.Records {
		fixed := "no"
		if r.Fixed {
			fixed = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d/%d/%d\t%s\n",
			shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Source, r.Language,
			r.IssueCount, r.Errors, r.Warnings, r.Infos, fixed)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nShowing %d of %d analyses\n", len(res.Records), res.TotalCount)
}

func printHistoryStats(w io.Writer, s *history.Stats) {
	fmt.Fprintf(w, "Analyses:       %d\n", s.TotalAnalyses)
	fmt.Fprintf(w, "Issues:         %d\n", s.TotalIssues)
	fmt.Fprintf(w, "With fixes:     %d\n", s.FixedAnalyses)

	printCounts(w, "By severity", s.BySeverity)
	printCounts(w, "By language", s.ByLanguage)

	if len(s.TopIssues) > 0 {
		fmt.Fprintln(w, "\nMost frequent issues")
		for _, t := range s.TopIssues {
			fmt.Fprintf(w, "  %-40s %d\n", t.Title, t.Count)
		}
	}
}

func printCounts(w io.Writer, title string, counts map[string]int64) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "\n%s\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-12s %d\n", k, counts[k])
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// shortID truncates a UUID for table output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
