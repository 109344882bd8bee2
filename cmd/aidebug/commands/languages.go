package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devchat-app/aidebug/internal/catalog"
	"github.com/devchat-app/aidebug/internal/pattern"
)

// languagesCmd represents the languages command
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages in the rule catalog",
	Long: `List every catalog language with its file extensions and rule counts.

Entries from rules.rules_dir replace built-in entries with the same key.

Examples:
  # List languages
  aidebug languages

  # Compile every pattern and report the first broken one
  aidebug languages --check`,
	Args: cobra.NoArgs,
	RunE: runLanguages,
}

// Flags for languages command
var (
	languagesCheck bool
	languagesJSON  bool
)

func init() {
	rootCmd.AddCommand(languagesCmd)

	languagesCmd.Flags().BoolVar(&languagesCheck, "check", false, "compile every pattern")
	languagesCmd.Flags().BoolVar(&languagesJSON, "json", false, "output as JSON")
}

// languageSummary is one row of the languages listing.
type languageSummary struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Rules      int      `json:"rules"`
	Tips       int      `json:"tips"`
	Fixes      int      `json:"fixes"`
	Default    bool     `json:"default"`
}

func runLanguages(cmd *cobra.Command, args []string) error {
	cat, err := catalog.NewLoader(cfg.Rules.RulesDir, cfg.Analysis.DefaultLanguage).Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	if languagesCheck {
		if err := cat.Validate(pattern.NewCompiler(cfg.Analysis.MatchTimeout)); err != nil {
			return fmt.Errorf("catalog check failed: %w", err)
		}
		info(cmd, "All patterns compile.")
	}

	summaries := summarizeCatalog(cat)
	out := cmd.OutOrStdout()

	if languagesJSON {
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal languages: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tEXTENSIONS\tRULES\tTIPS\tFIXES")
	for _, s := range summaries {
		key := s.Key
		if s.Default {
			key += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			key, s.Name, strings.Join(s.Extensions, ","), s.Rules, s.Tips, s.Fixes)
	}
	return tw.Flush()
}

func summarizeCatalog(cat *catalog.Catalog) []languageSummary {
	keys := cat.Languages()
	out := make([]languageSummary, 0, len(keys))
	for _, key := range keys {
		e := cat.Lookup(key)
		out = append(out, languageSummary{
			Key:        key,
			Name:       e.Name,
			Extensions: e.Extensions,
			Rules:      len(e.SyntaxErrors) + len(e.PotentialBugs) + len(e.StyleIssues),
			Tips:       len(e.BestPractices) + len(e.PerformanceTips) + len(e.ReadabilityTips),
			Fixes:      len(e.Fixes),
			Default:    key == cat.DefaultLanguage(),
		})
	}
	return out
}
