package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragctx/internal/domain/search/request"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/ragctx/internal/logger"
)

const snippetRunes = 240

var (
	searchLimit int
	searchTheme string
	searchJSON  bool
)

var (
	highScore = color.New(color.FgGreen, color.Bold).SprintFunc()
	midScore  = color.New(color.FgYellow).SprintFunc()
	lowScore  = color.New(color.FgRed).SprintFunc()
	titleText = color.New(color.FgCyan).SprintFunc()
	dimText   = color.New(color.Faint).SprintFunc()
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank passages for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query is required")
		}
		req, err := request.New(query, searchLimit, searchTheme)
		if err != nil {
			return err
		}

		a, logger, err := openApp(cmd.Context(), logpkg.EnvCLI)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer a.Close()

		ranked, err := a.Search.Search(cmd.Context(), &req)
		if err != nil {
			return err
		}

		if searchJSON {
			return writeResultsJSON(cmd.OutOrStdout(), ranked)
		}
		printResults(cmd.OutOrStdout(), ranked)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum results (default from config)")
	searchCmd.Flags().StringVarP(&searchTheme, "theme", "t", "", "keep passages with a theme containing this text")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// printResults renders ranked passages with scores colored by strength.
func printResults(w io.Writer, ranked []result.Scored) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, dimText("No passages above the relevance threshold."))
		return
	}
	for i := range ranked {
		r := &ranked[i]
		p := r.Passage()
		meta := p.Metadata()

		fmt.Fprintf(w, "%d. %s  %s\n", i+1, scoreColor(r.Combined()), titleText(meta.DocumentKey()))
		fmt.Fprintf(w, "   %s\n", dimText(fmt.Sprintf("sim=%.3f theme=%.3f gist=%.3f id=%s",
			r.Similarity(), r.ThemeScore(), r.GistScore(), p.ID())))
		fmt.Fprintf(w, "   %s\n\n", snippet(p.Text(), snippetRunes))
	}
}

func scoreColor(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	switch {
	case v >= 0.7:
		return highScore(s)
	case v >= 0.5:
		return midScore(s)
	default:
		return lowScore(s)
	}
}

// snippet collapses whitespace and cuts text to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

type jsonResult struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Themes        []string `json:"themes,omitempty"`
	Text          string   `json:"text"`
	Similarity    float64  `json:"similarity"`
	ThemeScore    float64  `json:"theme_score"`
	GistScore     float64  `json:"gist_score"`
	CombinedScore float64  `json:"combined_score"`
}

func writeResultsJSON(w io.Writer, ranked []result.Scored) error {
	out := make([]jsonResult, len(ranked))
	for i := range ranked {
		r := &ranked[i]
		p := r.Passage()
		out[i] = jsonResult{
			ID:            p.ID(),
			Title:         p.Metadata().DocumentKey(),
			Themes:        p.Metadata().Themes,
			Text:          p.Text(),
			Similarity:    r.Similarity(),
			ThemeScore:    r.ThemeScore(),
			GistScore:     r.GistScore(),
			CombinedScore: r.Combined(),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
