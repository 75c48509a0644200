package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_ytdigest/internal/app"
	"github.com/anatolykoptev/go_ytdigest/internal/digest"
)

var runOpts digest.Options

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one digest and print the result as JSON",
	Long: `Discover videos published in the window, summarise them, write the
Markdown document and publish it to Notion.

Examples:
  ytdigest run
  ytdigest run --language en --max-per-channel 3
  ytdigest run --skip-llm --skip-notion --output /tmp/digest.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Runner.Run(cmd.Context(), runOpts)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVar(&runOpts.Start, "start", "", "window start, ISO 8601 (default: previous day 07:00 in DIGEST_TIMEZONE)")
	f.StringVar(&runOpts.End, "end", "", "window end, ISO 8601 (default: now)")
	f.StringVar(&runOpts.Language, "language", "", "summary language (default: DIGEST_LANGUAGE or zh-CN)")
	f.IntVar(&runOpts.MaxPerChannel, "max-per-channel", 0, "limit videos per channel (0 = unlimited)")
	f.StringVar(&runOpts.OutputPath, "output", "", "Markdown output path (default: DIGEST_OUTPUT)")
	f.StringVar(&runOpts.Title, "title", "", "document and Notion page title (default: window start date)")
	f.BoolVar(&runOpts.SkipLLM, "skip-llm", false, "skip transcripts and summaries, only collect metadata")
	f.BoolVar(&runOpts.SkipNotion, "skip-notion", false, "skip uploading to Notion")
}
