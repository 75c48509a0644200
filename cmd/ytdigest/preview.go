package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_ytdigest/internal/notion"
)

var previewEntry notion.SummaryEntry

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Print the Notion blocks built from a summary",
	Long: `Read summary text from a file (or stdin when no file or "-" is given)
and print the Notion block JSON a publish would send. No network calls.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		text, err := readSummary(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return writePreview(cmd.OutOrStdout(), previewEntry, text)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	f := previewCmd.Flags()
	f.StringVar(&previewEntry.VideoTitle, "title", "Preview", "video title for the heading")
	f.StringVar(&previewEntry.VideoURL, "url", "", "video URL the heading links to")
	f.StringVar(&previewEntry.ChannelTitle, "channel", "", "channel name")
}

func readSummary(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func writePreview(w io.Writer, entry notion.SummaryEntry, text string) error {
	entry.SummaryText = text
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(notion.WireBlocks(notion.BuildBlocks([]notion.SummaryEntry{entry})))
}
