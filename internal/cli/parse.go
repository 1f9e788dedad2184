package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/reqctx"
	"github.com/maialino123/ecomate-extract/internal/utils/output"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

var (
	parseURL     string
	parseGlobals string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file.html>",
	Short: "Extract a product from a saved offer page",
	Long: `Runs the extraction pipeline against an HTML file saved from an offer page,
without touching the network.

Page globals such as window.__INITIAL_STATE__ are evaluated from the page's
inline scripts. A JSON file of globals captured elsewhere can be supplied
with --globals.`,
	Example: `  # Parse a page saved from the browser
  ecomate parse offer.html --url=https://detail.1688.com/offer/610947572360.html

  # Print the content handler response
  ecomate parse offer.html --url=https://detail.1688.com/offer/610947572360.html --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseURL, "url", "u", "", "URL the page was saved from (required)")
	parseCmd.Flags().StringVarP(&parseGlobals, "globals", "g", "", "JSON object of page globals captured with the page")
	parseCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "Export format: json, markdown, or csv")
	parseCmd.Flags().StringVarP(&extractOutputDir, "output-dir", "o", "", "Directory for exported files (default from config)")
	parseCmd.Flags().BoolVar(&extractRaw, "raw", false, "Print the content handler response instead of exporting")
	parseCmd.Flags().BoolVar(&extractStdout, "stdout", false, "Write the export to stdout instead of a file")
	_ = parseCmd.MarkFlagRequired("url")
}

func runParse(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	format, err := output.ParseFormat(extractFormat)
	if err != nil {
		return err
	}
	dir := extractOutputDir
	if dir == "" {
		dir = a.Config.OutputDir
	}

	html, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}
	snap := &models.PageSnapshot{
		URL:        parseURL,
		StatusCode: 200,
		HTML:       string(html),
		Engine:     "file",
		FetchedAt:  time.Now(),
	}
	if parseGlobals != "" {
		raw, err := os.ReadFile(parseGlobals)
		if err != nil {
			return fmt.Errorf("failed to read globals: %w", err)
		}
		if err := json.Unmarshal(raw, &snap.Globals); err != nil {
			return fmt.Errorf("failed to decode globals: %w", err)
		}
	}

	ctx := reqctx.WithRequestContext(cmd.Context(), parseURL)
	res, err := a.OfflinePipeline().RunSnapshot(ctx, snap)
	if extractRaw {
		return printRaw(res, err)
	}
	if err != nil {
		return errors.New(engine.UserMessage(err))
	}
	return exportProduct(res.Product, dir, format)
}
