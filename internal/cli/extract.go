package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/engine/batch"
	"github.com/maialino123/ecomate-extract/internal/pipeline"
	"github.com/maialino123/ecomate-extract/internal/ui"
	headersutil "github.com/maialino123/ecomate-extract/internal/utils/headers"
	"github.com/maialino123/ecomate-extract/internal/utils/output"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

var (
	extractMode        string
	extractFormat      string
	extractOutputDir   string
	extractRaw         bool
	extractStdout      bool
	extractHeaders     []string
	extractConcurrency int
	extractWait        int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <url> [url...]",
	Short: "Extract a product record from 1688.com offer pages",
	Long: `Captures each offer page, runs the extraction strategies against it,
normalizes the result and validates it before export.

Each product is written to 1688_<productId>_<unixMillis>.json (or .md/.csv)
in the output directory. Several URLs are extracted concurrently.`,
	Example: `  # Extract one offer to the current directory
  ecomate extract https://detail.1688.com/offer/610947572360.html

  # Force headless Chrome and write markdown
  ecomate extract https://detail.1688.com/offer/610947572360.html --mode=browser --format=markdown

  # Print the raw content handler response instead of exporting
  ecomate extract https://detail.1688.com/offer/610947572360.html --raw

  # Extract several offers, four at a time
  ecomate extract URL1 URL2 URL3 --concurrency=4 --output-dir=./products`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractMode, "mode", "m", "", "Capture engine: auto, static, or browser (default from config)")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "Export format: json, markdown, or csv")
	extractCmd.Flags().StringVarP(&extractOutputDir, "output-dir", "o", "", "Directory for exported files (default from config)")
	extractCmd.Flags().BoolVar(&extractRaw, "raw", false, "Print the content handler response instead of exporting")
	extractCmd.Flags().BoolVar(&extractStdout, "stdout", false, "Write the export to stdout instead of a file")
	extractCmd.Flags().StringArrayVarP(&extractHeaders, "header", "H", []string{}, "Custom headers (e.g., -H \"Cookie: cna=...\")")
	extractCmd.Flags().IntVarP(&extractConcurrency, "concurrency", "c", 0, fmt.Sprintf("Offers extracted at once (default %d)", batch.DefaultConcurrency()))
	extractCmd.Flags().IntVar(&extractWait, "wait", 0, "Extra seconds for scripts to settle in browser mode")
}

func runExtract(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	mode, err := parseMode(extractMode)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(extractFormat)
	if err != nil {
		return err
	}
	hdrs, err := headersutil.Parse(extractHeaders)
	if err != nil {
		return err
	}
	dir := extractOutputDir
	if dir == "" {
		dir = a.Config.OutputDir
	}

	p, err := a.Pipeline(mode)
	if err != nil {
		return err
	}

	requests := make([]models.FetchOptions, len(args))
	for i, u := range args {
		requests[i] = models.FetchOptions{
			URL:         u,
			Mode:        mode,
			Headers:     hdrs,
			WaitSeconds: extractWait,
		}
	}

	if len(requests) == 1 {
		res, err := p.Run(cmd.Context(), requests[0])
		if extractRaw {
			return printRaw(res, err)
		}
		if err != nil {
			return errors.New(engine.UserMessage(err))
		}
		return exportProduct(res.Product, dir, format)
	}

	for _, g := range batch.GroupByHost(requests) {
		log.Debug().Str("host", g.Host).Int("urls", len(g.Indexes)).Msg("Batch group")
	}

	results := batch.Run(cmd.Context(), requests, extractConcurrency, func(ctx context.Context, opts models.FetchOptions) (*pipeline.Result, error) {
		return p.Run(ctx, opts)
	})

	for i, r := range results {
		fmt.Fprintf(os.Stderr, "%s [%d/%d] %s\n", statusMark(r.Err), i+1, len(results), ui.ColorWhite+r.Request.URL+ui.ColorReset)
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorDim+"Error:"+ui.ColorReset, ui.Error(engine.UserMessage(r.Err)))
			continue
		}
		if extractRaw {
			_ = output.WriteJSON(os.Stdout, r.Value.Response)
			continue
		}
		if err := exportProduct(r.Value.Product, dir, format); err != nil {
			fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorDim+"Error:"+ui.ColorReset, ui.Error(err.Error()))
		}
	}

	if n := batch.Failed(results); n > 0 {
		return fmt.Errorf("%d of %d extraction(s) failed", n, len(results))
	}
	return nil
}

// printRaw writes the content handler response. Failures before the handler
// answered are reported in the same shape.
func printRaw(res *pipeline.Result, err error) error {
	if res != nil && res.Response != nil {
		if werr := output.WriteJSON(os.Stdout, res.Response); werr != nil {
			return werr
		}
		if !res.Response.Success {
			return errors.New(res.Response.Error)
		}
		return nil
	}
	if err == nil {
		return nil
	}
	msg := engine.UserMessage(err)
	if werr := output.WriteJSON(os.Stdout, models.ExtractResponse{Error: msg}); werr != nil {
		return werr
	}
	return errors.New(msg)
}

func exportProduct(p *models.Product1688, dir string, format output.Format) error {
	if extractStdout {
		switch format {
		case output.FormatMarkdown:
			return output.WriteMarkdown(os.Stdout, p)
		case output.FormatCSV:
			return output.WriteCSV(os.Stdout, p)
		default:
			return output.WriteJSON(os.Stdout, p)
		}
	}

	path, err := output.Save(p, dir, format, time.Now())
	if err != nil {
		return fmt.Errorf("failed to export product: %w", err)
	}
	printProduct(os.Stderr, p)
	fmt.Fprintf(os.Stderr, "\n%s %s\n", ui.Success("✓ Saved to"), path)
	return nil
}

func statusMark(err error) string {
	if err != nil {
		return ui.Error("✗")
	}
	return ui.Success("✓")
}
