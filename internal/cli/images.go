package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/maialino123/ecomate-extract/internal/downloader"
	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/ui"
	headersutil "github.com/maialino123/ecomate-extract/internal/utils/headers"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

var (
	imagesMode      string
	imagesOutputDir string
	imagesWorkers   int
	imagesKinds     []string
	imagesHeaders   []string
)

// imagesCmd represents the images command
var imagesCmd = &cobra.Command{
	Use:   "images <url>",
	Short: "Download the gallery, description and variant images of an offer",
	Long: `Extracts the offer first, then downloads its images with a pool of workers.

Files are named main_NN, detail_NN and sku_<skuId> and written to a
directory named after the offer id. An image used in several places is
downloaded once.`,
	Example: `  # Download every image of an offer
  ecomate images https://detail.1688.com/offer/610947572360.html

  # Only gallery and variant images, eight workers
  ecomate images https://detail.1688.com/offer/610947572360.html --kind=main,sku --workers=8`,
	Args: cobra.ExactArgs(1),
	RunE: runImages,
}

func init() {
	rootCmd.AddCommand(imagesCmd)

	imagesCmd.Flags().StringVarP(&imagesMode, "mode", "m", "", "Capture engine: auto, static, or browser (default from config)")
	imagesCmd.Flags().StringVarP(&imagesOutputDir, "output-dir", "o", "", "Directory for the images (default <output-dir>/<productId>)")
	imagesCmd.Flags().IntVarP(&imagesWorkers, "workers", "w", downloader.DefaultWorkers, fmt.Sprintf("Concurrent downloads (1-%d)", downloader.MaxWorkers))
	imagesCmd.Flags().StringSliceVarP(&imagesKinds, "kind", "k", []string{"main", "detail", "sku"}, "Images to fetch: main, detail, sku")
	imagesCmd.Flags().StringArrayVarP(&imagesHeaders, "header", "H", []string{}, "Custom headers for the page request")
}

func runImages(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	mode, err := parseMode(imagesMode)
	if err != nil {
		return err
	}
	kinds, err := parseKinds(imagesKinds)
	if err != nil {
		return err
	}
	hdrs, err := headersutil.Parse(imagesHeaders)
	if err != nil {
		return err
	}

	p, err := a.Pipeline(mode)
	if err != nil {
		return err
	}
	res, err := p.Run(cmd.Context(), models.FetchOptions{URL: args[0], Mode: mode, Headers: hdrs})
	if err != nil {
		return errors.New(engine.UserMessage(err))
	}
	product := res.Product

	jobs := downloader.Jobs(product, kinds...)
	if len(jobs) == 0 {
		fmt.Fprintln(os.Stderr, "\n"+ui.Info("No images found on this offer."))
		return nil
	}

	dir := imagesOutputDir
	if dir == "" {
		dir = filepath.Join(a.Config.OutputDir, product.ProductID)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log.Debug().
		Str("product_id", product.ProductID).
		Int("images", len(jobs)).
		Int("workers", imagesWorkers).
		Str("output", absDir).
		Msg("Starting image download")

	fmt.Fprintf(os.Stderr, "\n%s %s\n", ui.Bold("Found"), ui.ColorWhite+fmt.Sprintf("%d image(s) for offer %s", len(jobs), product.ProductID)+ui.ColorReset)

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	start := time.Now()
	results := a.Downloader.DownloadAll(cmd.Context(), jobs, absDir, imagesWorkers, func(*downloader.Result) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	summary := downloader.Summarize(results)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n", ui.Error("✗"), ui.ColorWhite+r.Job.URL+ui.ColorReset)
			fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorDim+"Error:"+ui.ColorReset, ui.Error(r.Err.Error()))
		}
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", ui.Bold("Summary:"))
	fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorBold+"Total:"+ui.ColorReset, ui.ColorWhite+fmt.Sprintf("%d files", len(results))+ui.ColorReset)
	fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorBold+"Success:"+ui.ColorReset, ui.Success(fmt.Sprintf("%d", summary.Succeeded)))
	fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorBold+"Failed:"+ui.ColorReset, ui.Error(fmt.Sprintf("%d", summary.Failed)))
	fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorBold+"Total Size:"+ui.ColorReset, ui.ColorWhite+formatBytes(summary.Bytes)+ui.ColorReset)
	fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorBold+"Elapsed:"+ui.ColorReset, ui.ColorWhite+time.Since(start).Round(time.Millisecond).String()+ui.ColorReset)
	fmt.Fprintf(os.Stderr, "  %s %s\n", ui.ColorBold+"Output Directory:"+ui.ColorReset, ui.ColorWhite+absDir+ui.ColorReset)

	if summary.Failed > 0 {
		return fmt.Errorf("%d download(s) failed", summary.Failed)
	}
	return nil
}

func parseKinds(names []string) ([]downloader.Kind, error) {
	var kinds []downloader.Kind
	for _, n := range names {
		switch k := downloader.Kind(strings.ToLower(strings.TrimSpace(n))); k {
		case downloader.KindMain, downloader.KindDetail, downloader.KindSKU:
			kinds = append(kinds, k)
		default:
			return nil, fmt.Errorf("invalid image kind: %s (must be main, detail, or sku)", n)
		}
	}
	return kinds, nil
}
