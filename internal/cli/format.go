package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/maialino123/ecomate-extract/internal/ui"
	"github.com/maialino123/ecomate-extract/internal/utils/output"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// parseMode maps the --mode flag onto a capture engine.
func parseMode(s string) (models.FetchMode, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "auto":
		return models.ModeAuto, nil
	case "static", "http":
		return models.ModeStatic, nil
	case "browser", "spa", "chrome":
		return models.ModeBrowser, nil
	}
	return "", fmt.Errorf("invalid mode: %s (must be auto, static, or browser)", s)
}

// formatBytes formats byte count as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// printProduct writes a short human summary of p.
func printProduct(w io.Writer, p *models.Product1688) {
	fmt.Fprintf(w, "\n%s\n", ui.Bold(p.Title))
	fmt.Fprintf(w, "  %s %s\n", ui.ColorDim+"Offer:   "+ui.ColorReset, p.ProductID)
	if price, ok := output.BasePrice(p); ok {
		fmt.Fprintf(w, "  %s %s %s\n", ui.ColorDim+"Price:   "+ui.ColorReset, output.FormatPrice(price), p.Currency)
	}
	if len(p.PriceTiers) > 0 {
		fmt.Fprintf(w, "  %s %d\n", ui.ColorDim+"Tiers:   "+ui.ColorReset, len(p.PriceTiers))
	}
	fmt.Fprintf(w, "  %s %d\n", ui.ColorDim+"Variants:"+ui.ColorReset, len(p.SKUs))
	fmt.Fprintf(w, "  %s %d main, %d detail\n", ui.ColorDim+"Images:  "+ui.ColorReset, len(p.Images.Main), len(p.Images.Detail))
	if p.SupplierName != "" {
		fmt.Fprintf(w, "  %s %s\n", ui.ColorDim+"Supplier:"+ui.ColorReset, p.SupplierName)
	}
}
