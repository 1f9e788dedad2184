package output

import (
	"fmt"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// DescriptionMarkdown converts an offer's HTML description to markdown,
// resolving relative links against the offer page.
func DescriptionMarkdown(p *models.Product1688) (string, error) {
	if strings.TrimSpace(p.Description) == "" {
		return "", nil
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, sel *goquery.Selection, _ *md.Options) *string {
			href, ok := sel.Attr("href")
			if !ok {
				return nil
			}
			s := fmt.Sprintf("[%s](%s)", strings.TrimSpace(sel.Text()), urlutil.ResolveURL(p.SourceURL, href))
			return &s
		},
	})

	cleaned, err := CleanHTML(p.Description)
	if err != nil {
		return "", err
	}
	return converter.ConvertString(cleaned)
}

// WriteMarkdown writes a human-readable summary of p.
func WriteMarkdown(w io.Writer, p *models.Product1688) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "- Offer: [%s](%s)\n", p.ProductID, p.SourceURL)
	if p.SupplierName != "" || p.SupplierID != "" {
		fmt.Fprintf(&b, "- Supplier: %s", p.SupplierName)
		if p.SupplierID != "" {
			fmt.Fprintf(&b, " (%s)", p.SupplierID)
		}
		b.WriteString("\n")
	}
	if p.CategoryName != "" {
		fmt.Fprintf(&b, "- Category: %s\n", p.CategoryName)
	}
	if p.Weight != nil {
		fmt.Fprintf(&b, "- Weight: %s kg\n", FormatPrice(*p.Weight))
	}
	fmt.Fprintf(&b, "- Extracted: %s\n\n", p.ExtractedAt)

	b.WriteString("## Prices\n\n| Quantity | Price (CNY) |\n|---|---|\n")
	for _, t := range p.PriceTiers {
		qty := fmt.Sprintf("%d+", t.MinQty)
		if t.MaxQty != nil {
			qty = fmt.Sprintf("%d-%d", t.MinQty, *t.MaxQty)
		}
		fmt.Fprintf(&b, "| %s | %s |\n", qty, FormatPrice(t.Price))
	}

	if len(p.SKUs) > 0 {
		b.WriteString("\n## Variants\n\n| SKU | Attributes | Price | Stock |\n|---|---|---|---|\n")
		for _, s := range p.SKUs {
			price, stock := "", ""
			if s.Price != nil {
				price = FormatPrice(*s.Price)
			}
			if s.Stock != nil {
				stock = fmt.Sprint(*s.Stock)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", s.SkuID, attributeString(s.Attributes), price, stock)
		}
	}

	b.WriteString("\n## Images\n\n")
	for _, img := range p.Images.Main {
		fmt.Fprintf(&b, "![](%s)\n", img)
	}

	desc, err := DescriptionMarkdown(p)
	if err != nil {
		return fmt.Errorf("convert description: %w", err)
	}
	if desc != "" {
		fmt.Fprintf(&b, "\n## Description\n\n%s\n", desc)
	}

	_, err = io.WriteString(w, b.String())
	return err
}
