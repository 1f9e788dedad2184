package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

var csvHeader = []string{"productId", "skuId", "attributes", "price", "stock", "image"}

// FormatPrice renders a CNY amount with two decimals.
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// BasePrice is the price of the smallest quantity tier.
func BasePrice(p *models.Product1688) (float64, bool) {
	if len(p.PriceTiers) == 0 {
		return 0, false
	}
	base := p.PriceTiers[0]
	for _, t := range p.PriceTiers[1:] {
		if t.MinQty < base.MinQty {
			base = t
		}
	}
	return base.Price, true
}

// WriteCSV writes one row per SKU. A product without SKUs gets a single row at
// its base price.
func WriteCSV(w io.Writer, p *models.Product1688) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	if len(p.SKUs) == 0 {
		price := ""
		if v, ok := BasePrice(p); ok {
			price = FormatPrice(v)
		}
		image := ""
		if len(p.Images.Main) > 0 {
			image = p.Images.Main[0]
		}
		if err := cw.Write([]string{p.ProductID, "", "", price, "", image}); err != nil {
			return err
		}
	}

	for _, s := range p.SKUs {
		row := []string{p.ProductID, s.SkuID, attributeString(s.Attributes), "", "", s.Image}
		if s.Price != nil {
			row[3] = FormatPrice(*s.Price)
		}
		if s.Stock != nil {
			row[4] = strconv.Itoa(*s.Stock)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func attributeString(attrs *models.Attributes) string {
	if attrs == nil {
		return ""
	}
	var parts []string
	for pair := attrs.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, pair.Key+"="+pair.Value)
	}
	return strings.Join(parts, "; ")
}
