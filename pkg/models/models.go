package models

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// Currency is the marketplace's native currency.
	Currency = "CNY"
	// ExtractedBy tags every record produced by this pipeline.
	ExtractedBy = "ecomate-extension"
	// MessageExtractProduct is the only request type the content handler answers.
	MessageExtractProduct = "EXTRACT_PRODUCT"
)

// RawRecord is whatever a single extraction strategy managed to pull off the page.
// Values are JSON-like: string, float64, bool, nil, []any, map[string]any.
type RawRecord map[string]any

// PriceTier is one quantity break-point.
type PriceTier struct {
	MinQty int     `json:"minQty" validate:"gt=0"`
	MaxQty *int    `json:"maxQty,omitempty" validate:"omitempty,gt=0"`
	Price  float64 `json:"price" validate:"gt=0"`
}

// Attributes keeps SKU attribute names in insertion order.
type Attributes = orderedmap.OrderedMap[string, string]

// NewAttributes returns an empty ordered attribute map.
func NewAttributes() *Attributes {
	return orderedmap.New[string, string]()
}

// SKUVariation is one purchasable combination of options.
type SKUVariation struct {
	SkuID      string      `json:"skuId,omitempty"`
	Attributes *Attributes `json:"attributes" validate:"required"`
	Price      *float64    `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock      *int        `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Image      string      `json:"image,omitempty" validate:"omitempty,http_url"`
}

// ProductImages groups gallery and description images.
type ProductImages struct {
	Main   []string `json:"main" validate:"min=1,dive,http_url"`
	Detail []string `json:"detail" validate:"dive,http_url"`
}

// Product1688 is the validated output of the pipeline.
type Product1688 struct {
	SourceURL          string         `json:"sourceUrl" validate:"required,http_url"`
	ProductID          string         `json:"productId" validate:"required"`
	Title              string         `json:"title" validate:"required"`
	Description        string         `json:"description,omitempty"`
	PriceTiers         []PriceTier    `json:"priceTiers" validate:"min=1,dive"`
	Currency           string         `json:"currency" validate:"eq=CNY"`
	SKUs               []SKUVariation `json:"skus" validate:"dive"`
	Weight             *float64       `json:"weight,omitempty" validate:"omitempty,gt=0"`
	ShippingTemplateID string         `json:"shippingTemplateId,omitempty"`
	Images             ProductImages  `json:"images"`
	SupplierID         string         `json:"supplierId,omitempty"`
	SupplierName       string         `json:"supplierName,omitempty"`
	CategoryID         string         `json:"categoryId,omitempty"`
	CategoryName       string         `json:"categoryName,omitempty"`
	ExtractedAt        string         `json:"extractedAt" validate:"required,datetime=2006-01-02T15:04:05.000Z07:00"`
	ExtractedBy        string         `json:"extractedBy" validate:"eq=ecomate-extension"`
}

// ExtractRequest is sent by the requester to the content handler.
type ExtractRequest struct {
	Type string `json:"type"`
}

// ExtractData is the payload of a successful extraction.
type ExtractData struct {
	RawData RawRecord `json:"rawData"`
	URL     string    `json:"url"`
}

// ExtractResponse is the one-shot answer to an ExtractRequest.
type ExtractResponse struct {
	Success bool         `json:"success"`
	Data    *ExtractData `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// PageSnapshot is one captured marketplace page.
type PageSnapshot struct {
	URL          string            `json:"url"`
	StatusCode   int               `json:"status_code"`
	Title        string            `json:"title,omitempty"`
	HTML         string            `json:"html,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Globals      map[string]any    `json:"globals,omitempty"` // evaluated in a live browser
	Engine       string            `json:"engine,omitempty"`
	FetchedAt    time.Time         `json:"fetched_at"`
	ResponseTime int64             `json:"response_time_ms"`
}

// FetchMode selects the capture engine.
type FetchMode string

const (
	ModeAuto    FetchMode = "auto"
	ModeStatic  FetchMode = "static"
	ModeBrowser FetchMode = "browser"
)

// FetchOptions configures one page capture.
type FetchOptions struct {
	URL         string
	Mode        FetchMode
	Headers     map[string]string
	Timeout     time.Duration
	Proxy       string
	WaitSeconds int
}
