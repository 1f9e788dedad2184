// Package validate is the last gate before a product leaves the pipeline.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult collects every violation found in a product.
type ValidationResult struct {
	Issues []ValidationIssue `json:"issues"`
}

// IsValid reports whether no issues were found.
func (r ValidationResult) IsValid() bool {
	return len(r.Issues) == 0
}

// String renders issues as "path: message" joined by semicolons.
func (r ValidationResult) String() string {
	parts := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		parts[i] = is.Path + ": " + is.Message
	}
	return strings.Join(parts, "; ")
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		v.RegisterStructValidation(priceTierLevel, models.PriceTier{})
		instance = v
	})
	return instance
}

// priceTierLevel rejects tiers whose upper bound is below their lower bound.
func priceTierLevel(sl validator.StructLevel) {
	t := sl.Current().Interface().(models.PriceTier)
	if t.MaxQty != nil && *t.MaxQty < t.MinQty {
		sl.ReportError(t.MaxQty, "maxQty", "MaxQty", "gtefield", "minQty")
	}
}

// Check validates p and returns every issue found.
func Check(p *models.Product1688) ValidationResult {
	var res ValidationResult
	if p == nil {
		addIssue(&res, "", "required", "product is missing")
		return res
	}

	err := get().Struct(p)
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		addIssue(&res, "", "invalid", err.Error())
		return res
	}
	for _, fe := range verrs {
		addIssue(&res, fieldPath(fe), fe.Tag(), describe(fe))
	}
	return res
}

// Product returns a SCHEMA_VIOLATION error when p fails validation. There is
// no partial acceptance.
func Product(p *models.Product1688) error {
	res := Check(p)
	if res.IsValid() {
		return nil
	}
	return engine.NewEngineError(engine.ErrCodeSchemaViolation, "Invalid product data: "+res.String(), nil).
		WithDetail("issues", res.Issues)
}

func addIssue(res *ValidationResult, path, code, msg string) {
	res.Issues = append(res.Issues, ValidationIssue{Path: path, Code: code, Message: msg})
}

// fieldPath drops the root type name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gtefield":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "eq":
		return fmt.Sprintf("must equal %q", fe.Param())
	case "http_url":
		return "must be an absolute http(s) URL"
	case "datetime":
		return "must be an ISO-8601 timestamp"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
