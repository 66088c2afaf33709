package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxDelta bounds a single quantity step.
const maxDelta = 1000

// New returns a configured validator with the storefront's custom rules.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(jsonFieldName)

	_ = v.RegisterValidation("nonzero_delta", nonzeroDelta)
	v.RegisterStructValidation(addItemStructValidation, AddItemRequest{})

	return v
}

// jsonFieldName reports fields by the name the page sends them under.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// nonzeroDelta accepts any step within ±maxDelta except 0.
func nonzeroDelta(fl validatorv10.FieldLevel) bool {
	d := fl.Field().Int()
	return d != 0 && d >= -maxDelta && d <= maxDelta
}

// addItemStructValidation rejects prices finer than a kopeck.
func addItemStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(AddItemRequest)
	if req.Price == nil {
		return
	}
	p := decimal.NewFromFloat(*req.Price)
	if !p.Equal(p.Round(2)) {
		sl.ReportError(req.Price, "price", "Price", "max_two_decimals", "")
	}
}
