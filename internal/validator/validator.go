// Package validator registers custom validation tags on Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn adds the custom tags to v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("iso4217", validateISO4217)
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("direction", validateDirection)
	_ = v.RegisterValidation("tx_source", validateSource)
}

// IsCurrencyCode reports whether code is an upper-case ISO 4217 code.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 || code != strings.ToUpper(code) {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}

func validateISO4217(fl validator.FieldLevel) bool {
	return IsCurrencyCode(fl.Field().String())
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateDirection(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "incoming", "outgoing":
		return true
	}
	return false
}

func validateSource(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "gmail", "manual":
		return true
	}
	return false
}
