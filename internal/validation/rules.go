// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/base64"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
)

var (
	// shopDomainRegex matches platform shop domains (e.g., "example.myshopify.com")
	// and plain custom domains.
	shopDomainRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]*(\.[a-z0-9\-]+)+$`)

	// emailRegex is deliberately loose; the platform already validated the
	// address, this only rejects obvious garbage.
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// ShopDomain validates that a string looks like a shop domain.
var ShopDomain = validation.NewStringRuleWithError(
	func(s string) bool {
		return shopDomainRegex.MatchString(strings.ToLower(s))
	},
	validation.NewError("validation_shop_domain", "must be a valid shop domain"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// Email validates that a string looks like an email address.
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email", "must be a valid email address"),
)

// Base64 validates that a string is valid standard base64.
var Base64 = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := base64.StdEncoding.DecodeString(s)
		return err == nil
	},
	validation.NewError("validation_base64", "must be valid base64"),
)
