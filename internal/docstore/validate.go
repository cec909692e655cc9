package docstore

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ValidationResult is the outcome of validating an entity. Errors lists
// every violated rule, not just the first.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// emailRe matches a standard local@domain.tld shape. It is intentionally
// permissive; deliverability is not the store's concern.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateUser checks user rules. Pure function, no I/O.
func ValidateUser(u *User) ValidationResult {
	var errs []string
	email := strings.TrimSpace(u.Email)
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRe.MatchString(email) {
		errs = append(errs, "email must be a valid email address")
	}
	if strings.TrimSpace(u.Name) == "" {
		errs = append(errs, "name is required")
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateItem checks item rules. Pure function, no I/O.
func ValidateItem(it *Item) ValidationResult {
	var errs []string
	if strings.TrimSpace(it.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(it.Description) == "" {
		errs = append(errs, "description is required")
	}
	switch {
	case math.IsNaN(it.Price) || math.IsInf(it.Price, 0):
		errs = append(errs, "price must be a finite number")
	case it.Price < 0:
		errs = append(errs, "price must be non-negative")
	case priceDecimals(it.Price) > 2:
		errs = append(errs, "price must have at most 2 decimal places")
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// priceDecimals counts fractional digits in the shortest decimal
// representation of p, so 1.99 is 2 and 1.999 is 3.
func priceDecimals(p float64) int {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// roundPrice normalizes a price to 2 decimal places for storage.
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
