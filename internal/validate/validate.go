// Package validate classifies raw answers as accepted or rejected.
//
// Validators are pure predicates: they never panic and never perform external
// verification. A rejection carries a user-displayable reason; absence of a
// reason implies acceptance.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which validator a question references.
type Kind string

const (
	// KindNone accepts any answer.
	KindNone Kind = ""
	// KindName requires a non-empty trimmed value of length >= 2.
	KindName Kind = "name"
	// KindEmail requires a plausible email address format.
	KindEmail Kind = "email"
	// KindPhone requires at least ten digits in an allowed character set.
	KindPhone Kind = "phone"
	// KindZipCode requires a five-digit US zip, optionally with a +4 suffix.
	KindZipCode Kind = "zipCode"
	// KindJewelryValue requires a monetary value in [500, 1000000].
	KindJewelryValue Kind = "jewelryValue"
	// KindCaratWeight requires a carat weight in (0, 50].
	KindCaratWeight Kind = "caratWeight"
	// KindPurchaseDate requires MM/DD/YYYY, not in the future, not before 1900.
	KindPurchaseDate Kind = "purchaseDate"
)

// Monetary bounds for insurable items.
const (
	MinInsurableValue = 500
	MaxInsurableValue = 1_000_000
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]+$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	datePattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	digitPattern = regexp.MustCompile(`\d`)
)

// Result classifies a single answer.
type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func accept() Result {
	return Result{Accepted: true}
}

func reject(reason string) Result {
	return Result{Accepted: false, Reason: reason}
}

// Check runs the validator of the given kind against a raw answer. Unknown
// kinds accept, matching the flow's behavior for questions without a
// validator reference.
func Check(kind Kind, raw any) Result {
	switch kind {
	case KindName:
		return checkName(asString(raw))
	case KindEmail:
		return checkEmail(asString(raw))
	case KindPhone:
		return checkPhone(asString(raw))
	case KindZipCode:
		return checkZip(asString(raw))
	case KindJewelryValue:
		return checkJewelryValue(raw)
	case KindCaratWeight:
		return checkCaratWeight(raw)
	case KindPurchaseDate:
		return checkPurchaseDate(asString(raw))
	default:
		return accept()
	}
}

func checkName(value string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return reject("Please enter your name")
	}
	if len(trimmed) < 2 {
		return reject("Name must be at least 2 characters")
	}
	return accept()
}

func checkEmail(value string) Result {
	if value == "" || !emailPattern.MatchString(value) {
		return reject("Please enter a valid email address")
	}
	return accept()
}

func checkPhone(value string) Result {
	digits := len(digitPattern.FindAllString(value, -1))
	if value == "" || !phonePattern.MatchString(value) || digits < 10 {
		return reject("Please enter a valid phone number")
	}
	return accept()
}

func checkZip(value string) Result {
	if !zipPattern.MatchString(value) {
		return reject("Please enter a valid 5-digit zip code")
	}
	return accept()
}

func checkJewelryValue(raw any) Result {
	value, ok := asNumber(raw)
	if !ok {
		return reject("Please enter a valid value")
	}
	if value < MinInsurableValue {
		return reject("Minimum insurable value is $500")
	}
	if value > MaxInsurableValue {
		return reject("For items over $1M, please contact us directly")
	}
	return accept()
}

func checkCaratWeight(raw any) Result {
	value, ok := asNumber(raw)
	if !ok {
		return reject("Please enter a valid carat weight")
	}
	if value <= 0 {
		return reject("Carat weight must be greater than 0")
	}
	if value > 50 {
		return reject("Please enter a realistic carat weight")
	}
	return accept()
}

func checkPurchaseDate(value string) Result {
	if !datePattern.MatchString(value) {
		return reject("Please enter date in MM/DD/YYYY format")
	}
	parsed, err := time.Parse("01/02/2006", value)
	if err != nil {
		return reject("Please enter a valid purchase date")
	}
	if parsed.After(time.Now()) {
		return reject("Purchase date cannot be in the future")
	}
	if parsed.Before(time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		return reject("Please enter a valid purchase date")
	}
	return accept()
}

func asString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func asNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
