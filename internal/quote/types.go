// Package quote orchestrates the multi-step remote quoting workflow: account
// resolution, quote construction, the validate/price/underwrite lifecycle,
// response normalization, and issuing a quote as a bound policy.
package quote

import (
	"encoding/json"
	"fmt"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/tidwall/gjson"
)

// Remote entity defaults required by the policy administration product.
const (
	accountType         = "ConsumerAccount"
	delinquencyPlanName = "Standard"
	exposureType        = "PhysicalJewelry"
	defaultDeductible   = "$0"
	defaultSalesChannel = "Direct"
	fallbackJewelryType = "Other"
	quoteValidityDays   = 30
	appraisalDateLayout = "2006-01-02"
	appraisalDocType    = "Appraisal"
)

// ValidationFailedError carries business-rule violations reported by the
// remote system. These are expected, user-actionable outcomes: callers
// display the issues verbatim instead of treating them as defects.
type ValidationFailedError struct {
	Issues []models.ValidationIssue
}

func (e *ValidationFailedError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("remote validation failed: %s", e.Issues[0].Message)
	}
	return fmt.Sprintf("remote validation failed with %d issues", len(e.Issues))
}

// remoteAccount is the subset of the account payload this flow reads.
type remoteAccount struct {
	Locator string `json:"locator"`
	State   string `json:"state"`
	Data    struct {
		FirstName    string `json:"firstName"`
		LastName     string `json:"lastName"`
		EmailAddress string `json:"emailAddress"`
	} `json:"data"`
}

// policyAddress is the nested address carried on a quote.
type policyAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// remoteQuote is the subset of the quote payload this flow reads. The raw
// body is kept alongside because pricing and validation shapes vary.
type remoteQuote struct {
	Locator        string `json:"locator"`
	State          string `json:"state"`
	AccountLocator string `json:"accountLocator"`
	Data           struct {
		PolicyAddress policyAddress `json:"policyAddress"`
	} `json:"data"`
}

func parseQuote(raw json.RawMessage) (remoteQuote, error) {
	var q remoteQuote
	if err := json.Unmarshal(raw, &q); err != nil {
		return q, fmt.Errorf("failed to decode quote payload: %w", err)
	}
	return q, nil
}

// validationIssues extracts validationErrors from a raw remote response. The
// remote system is not consistent about the element shape (sometimes plain
// strings, sometimes objects with a message field), so each element is probed
// rather than decoded into a fixed struct.
func validationIssues(raw json.RawMessage, step string) []models.ValidationIssue {
	var issues []models.ValidationIssue
	for _, entry := range gjson.GetBytes(raw, "validationErrors").Array() {
		msg := entry.String()
		if entry.IsObject() {
			if m := entry.Get("message"); m.Exists() {
				msg = m.String()
			} else {
				msg = entry.Raw
			}
		}
		if msg == "" {
			continue
		}
		issues = append(issues, models.ValidationIssue{Step: step, Message: msg})
	}
	return issues
}

// accountCreatePayload builds the account body, including placeholder values
// for fields the remote system requires but this flow does not collect yet.
func accountCreatePayload(rec models.UserRecord) map[string]any {
	return map[string]any{
		"type":                accountType,
		"delinquencyPlanName": delinquencyPlanName,
		"data": map[string]any{
			"firstName":        rec.Owner.FirstName,
			"lastName":         rec.Owner.LastName,
			"emailAddress":     rec.Owner.Email,
			"phoneNumber":      rec.Owner.Phone,
			"stripeCustomerId": "placeholder", // populated when payment is collected
			"stripeKey":        "placeholder",
			"autopay":          "No",
		},
	}
}

// knownJewelryTypes mirrors the select options offered by the flow; anything
// else is coerced to the generic fallback category instead of being rejected.
var knownJewelryTypes = map[string]bool{
	"Engagement Ring": true,
	"Wedding Ring":    true,
	"Necklace":        true,
	"Bracelet":        true,
	"Earrings":        true,
	"Watch":           true,
	"Other":           true,
}

func coerceJewelryType(t string) string {
	if knownJewelryTypes[t] {
		return t
	}
	return fallbackJewelryType
}
