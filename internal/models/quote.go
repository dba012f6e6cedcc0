// Package models defines quote result structures for Gemshield.
package models

import (
	"encoding/json"
	"time"
)

// OwnerSnapshot is the policyholder view frozen into a quote result.
type OwnerSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	State string `json:"state"`
}

// CanonicalQuoteResult is the single normalized output of a successful
// orchestration run. It is immutable once created and discarded on reset.
type CanonicalQuoteResult struct {
	QuoteLocator   string          `json:"quote_locator"`
	AccountLocator string          `json:"account_locator"`
	MonthlyPremium int             `json:"monthly_premium"`
	AnnualPremium  float64         `json:"annual_premium"`
	CoverageTier   string          `json:"coverage_tier"`
	Items          []JewelryItem   `json:"items"`
	TotalValue     float64         `json:"total_value"`
	Owner          OwnerSnapshot   `json:"owner"`
	EffectiveDate  time.Time       `json:"effective_date"`
	ExpirationDate time.Time       `json:"expiration_date"`
	Pricing        json.RawMessage `json:"pricing,omitempty"` // raw remote pricing data kept for auditability
}

// IssueResult is returned when a quote is successfully issued as a policy.
type IssueResult struct {
	PolicyLocator string `json:"policy_locator"`
}

// ValidationIssue is a single business-rule violation reported by the remote
// system. These are expected, displayable outcomes rather than defects.
type ValidationIssue struct {
	Step    string `json:"step"`    // lifecycle step that reported the issue
	Message string `json:"message"` // verbatim remote message
}
