package quote

import (
	"encoding/json"
	"math"
	"time"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/tidwall/gjson"
)

// Normalize flattens a raw quote body and its optional pricing body into the
// canonical result stored with the session. The pricing body takes precedence
// over any pricing embedded in the quote; a missing or unreadable pricing
// shape degrades to zero premiums rather than failing.
func Normalize(rawQuote, rawPricing json.RawMessage, rec models.UserRecord, now time.Time) *models.CanonicalQuoteResult {
	total := extractAnnualPremium(rawQuote, rawPricing)

	monthly := 0
	if total > 0 {
		monthly = int(math.Ceil(total / 12))
	}

	effective := extractEffectiveDate(rawQuote, now)

	items := make([]models.JewelryItem, len(rec.Jewelry.Items))
	copy(items, rec.Jewelry.Items)

	tier := rec.Coverage.Tier
	if tier == "" {
		tier = "standard"
	}

	pricing := rawPricing
	if pricing == nil {
		pricing = gjsonRaw(rawQuote, "pricing")
	}

	return &models.CanonicalQuoteResult{
		QuoteLocator:   gjson.GetBytes(rawQuote, "locator").String(),
		AccountLocator: gjson.GetBytes(rawQuote, "accountLocator").String(),
		MonthlyPremium: monthly,
		AnnualPremium:  math.Round(total),
		CoverageTier:   tier,
		Items:          items,
		TotalValue:     rec.TotalValue(),
		Owner: models.OwnerSnapshot{
			Name:  rec.Owner.FirstName + " " + rec.Owner.LastName,
			Email: rec.Owner.Email,
			Phone: rec.Owner.Phone,
			State: rec.Owner.State,
		},
		EffectiveDate:  effective,
		ExpirationDate: now.AddDate(0, 0, quoteValidityDays),
		Pricing:        pricing,
	}
}

// extractAnnualPremium probes the known pricing shapes in precedence order:
// a per-item breakdown summed by amount, then a flat total on the pricing
// body, then a total embedded in the quote itself.
func extractAnnualPremium(rawQuote, rawPricing json.RawMessage) float64 {
	if rawPricing != nil {
		if items := gjson.GetBytes(rawPricing, "items"); items.IsArray() {
			total := 0.0
			found := false
			for _, item := range items.Array() {
				if amount := item.Get("amount"); amount.Exists() {
					total += amount.Float()
					found = true
				}
			}
			if found {
				return total
			}
		}
		if total := gjson.GetBytes(rawPricing, "totalPremium"); total.Exists() {
			return total.Float()
		}
	}
	if total := gjson.GetBytes(rawQuote, "pricing.totalPremium"); total.Exists() {
		return total.Float()
	}
	return 0
}

// extractEffectiveDate reads the quote start timestamp, which appears either
// as epoch milliseconds or as an RFC 3339 string depending on the remote
// version. Both failures fall back to the quoting time.
func extractEffectiveDate(rawQuote json.RawMessage, now time.Time) time.Time {
	start := gjson.GetBytes(rawQuote, "startTimestamp")
	switch start.Type {
	case gjson.Number:
		return time.UnixMilli(start.Int()).UTC()
	case gjson.String:
		if t, err := time.Parse(time.RFC3339, start.String()); err == nil {
			return t
		}
	}
	return now
}

func gjsonRaw(raw json.RawMessage, path string) json.RawMessage {
	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return nil
	}
	return json.RawMessage(result.Raw)
}
