package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/region"
	"github.com/gemshield/gemshield/internal/socotra"
)

// Orchestrator sequences the remote calls that turn a collected answer set
// into a priced, underwritten quote, and separately issues a quote into a
// policy. Every mutating call is followed by a fresh read before the next
// dependent call: the remote system is eventually consistent with respect to
// its own writes and is always treated as the authority.
type Orchestrator struct {
	gw          socotra.Gateway
	productName string
	now         func() time.Time
}

// NewOrchestrator creates an orchestrator over a transport gateway.
func NewOrchestrator(gw socotra.Gateway, productName string) *Orchestrator {
	slog.Debug("Orchestrator.NewOrchestrator: creating orchestrator", "product", productName)
	return &Orchestrator{gw: gw, productName: productName, now: time.Now}
}

// GenerateQuote runs the full quoting workflow. Steps execute strictly in
// order because each depends on remote state mutated by the previous one;
// only the pricing read is best-effort.
func (o *Orchestrator) GenerateQuote(ctx context.Context, rec models.UserRecord) (*models.CanonicalQuoteResult, error) {
	slog.Info("Orchestrator.GenerateQuote: starting", "email", rec.Owner.Email, "items", len(rec.Jewelry.Items))

	account, err := o.resolveAccount(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("account resolution failed: %w", err)
	}
	slog.Info("Orchestrator.GenerateQuote: account resolved", "accountLocator", account.Locator, "accountState", account.State)

	request := o.buildQuoteRequest(rec, account.Locator)
	rawCreated, err := o.gw.Request(ctx, "/quotes", http.MethodPost, request)
	if err != nil {
		slog.Error("Orchestrator.GenerateQuote: quote creation failed", "error", err)
		return nil, fmt.Errorf("quote creation failed: %w", err)
	}
	created, err := parseQuote(rawCreated)
	if err != nil {
		return nil, err
	}
	slog.Info("Orchestrator.GenerateQuote: quote created", "quoteLocator", created.Locator)

	rawValidated, err := o.gw.Request(ctx, "/quotes/"+created.Locator+"/validate", http.MethodPatch, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("quote validation failed: %w", err)
	}
	if issues := validationIssues(rawValidated, "validate"); len(issues) > 0 {
		slog.Warn("Orchestrator.GenerateQuote: remote validation errors", "quoteLocator", created.Locator, "count", len(issues))
		return nil, &ValidationFailedError{Issues: issues}
	}

	if _, err := o.gw.Request(ctx, "/quotes/"+created.Locator+"/price", http.MethodPatch, map[string]any{}); err != nil {
		return nil, fmt.Errorf("quote pricing failed: %w", err)
	}

	// Pricing display is best-effort: a failed read degrades the result to a
	// zero premium, it does not abort the workflow.
	rawPricing, err := o.gw.Request(ctx, "/quotes/"+created.Locator+"/price", http.MethodGet, nil)
	if err != nil {
		slog.Warn("Orchestrator.GenerateQuote: pricing read failed, continuing without breakdown", "quoteLocator", created.Locator, "error", err)
		rawPricing = nil
	}

	rawUnderwritten, err := o.gw.Request(ctx, "/quotes/"+created.Locator+"/underwrite", http.MethodPatch, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("quote underwriting failed: %w", err)
	}
	if issues := validationIssues(rawUnderwritten, "underwrite"); len(issues) > 0 {
		slog.Warn("Orchestrator.GenerateQuote: underwriting validation errors", "quoteLocator", created.Locator, "count", len(issues))
		return nil, &ValidationFailedError{Issues: issues}
	}

	rawFull, err := o.gw.Request(ctx, "/quotes/"+created.Locator, http.MethodGet, nil)
	if err != nil {
		return nil, fmt.Errorf("quote read failed: %w", err)
	}

	result := Normalize(rawFull, rawPricing, rec, o.now())
	slog.Info("Orchestrator.GenerateQuote: complete", "quoteLocator", result.QuoteLocator, "annualPremium", result.AnnualPremium, "monthlyPremium", result.MonthlyPremium)
	return result, nil
}

// resolveAccount reuses the existing remote account whose email matches the
// user's exactly, or creates, validates and re-reads a new one. The re-read
// is required: the remote validation is asynchronous-consistent, so a bare
// write is not trusted.
func (o *Orchestrator) resolveAccount(ctx context.Context, rec models.UserRecord) (remoteAccount, error) {
	rawList, err := o.gw.Request(ctx, "/accounts/list", http.MethodGet, nil)
	if err != nil {
		// A failed search falls through to creation, matching the remote
		// system's tolerance for duplicate-free account creation.
		slog.Warn("Orchestrator.resolveAccount: account search failed, will create", "error", err)
	} else {
		var accounts []remoteAccount
		if err := json.Unmarshal(rawList, &accounts); err != nil {
			slog.Warn("Orchestrator.resolveAccount: unexpected account list shape, will create", "error", err)
		} else {
			for _, acc := range accounts {
				if acc.Data.EmailAddress == rec.Owner.Email {
					slog.Info("Orchestrator.resolveAccount: reusing existing account", "accountLocator", acc.Locator)
					return acc, nil
				}
			}
			slog.Debug("Orchestrator.resolveAccount: no existing account for email", "candidates", len(accounts))
		}
	}

	rawCreated, err := o.gw.Request(ctx, "/accounts", http.MethodPost, accountCreatePayload(rec))
	if err != nil {
		return remoteAccount{}, fmt.Errorf("account creation failed: %w", err)
	}
	var created remoteAccount
	if err := json.Unmarshal(rawCreated, &created); err != nil {
		return remoteAccount{}, fmt.Errorf("failed to decode created account: %w", err)
	}
	slog.Info("Orchestrator.resolveAccount: account created", "accountLocator", created.Locator)

	if _, err := o.gw.Request(ctx, "/accounts/"+created.Locator+"/validate", http.MethodPatch, map[string]any{}); err != nil {
		return remoteAccount{}, fmt.Errorf("account validation failed: %w", err)
	}

	rawFetched, err := o.gw.Request(ctx, "/accounts/"+created.Locator, http.MethodGet, nil)
	if err != nil {
		return remoteAccount{}, fmt.Errorf("account re-read failed: %w", err)
	}
	var fetched remoteAccount
	if err := json.Unmarshal(rawFetched, &fetched); err != nil {
		return remoteAccount{}, fmt.Errorf("failed to decode validated account: %w", err)
	}
	slog.Debug("Orchestrator.resolveAccount: account validated", "accountLocator", fetched.Locator, "accountState", fetched.State)
	return fetched, nil
}

// buildQuoteRequest maps the collected answers to the remote quote shape.
// The policy address carries the full jurisdiction name: the record stores
// the two-letter code derived from the zip, but the remote system rejects
// abbreviations in that field.
func (o *Orchestrator) buildQuoteRequest(rec models.UserRecord, accountLocator string) map[string]any {
	now := o.now()

	elements := make([]map[string]any, 0, len(rec.Jewelry.Items))
	for _, item := range rec.Jewelry.Items {
		if item.IsEmpty() {
			continue
		}
		description := item.Description
		if description == "" {
			description = item.Type
		}
		deductible := item.Deductible
		if deductible == "" {
			deductible = defaultDeductible
		}
		elements = append(elements, map[string]any{
			"type": exposureType,
			"data": map[string]any{
				"jewelryType": coerceJewelryType(item.Type),
				"deductible":  deductible,
				"appraisal": map[string]any{
					"appraisalValue": item.Value,
					"appraisalDate":  now.Format(appraisalDateLayout),
					"documentType":   appraisalDocType,
				},
				"jewelryDescription": description,
				"alarmSystem":        orDefault(item.AlarmSystem, "None"),
				"hasGradingReport":   orDefault(item.HasGradingReport, "No"),
				"whoWearsJewelry":    orDefault(item.WhoWearsJewelry, "Self"),
				"safeType":           orDefault(item.SafeType, "None"),
			},
		})
	}

	stateName := region.FullName(rec.Owner.State)
	if stateName == "" {
		stateName = rec.Owner.State
	}

	return map[string]any{
		"productName":         o.productName,
		"startTime":           now.UTC().Format(time.RFC3339),
		"delinquencyPlanName": delinquencyPlanName,
		"accountLocator":      accountLocator,
		"elements":            elements,
		"data": map[string]any{
			"policyAddress": map[string]any{
				"line1":      rec.Owner.Street,
				"city":       rec.Owner.City,
				"state":      stateName,
				"postalCode": rec.Owner.ZipCode,
				"country":    "US",
			},
			"salesChannel":                  defaultSalesChannel,
			"criminalConvictions":           "No",
			"previousExperienceLossDamaged": "No",
			"previousDenial":                "No",
		},
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
