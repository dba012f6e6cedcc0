package quote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/region"
	"github.com/tidwall/gjson"
)

// issuableStates are the remote lifecycle states from which an issue call is
// accepted without further transitions.
var issuableStates = map[string]bool{
	"underwritten": true,
	"approved":     true,
}

// Issue converts an underwritten quote into a policy. Quotes created before
// the address fix stored the two-letter state code, which the remote system
// rejects at issue time; those are repaired in place and re-validated before
// issuing. A quote that fell out of an issuable state gets a single
// best-effort pass back through validate, price and underwrite.
func (o *Orchestrator) Issue(ctx context.Context, quoteLocator string) (*models.IssueResult, error) {
	slog.Info("Orchestrator.Issue: starting", "quoteLocator", quoteLocator)

	raw, err := o.gw.Request(ctx, "/quotes/"+quoteLocator, http.MethodGet, nil)
	if err != nil {
		return nil, fmt.Errorf("quote read failed: %w", err)
	}
	q, err := parseQuote(raw)
	if err != nil {
		return nil, err
	}

	if region.IsAbbreviation(q.Data.PolicyAddress.State) {
		raw, err = o.repairAddressState(ctx, quoteLocator, q.Data.PolicyAddress)
		if err != nil {
			return nil, err
		}
		q, err = parseQuote(raw)
		if err != nil {
			return nil, err
		}
	}

	if issues := validationIssues(raw, "issue"); len(issues) > 0 {
		slog.Warn("Orchestrator.Issue: quote carries outstanding validation errors", "quoteLocator", quoteLocator, "issueCount", len(issues))
		return nil, &ValidationFailedError{Issues: issues}
	}

	if !issuableStates[q.State] {
		slog.Warn("Orchestrator.Issue: quote not in issuable state, re-driving", "quoteLocator", quoteLocator, "quoteState", q.State)
		if err := o.redrive(ctx, quoteLocator); err != nil {
			return nil, err
		}
	}

	rawIssued, err := o.gw.Request(ctx, "/quotes/"+quoteLocator+"/issue", http.MethodPost, map[string]any{})
	if err != nil {
		slog.Error("Orchestrator.Issue: issue call failed", "quoteLocator", quoteLocator, "error", err)
		return nil, fmt.Errorf("policy issuance failed: %w", err)
	}

	policyLocator := gjson.GetBytes(rawIssued, "policy.locator").String()
	if policyLocator == "" {
		policyLocator = gjson.GetBytes(rawIssued, "locator").String()
	}
	slog.Info("Orchestrator.Issue: complete", "quoteLocator", quoteLocator, "policyLocator", policyLocator)
	return &models.IssueResult{PolicyLocator: policyLocator}, nil
}

// repairAddressState rewrites the policy address with the full jurisdiction
// name, re-validates the quote and returns the refreshed quote body.
func (o *Orchestrator) repairAddressState(ctx context.Context, quoteLocator string, addr policyAddress) ([]byte, error) {
	fullName := region.FullName(addr.State)
	if fullName == "" {
		return nil, fmt.Errorf("unknown state code %q on quote %s", addr.State, quoteLocator)
	}
	slog.Info("Orchestrator.repairAddressState: expanding state code", "quoteLocator", quoteLocator, "from", addr.State, "to", fullName)

	update := map[string]any{
		"data": map[string]any{
			"policyAddress": map[string]any{
				"line1":      addr.Line1,
				"city":       addr.City,
				"state":      fullName,
				"postalCode": addr.PostalCode,
				"country":    addr.Country,
			},
		},
	}
	if _, err := o.gw.Request(ctx, "/quotes/"+quoteLocator, http.MethodPatch, update); err != nil {
		return nil, fmt.Errorf("address repair failed: %w", err)
	}

	rawValidated, err := o.gw.Request(ctx, "/quotes/"+quoteLocator+"/validate", http.MethodPatch, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("post-repair validation failed: %w", err)
	}
	if issues := validationIssues(rawValidated, "validate"); len(issues) > 0 {
		return nil, &ValidationFailedError{Issues: issues}
	}

	raw, err := o.gw.Request(ctx, "/quotes/"+quoteLocator, http.MethodGet, nil)
	if err != nil {
		return nil, fmt.Errorf("post-repair quote read failed: %w", err)
	}
	return raw, nil
}

// redrive pushes a quote back through the lifecycle once. Each transition
// runs at most one time; a quote that still is not issuable afterwards fails
// at the issue call itself, with the remote error surfaced as-is.
func (o *Orchestrator) redrive(ctx context.Context, quoteLocator string) error {
	for _, step := range []string{"validate", "price", "underwrite"} {
		raw, err := o.gw.Request(ctx, "/quotes/"+quoteLocator+"/"+step, http.MethodPatch, map[string]any{})
		if err != nil {
			slog.Warn("Orchestrator.redrive: transition failed, continuing", "quoteLocator", quoteLocator, "step", step, "error", err)
			continue
		}
		if issues := validationIssues(raw, step); len(issues) > 0 {
			return &ValidationFailedError{Issues: issues}
		}
	}
	return nil
}
