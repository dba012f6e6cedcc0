// Package models defines the core data structures for Gemshield.
//
// It includes the accumulating user answer record, flow session state, the
// canonical quote result, and the shared API response envelope.
package models

import "errors"

// ItemsCollection is the segment name used for array-indexed field paths
// (e.g. "jewelry.items.0.type").
const ItemsCollection = "items"

// Error variables for better error handling and testability
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrFlowComplete    = errors.New("flow already complete")
	ErrNoQuoteResult   = errors.New("no quote result available")
	ErrQuoteInFlight   = errors.New("quote generation in progress")
	ErrNotAwaiting     = errors.New("no question awaiting an answer")
)

// OwnerInfo holds the policyholder details collected by the flow.
type OwnerInfo struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"` // two-letter region code derived from the zip code
	ZipCode   string `json:"zipCode,omitempty"`
}

// JewelryItem is a single insurable item as entered by the user.
type JewelryItem struct {
	Type             string  `json:"type,omitempty"`
	Value            float64 `json:"value,omitempty"`
	Description      string  `json:"description,omitempty"`
	Deductible       string  `json:"deductible,omitempty"`
	AlarmSystem      string  `json:"alarmSystem,omitempty"`
	HasGradingReport string  `json:"hasGradingReport,omitempty"`
	WhoWearsJewelry  string  `json:"whoWearsJewelry,omitempty"`
	SafeType         string  `json:"safeType,omitempty"`
}

// IsEmpty reports whether the item is an untouched placeholder.
func (i JewelryItem) IsEmpty() bool {
	return i == JewelryItem{}
}

// JewelryInfo groups the jewelry answers, including the positional item list.
type JewelryInfo struct {
	HasMultipleItems string        `json:"hasMultipleItems,omitempty"`
	HasMoreItems     string        `json:"hasMoreItems,omitempty"`
	Images           string        `json:"images,omitempty"`
	Items            []JewelryItem `json:"items,omitempty"`
}

// CoverageInfo holds the selected coverage tier.
type CoverageInfo struct {
	Tier string `json:"tier,omitempty"`
}

// UserRecord is the accumulating answer set for one flow session. It is only
// ever mutated through the field path resolver, which returns fresh snapshots.
type UserRecord struct {
	Owner    OwnerInfo    `json:"owner"`
	Jewelry  JewelryInfo  `json:"jewelry"`
	Coverage CoverageInfo `json:"coverage"`
}

// Clone returns a deep copy of the record so callers can hand out snapshots
// without sharing the items slice.
func (r UserRecord) Clone() UserRecord {
	out := r
	if r.Jewelry.Items != nil {
		out.Jewelry.Items = make([]JewelryItem, len(r.Jewelry.Items))
		copy(out.Jewelry.Items, r.Jewelry.Items)
	}
	return out
}

// TotalValue sums the user-entered item values. The remote pricing response is
// deliberately not consulted here.
func (r UserRecord) TotalValue() float64 {
	var total float64
	for _, item := range r.Jewelry.Items {
		total += item.Value
	}
	return total
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusRejected indicates an answer was rejected by its validator.
	APIStatusRejected APIStatus = "rejected"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{response: APIResponse{}}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// Rejected creates an API response for a validator rejection, carrying the
// reason so the UI can re-present the question inline.
func Rejected(reason string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusRejected).
		WithMessage(reason).
		Build()
}
