// Package flow implements the jewelry insurance question flow engine.
//
// The flow walks an ordered sequence of question definitions by cursor index,
// evaluating per-question visibility conditions against the latest answer
// snapshot, and hands off to the quote orchestrator when the terminal summary
// message is reached.
package flow

import (
	"fmt"
	"strings"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/validate"
)

// QuestionKind distinguishes rendered-only messages from input questions.
type QuestionKind string

const (
	// KindMessage renders a bot message and advances without waiting for input.
	KindMessage QuestionKind = "bot_message"
	// KindQuestion renders a prompt and waits for the user's answer.
	KindQuestion QuestionKind = "question"
)

// InputKind tells the UI collaborator which widget to render. The engine
// itself only distinguishes questions that need input from those that do not.
type InputKind string

const (
	InputText               InputKind = "text"
	InputNumber             InputKind = "number"
	InputSelect             InputKind = "select"
	InputImageUpload        InputKind = "image_upload"
	InputCoverageComparison InputKind = "coverage_comparison"
)

// Question is a static, immutable definition of one prompt in the sequence.
type Question struct {
	ID           string
	Kind         QuestionKind
	Prompt       string
	PromptFunc   func(models.UserRecord) string // dynamic prompts; takes precedence over Prompt
	Field        string                         // dotted field path the answer commits to
	Input        InputKind
	Options      []string
	Validator    validate.Kind
	Condition    func(models.UserRecord) bool // nil means always visible
	TriggerQuote bool                         // terminal message that starts quote generation
}

// RenderPrompt evaluates the prompt text against the given snapshot.
func (q Question) RenderPrompt(rec models.UserRecord) string {
	if q.PromptFunc != nil {
		return q.PromptFunc(rec)
	}
	return q.Prompt
}

// NeedsInput reports whether the engine should wait for an answer.
func (q Question) NeedsInput() bool {
	return q.Kind == KindQuestion
}

// Visible evaluates the question's condition against the snapshot.
func (q Question) Visible(rec models.UserRecord) bool {
	return q.Condition == nil || q.Condition(rec)
}

var jewelryTypes = []string{
	"Engagement Ring",
	"Wedding Ring",
	"Necklace",
	"Bracelet",
	"Earrings",
	"Watch",
	"Other",
}

// Questions returns the full ordered question sequence. The engine walks it
// by index only; identifiers exist for the UI and for tests.
func Questions() []Question {
	return []Question{
		{
			ID:     "welcome",
			Kind:   KindMessage,
			Prompt: "Welcome! Get a personalized jewelry insurance quote in under a minute. Let's protect what matters most.",
		},
		{
			ID:        "zip_code",
			Kind:      KindQuestion,
			Prompt:    "What's your zip code?",
			Field:     "owner.zipCode",
			Input:     InputText,
			Validator: validate.KindZipCode,
		},
		{
			ID:      "has_multiple_items",
			Kind:    KindQuestion,
			Prompt:  "Do you have multiple jewelry items to insure?",
			Field:   "jewelry.hasMultipleItems",
			Input:   InputSelect,
			Options: []string{"Yes", "No"},
		},
		{
			ID:        "single_item_type",
			Kind:      KindQuestion,
			Prompt:    "What type of jewelry would you like to insure?",
			Field:     "jewelry.items.0.type",
			Input:     InputSelect,
			Options:   jewelryTypes,
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMultipleItems == "No" },
		},
		{
			ID:        "single_item_value",
			Kind:      KindQuestion,
			Prompt:    "What's the estimated or appraised value of this item?",
			Field:     "jewelry.items.0.value",
			Input:     InputNumber,
			Validator: validate.KindJewelryValue,
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMultipleItems == "No" },
		},
		{
			ID:        "multi_item_1_type",
			Kind:      KindQuestion,
			Prompt:    "Great! Let's start with your first item. What type of jewelry is it?",
			Field:     "jewelry.items.0.type",
			Input:     InputSelect,
			Options:   jewelryTypes,
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMultipleItems == "Yes" },
		},
		{
			ID:        "multi_item_1_value",
			Kind:      KindQuestion,
			Prompt:    "What's the estimated or appraised value of this item?",
			Field:     "jewelry.items.0.value",
			Input:     InputNumber,
			Validator: validate.KindJewelryValue,
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMultipleItems == "Yes" },
		},
		{
			ID:        "multi_item_2_type",
			Kind:      KindQuestion,
			Prompt:    "Now for your second item. What type of jewelry is it?",
			Field:     "jewelry.items.1.type",
			Input:     InputSelect,
			Options:   jewelryTypes,
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMultipleItems == "Yes" },
		},
		{
			ID:        "multi_item_2_value",
			Kind:      KindQuestion,
			Prompt:    "What's the value of this second item?",
			Field:     "jewelry.items.1.value",
			Input:     InputNumber,
			Validator: validate.KindJewelryValue,
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMultipleItems == "Yes" },
		},
		{
			ID:        "has_more_items",
			Kind:      KindQuestion,
			Prompt:    "Do you have any additional items to insure?",
			Field:     "jewelry.hasMoreItems",
			Input:     InputSelect,
			Options:   []string{"Yes", "No"},
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMultipleItems == "Yes" },
		},
		{
			ID:        "multi_item_3_type",
			Kind:      KindQuestion,
			Prompt:    "What type is your third item?",
			Field:     "jewelry.items.2.type",
			Input:     InputSelect,
			Options:   jewelryTypes,
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMoreItems == "Yes" },
		},
		{
			ID:        "multi_item_3_value",
			Kind:      KindQuestion,
			Prompt:    "What's the value of this third item?",
			Field:     "jewelry.items.2.value",
			Input:     InputNumber,
			Validator: validate.KindJewelryValue,
			Condition: func(r models.UserRecord) bool { return r.Jewelry.HasMoreItems == "Yes" },
		},
		{
			ID:     "image_upload",
			Kind:   KindQuestion,
			Prompt: "Would you like to add photos of your jewelry?",
			Field:  "jewelry.images",
			Input:  InputImageUpload,
		},
		{
			ID:     "coverage_tier",
			Kind:   KindQuestion,
			Prompt: "Choose your coverage level",
			Field:  "coverage.tier",
			Input:  InputCoverageComparison,
		},
		{
			ID:        "owner_first_name",
			Kind:      KindQuestion,
			Prompt:    "Great! Now I need a few details to create your quote. What's your first name?",
			Field:     "owner.firstName",
			Input:     InputText,
			Validator: validate.KindName,
		},
		{
			ID:        "owner_last_name",
			Kind:      KindQuestion,
			Prompt:    "And your last name?",
			Field:     "owner.lastName",
			Input:     InputText,
			Validator: validate.KindName,
		},
		{
			ID:        "owner_email",
			Kind:      KindQuestion,
			Prompt:    "What's your email address?",
			Field:     "owner.email",
			Input:     InputText,
			Validator: validate.KindEmail,
		},
		{
			ID:        "owner_phone",
			Kind:      KindQuestion,
			Prompt:    "And your phone number?",
			Field:     "owner.phone",
			Input:     InputText,
			Validator: validate.KindPhone,
		},
		{
			ID:           "summary",
			Kind:         KindMessage,
			PromptFunc:   summaryMessage,
			TriggerQuote: true,
		},
	}
}

// summaryMessage renders the dynamic recap shown right before quote
// generation starts.
func summaryMessage(rec models.UserRecord) string {
	var items []string
	n := 0
	for _, item := range rec.Jewelry.Items {
		if item.Type == "" || item.Value == 0 {
			continue
		}
		n++
		items = append(items, fmt.Sprintf("%d. %s - $%.0f", n, item.Type, item.Value))
	}

	tier := rec.Coverage.Tier
	if tier == "" {
		tier = "Premium"
	}
	tier = strings.ToUpper(tier[:1]) + tier[1:]

	var b strings.Builder
	b.WriteString("Perfect! Here's what we'll be insuring:\n\n")
	fmt.Fprintf(&b, "Location: %s, %s\n", rec.Owner.State, rec.Owner.ZipCode)
	b.WriteString("Items:\n")
	b.WriteString(strings.Join(items, "\n"))
	fmt.Fprintf(&b, "\n\nTotal Value: $%.0f\n", rec.TotalValue())
	fmt.Fprintf(&b, "Coverage: %s\n\n", tier)
	b.WriteString("Generating your personalized quote...")
	return b.String()
}
