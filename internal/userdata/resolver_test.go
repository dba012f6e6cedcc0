package userdata

import (
	"testing"

	"github.com/gemshield/gemshield/internal/models"
)

func TestApplyScalarField(t *testing.T) {
	rec := models.UserRecord{}
	rec = Apply(rec, "owner.email", "jane@example.com")
	if rec.Owner.Email != "jane@example.com" {
		t.Errorf("expected email to be set, got %q", rec.Owner.Email)
	}
}

func TestApplyPreservesSiblings(t *testing.T) {
	rec := models.UserRecord{}
	rec = Apply(rec, "owner.phone", "555-123-4567")
	rec = Apply(rec, "owner.email", "jane@example.com")
	if rec.Owner.Phone != "555-123-4567" {
		t.Errorf("sibling field altered: phone = %q", rec.Owner.Phone)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	rec := models.UserRecord{}
	once := Apply(rec, "owner.email", "jane@example.com")
	twice := Apply(once, "owner.email", "jane@example.com")
	if once.Owner != twice.Owner {
		t.Errorf("repeated identical apply changed the record: %+v vs %+v", once.Owner, twice.Owner)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	orig := models.UserRecord{}
	orig.Jewelry.Items = []models.JewelryItem{{Type: "Watch", Value: 1000}}
	updated := Apply(orig, "jewelry.items.0.value", 2000.0)
	if orig.Jewelry.Items[0].Value != 1000 {
		t.Errorf("input record mutated: value = %v", orig.Jewelry.Items[0].Value)
	}
	if updated.Jewelry.Items[0].Value != 2000 {
		t.Errorf("updated record missing write: value = %v", updated.Jewelry.Items[0].Value)
	}
}

func TestApplySparseItemBackfill(t *testing.T) {
	rec := models.UserRecord{}
	rec = Apply(rec, "jewelry.items.2.type", "Bracelet")
	if len(rec.Jewelry.Items) != 3 {
		t.Fatalf("expected item list length 3, got %d", len(rec.Jewelry.Items))
	}
	for i := 0; i < 2; i++ {
		if !rec.Jewelry.Items[i].IsEmpty() {
			t.Errorf("expected placeholder at index %d, got %+v", i, rec.Jewelry.Items[i])
		}
	}
	if rec.Jewelry.Items[2].Type != "Bracelet" {
		t.Errorf("expected Bracelet at index 2, got %q", rec.Jewelry.Items[2].Type)
	}
}

func TestApplyZipDerivesRegion(t *testing.T) {
	rec := models.UserRecord{}
	rec = Apply(rec, "owner.zipCode", "10001")
	if rec.Owner.ZipCode != "10001" {
		t.Errorf("zip not set: %q", rec.Owner.ZipCode)
	}
	if rec.Owner.State != "NY" {
		t.Errorf("expected derived region NY, got %q", rec.Owner.State)
	}
}

func TestApplyZipWithoutRegionMatch(t *testing.T) {
	rec := models.UserRecord{}
	rec = Apply(rec, "owner.zipCode", "00001")
	if rec.Owner.ZipCode != "00001" {
		t.Errorf("zip not set: %q", rec.Owner.ZipCode)
	}
	if rec.Owner.State != "" {
		t.Errorf("expected region to stay unset, got %q", rec.Owner.State)
	}
}

func TestApplyMalformedPathIsNoOp(t *testing.T) {
	rec := models.UserRecord{}
	rec = Apply(rec, "owner.email", "jane@example.com")
	for _, path := range []string{"owner", "owner.email.extra", "jewelry.items.x.type", "jewelry.items.-1.type", "nope.field", "owner.unknown"} {
		after := Apply(rec, path, "whatever")
		if after.Owner != rec.Owner || len(after.Jewelry.Items) != len(rec.Jewelry.Items) {
			t.Errorf("path %q should be a no-op", path)
		}
	}
}

func TestApplyNumericCoercion(t *testing.T) {
	rec := models.UserRecord{}
	rec = Apply(rec, "jewelry.items.0.value", "$15,000")
	if rec.Jewelry.Items[0].Value != 0 {
		// commas are not stripped; unparseable input yields zero
		t.Errorf("expected 0 for unparseable value, got %v", rec.Jewelry.Items[0].Value)
	}
	rec = Apply(rec, "jewelry.items.0.value", "15000")
	if rec.Jewelry.Items[0].Value != 15000 {
		t.Errorf("expected 15000, got %v", rec.Jewelry.Items[0].Value)
	}
}
