// Package userdata applies answers to the user record by dotted field path.
//
// The resolver is the only writer of UserRecord. It never mutates its input:
// every call returns a fresh snapshot, so the UI and any in-flight
// orchestration never observe a half-updated record.
package userdata

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/region"
)

// Apply writes value at the dotted path and returns the updated snapshot.
// Two supported shapes: "group.field" for scalar leaves and
// "jewelry.items.<index>.<field>" for positional item writes. Writing index k
// backfills indices 0..k-1 with empty placeholder items. Any other shape is a
// no-op; the dropped write is logged so it is visible in diagnostics.
func Apply(rec models.UserRecord, path string, value any) models.UserRecord {
	out := rec.Clone()
	segs := strings.Split(path, ".")

	switch {
	case len(segs) == 2:
		if !applyScalar(&out, segs[0], segs[1], value) {
			slog.Warn("userdata.Apply: unknown field path, dropping write", "path", path)
			return rec
		}
	case len(segs) == 4 && segs[0] == "jewelry" && segs[1] == models.ItemsCollection:
		idx, err := strconv.Atoi(segs[2])
		if err != nil || idx < 0 {
			slog.Warn("userdata.Apply: invalid item index, dropping write", "path", path)
			return rec
		}
		if !applyItemField(&out, idx, segs[3], value) {
			slog.Warn("userdata.Apply: unknown item field, dropping write", "path", path)
			return rec
		}
	default:
		slog.Warn("userdata.Apply: malformed field path, dropping write", "path", path)
		return rec
	}

	slog.Debug("userdata.Apply: field set", "path", path)
	return out
}

// applyScalar sets a two-segment leaf. Returns false when the path does not
// address a known field.
func applyScalar(rec *models.UserRecord, group, field string, value any) bool {
	switch group {
	case "owner":
		return applyOwnerField(rec, field, value)
	case "jewelry":
		switch field {
		case "hasMultipleItems":
			rec.Jewelry.HasMultipleItems = asString(value)
		case "hasMoreItems":
			rec.Jewelry.HasMoreItems = asString(value)
		case "images":
			rec.Jewelry.Images = asString(value)
		default:
			return false
		}
		return true
	case "coverage":
		if field != "tier" {
			return false
		}
		rec.Coverage.Tier = asString(value)
		return true
	}
	return false
}

func applyOwnerField(rec *models.UserRecord, field string, value any) bool {
	switch field {
	case "firstName":
		rec.Owner.FirstName = asString(value)
	case "lastName":
		rec.Owner.LastName = asString(value)
	case "email":
		rec.Owner.Email = asString(value)
	case "phone":
		rec.Owner.Phone = asString(value)
	case "street":
		rec.Owner.Street = asString(value)
	case "city":
		rec.Owner.City = asString(value)
	case "state":
		rec.Owner.State = asString(value)
	case "zipCode":
		zip := asString(value)
		rec.Owner.ZipCode = zip
		// Region derivation is a separate lookup composed here, not fused
		// into the write. A miss leaves the region unset, not an error.
		if code := region.FromZip(zip); code != "" {
			rec.Owner.State = code
			slog.Debug("userdata.Apply: derived region from zip", "zip", zip, "region", code)
		}
	default:
		return false
	}
	return true
}

// applyItemField grows the item list until it covers idx, then sets one field
// on the addressed item.
func applyItemField(rec *models.UserRecord, idx int, field string, value any) bool {
	items := rec.Jewelry.Items
	for len(items) <= idx {
		items = append(items, models.JewelryItem{})
	}
	switch field {
	case "type":
		items[idx].Type = asString(value)
	case "value":
		items[idx].Value = asFloat(value)
	case "description":
		items[idx].Description = asString(value)
	case "deductible":
		items[idx].Deductible = asString(value)
	case "alarmSystem":
		items[idx].AlarmSystem = asString(value)
	case "hasGradingReport":
		items[idx].HasGradingReport = asString(value)
	case "whoWearsJewelry":
		items[idx].WhoWearsJewelry = asString(value)
	case "safeType":
		items[idx].SafeType = asString(value)
	default:
		return false
	}
	rec.Jewelry.Items = items
	return true
}

// asString renders an answer value as a string. Answers arrive from JSON, so
// numbers show up as float64.
func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return ""
	}
}

// asFloat parses an answer value as a number; unparseable input yields 0.
func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(v, "$")), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
