package validate

import "testing"

func TestCheckJewelryValueBounds(t *testing.T) {
	cases := []struct {
		raw      any
		accepted bool
		reason   string
	}{
		{499.0, false, "Minimum insurable value is $500"},
		{500.0, true, ""},
		{15000.0, true, ""},
		{1000000.0, true, ""},
		{1000001.0, false, "For items over $1M, please contact us directly"},
		{"500", true, ""},
		{"not a number", false, "Please enter a valid value"},
	}
	for _, c := range cases {
		res := Check(KindJewelryValue, c.raw)
		if res.Accepted != c.accepted {
			t.Errorf("Check(jewelryValue, %v): accepted = %v, want %v", c.raw, res.Accepted, c.accepted)
		}
		if c.reason != "" && res.Reason != c.reason {
			t.Errorf("Check(jewelryValue, %v): reason = %q, want %q", c.raw, res.Reason, c.reason)
		}
	}
}

func TestCheckName(t *testing.T) {
	if res := Check(KindName, "Jo"); !res.Accepted {
		t.Errorf("two-character name should be accepted: %+v", res)
	}
	if res := Check(KindName, " J "); res.Accepted {
		t.Error("single trimmed character should be rejected")
	}
	if res := Check(KindName, ""); res.Accepted {
		t.Error("empty name should be rejected")
	}
}

func TestCheckEmail(t *testing.T) {
	if res := Check(KindEmail, "jane@example.com"); !res.Accepted {
		t.Errorf("valid email rejected: %+v", res)
	}
	for _, bad := range []string{"", "jane", "jane@", "jane@example", "jane doe@example.com"} {
		if res := Check(KindEmail, bad); res.Accepted {
			t.Errorf("expected rejection for %q", bad)
		}
	}
}

func TestCheckPhone(t *testing.T) {
	if res := Check(KindPhone, "555-123-4567"); !res.Accepted {
		t.Errorf("valid phone rejected: %+v", res)
	}
	if res := Check(KindPhone, "(555) 123 4567"); !res.Accepted {
		t.Errorf("valid phone with punctuation rejected: %+v", res)
	}
	if res := Check(KindPhone, "555-1234"); res.Accepted {
		t.Error("phone with fewer than 10 digits should be rejected")
	}
	if res := Check(KindPhone, "call me maybe"); res.Accepted {
		t.Error("non-numeric phone should be rejected")
	}
}

func TestCheckZip(t *testing.T) {
	if res := Check(KindZipCode, "10001"); !res.Accepted {
		t.Errorf("valid zip rejected: %+v", res)
	}
	if res := Check(KindZipCode, "10001-1234"); !res.Accepted {
		t.Errorf("zip+4 rejected: %+v", res)
	}
	for _, bad := range []string{"1000", "100011", "abcde", ""} {
		if res := Check(KindZipCode, bad); res.Accepted {
			t.Errorf("expected rejection for %q", bad)
		}
	}
}

func TestCheckCaratWeight(t *testing.T) {
	if res := Check(KindCaratWeight, 2.5); !res.Accepted {
		t.Errorf("valid carat weight rejected: %+v", res)
	}
	if res := Check(KindCaratWeight, 0.0); res.Accepted {
		t.Error("zero carat weight should be rejected")
	}
	if res := Check(KindCaratWeight, 51.0); res.Accepted {
		t.Error("unrealistic carat weight should be rejected")
	}
}

func TestCheckPurchaseDate(t *testing.T) {
	if res := Check(KindPurchaseDate, "01/15/2020"); !res.Accepted {
		t.Errorf("valid date rejected: %+v", res)
	}
	if res := Check(KindPurchaseDate, "12/31/2199"); res.Accepted {
		t.Error("future date should be rejected")
	}
	if res := Check(KindPurchaseDate, "01/01/1850"); res.Accepted {
		t.Error("pre-1900 date should be rejected")
	}
	if res := Check(KindPurchaseDate, "2020-01-15"); res.Accepted {
		t.Error("wrong format should be rejected")
	}
}

func TestCheckUnknownKindAccepts(t *testing.T) {
	if res := Check(KindNone, "anything"); !res.Accepted {
		t.Errorf("questions without a validator must accept: %+v", res)
	}
	if res := Check(KindNone, nil); !res.Accepted {
		t.Errorf("nil answers without a validator must accept: %+v", res)
	}
}
