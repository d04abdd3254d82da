package keyword

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Wireless Mouse", "wireless mouse"},
		{"  wireless mouse  ", "wireless mouse"},
		{"WIRELESS MOUSE", "wireless mouse"},
		{"", ""},
		{"  ", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidateASIN(t *testing.T) {
	valid := []string{"B08N5WRWNW", "B07ZPKN6YR", "0123456789", "b08n5wrwnw"}
	for _, id := range valid {
		if !ValidateASIN(id) {
			t.Errorf("ValidateASIN(%q) = false, want true", id)
		}
	}
	invalid := []string{"", "B08N5", "B08N5WRWNW1", "B08N5WRWN-", "B08N5 RWNW"}
	for _, id := range invalid {
		if ValidateASIN(id) {
			t.Errorf("ValidateASIN(%q) = true, want false", id)
		}
	}
}

func TestOptionsNormalized(t *testing.T) {
	var o Options
	n := o.Normalized()
	def := DefaultOptions()
	if n.MinSearchVolume != def.MinSearchVolume {
		t.Errorf("MinSearchVolume = %d, want default %d", n.MinSearchVolume, def.MinSearchVolume)
	}
	if n.MaxGapPosition != def.MaxGapPosition {
		t.Errorf("MaxGapPosition = %d, want default %d", n.MaxGapPosition, def.MaxGapPosition)
	}

	// Explicit values survive.
	o = Options{MinSearchVolume: 250, MaxCompetitorStrength: 8}
	n = o.Normalized()
	if n.MinSearchVolume != 250 {
		t.Errorf("MinSearchVolume = %d, want 250", n.MinSearchVolume)
	}
	if n.MaxCompetitorStrength != 8 {
		t.Errorf("MaxCompetitorStrength = %v, want 8", n.MaxCompetitorStrength)
	}
}

func TestProductResultSucceeded(t *testing.T) {
	ok := ProductResult{ProductID: "B08N5WRWNW", Status: StatusSuccess, Occurrences: []Occurrence{{Keyword: "mouse"}}}
	if !ok.Succeeded() {
		t.Error("success with data should succeed")
	}
	empty := ProductResult{ProductID: "B08N5WRWNW", Status: StatusSuccess}
	if empty.Succeeded() {
		t.Error("success without data should not count as usable")
	}
	failed := ProductResult{ProductID: "B08N5WRWNW", Status: StatusFailed, ErrorMessage: "provider timeout"}
	if failed.Succeeded() {
		t.Error("failed product should not succeed")
	}
}

func TestComponentTTL(t *testing.T) {
	if ComponentTTL(ComponentGaps) != TTLGaps {
		t.Error("gaps TTL mismatch")
	}
	if ComponentTTL(ComponentSessionList) != TTLSessionList {
		t.Error("session list TTL mismatch")
	}
	if ComponentTTL(ComponentAggregated) != TTLAggregated {
		t.Error("aggregated TTL mismatch")
	}
}
