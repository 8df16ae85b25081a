package extractor

import "testing"

func TestFilterByConfidence(t *testing.T) {
	items := []Concept{
		{Name: "a", Confidence: 0.9},
		{Name: "b", Confidence: 0.69},
		{Name: "c", Confidence: 0.7},
	}

	got := FilterByConfidence(items, 0.7)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("expected order preserved, got %+v", got)
	}
}

func TestFilterByConfidence_NeverNil(t *testing.T) {
	if got := FilterByConfidence[Concept](nil, 0.5); got == nil {
		t.Error("expected empty non-nil slice")
	}
	if got := FilterByConfidence([]Concept{{Confidence: 0.1}}, 0.5); got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}
