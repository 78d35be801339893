package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-grantforms/pkg/render"
)

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSummariseFieldErrors(t *testing.T) {
	errs := map[string]string{
		"postcode":    "Please enter a valid UK postcode",
		"companyName": "Company name is required",
		"extra":       "Something else",
		"contact":     "Please enter a valid UK postcode",
	}
	got := render.SummariseFieldErrors(errs, []string{"companyName", "postcode", "contact"})
	want := []string{"Company name is required", "Please enter a valid UK postcode", "Something else"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if render.SummariseFieldErrors(nil, nil) != nil {
		t.Fatalf("expected nil for no errors")
	}
}
