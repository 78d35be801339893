package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-grantforms/pkg/render"
)

func TestResetPostFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.ResetAction(),
		render.FormIDField("amw-check"),
		render.Hidden("attempt", 2),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{
		"existing": "keep",
		"_action":  "reset",
		"_form":    "amw-check",
		"attempt":  "2",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	wantSorted := []render.HiddenField{
		{Name: "_action", Value: "reset"},
		{Name: "_form", Value: "amw-check"},
		{Name: "attempt", Value: "2"},
		{Name: "existing", Value: "keep"},
	}
	if diff := cmp.Diff(wantSorted, render.SortedHiddenFields(merged)); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}

	if render.MergeHiddenFields(nil) != nil || render.SortedHiddenFields(nil) != nil {
		t.Fatalf("expected nil when there is nothing to post")
	}
}
