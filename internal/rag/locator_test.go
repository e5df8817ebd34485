package rag

import (
	"strings"
	"testing"
)

func TestLocateClauses(t *testing.T) {
	context := "Waiting Period: A waiting period of 12 months applies to pre-existing conditions.\n\n---\n\nExclusions - Cosmetic procedures are not covered under this policy. Dental implants are also excluded."

	t.Run("label followed by colon", func(t *testing.T) {
		details := LocateClauses([]string{"Waiting Period"}, context)
		if len(details) != 1 {
			t.Fatalf("expected 1 detail, got %d", len(details))
		}
		want := "A waiting period of 12 months applies to pre-existing conditions."
		if details[0].Snippet != want {
			t.Errorf("snippet = %q, want %q", details[0].Snippet, want)
		}
	})

	t.Run("label followed by dash", func(t *testing.T) {
		details := LocateClauses([]string{"Exclusions"}, context)
		want := "Cosmetic procedures are not covered under this policy."
		if details[0].Snippet != want {
			t.Errorf("snippet = %q, want %q", details[0].Snippet, want)
		}
	})

	t.Run("case-insensitive match", func(t *testing.T) {
		details := LocateClauses([]string{"waiting period"}, context)
		if details[0].Snippet == notFoundSnippet {
			t.Error("expected case-insensitive match, got fallback")
		}
	})

	t.Run("label not found gets fallback snippet", func(t *testing.T) {
		details := LocateClauses([]string{"Maternity Benefits"}, context)
		if details[0].Snippet != notFoundSnippet {
			t.Errorf("snippet = %q, want fallback", details[0].Snippet)
		}
		if details[0].Label != "Maternity Benefits" {
			t.Errorf("label = %q", details[0].Label)
		}
	})

	t.Run("duplicates and empties skipped", func(t *testing.T) {
		details := LocateClauses([]string{"Exclusions", "", "Exclusions", "  "}, context)
		if len(details) != 1 {
			t.Errorf("expected 1 detail, got %d", len(details))
		}
	})

	t.Run("window without sentence end capped with ellipsis", func(t *testing.T) {
		long := "Limits " + strings.Repeat("unpunctuated filler text ", 40)
		details := LocateClauses([]string{"Limits"}, long)
		snippet := details[0].Snippet
		if !strings.HasSuffix(snippet, "…") {
			t.Errorf("snippet = %q, want ellipsis suffix", snippet)
		}
		if n := len([]rune(snippet)); n > locatorCap+1 {
			t.Errorf("snippet length %d exceeds cap", n)
		}
	})

	t.Run("label at end of context is distinguished from a miss", func(t *testing.T) {
		ctx := "All claims are subject to the General Terms"
		details := LocateClauses([]string{"General Terms"}, ctx)
		if details[0].Snippet != endOfContextSnippet {
			t.Errorf("snippet = %q, want end-of-context marker", details[0].Snippet)
		}
		if details[0].Snippet == notFoundSnippet {
			t.Error("a located label must not report the not-found fallback")
		}
	})

	t.Run("regex metacharacters in label are literal", func(t *testing.T) {
		ctx := "Clause 4.2 (Surgery): In-patient surgery is covered up to the annual limit."
		details := LocateClauses([]string{"Clause 4.2 (Surgery)"}, ctx)
		want := "In-patient surgery is covered up to the annual limit."
		if details[0].Snippet != want {
			t.Errorf("snippet = %q, want %q", details[0].Snippet, want)
		}
	})
}

func TestMergeDetails(t *testing.T) {
	located := []ReferenceDetail{
		{Label: "Clause 9", Snippet: "located excerpt"},
		{Label: "Waiting Period (Page 4)", Snippet: "located excerpt two"},
	}
	assembled := []ReferenceDetail{
		{Label: "Waiting Period (Page 4)", Snippet: "assembler excerpt"},
		{Label: "Relevant excerpt", Snippet: "unlabeled passage"},
	}

	merged := MergeDetails(located, assembled)
	if len(merged) != 3 {
		t.Fatalf("expected 3 details, got %d", len(merged))
	}
	if merged[0].Label != "Clause 9" {
		t.Errorf("first label = %q", merged[0].Label)
	}
	if merged[1].Label != "Waiting Period (Page 4)" || merged[1].Snippet != "located excerpt two" {
		t.Errorf("located detail should win for duplicate label, got %+v", merged[1])
	}
	if merged[2].Label != "Relevant excerpt" {
		t.Errorf("third label = %q", merged[2].Label)
	}
}
