package rag

import (
	"regexp"
	"strings"
)

const (
	locatorWindow = 400
	locatorCap    = 380
)

// notFoundSnippet is attached when a clause label cannot be located in the
// evidence context. Model-claimed clause names often paraphrase the document,
// so misses are expected.
const notFoundSnippet = "Referenced clause text not found in the retrieved context."

// endOfContextSnippet is attached when the label matches but no text follows
// it, which happens when the label closes the last retrieved passage.
const endOfContextSnippet = "Clause appears at the end of the retrieved context."

// LocateClauses searches the evidence context for each clause label and
// extracts a short explanatory excerpt following its first occurrence. The
// search is case-insensitive and tolerates a trailing colon, dash or
// whitespace after the label. Labels that cannot be found get a fallback
// snippet; location never fails.
func LocateClauses(clauses []string, context string) []ReferenceDetail {
	details := make([]ReferenceDetail, 0, len(clauses))
	seen := make(map[string]struct{})

	for _, clause := range clauses {
		if strings.TrimSpace(clause) == "" {
			continue
		}
		if _, ok := seen[clause]; ok {
			continue
		}
		seen[clause] = struct{}{}
		details = append(details, ReferenceDetail{
			Label:   clause,
			Snippet: locateSnippet(clause, context),
		})
	}
	return details
}

// locateSnippet extracts the text following the label's first occurrence,
// cut at the first sentence end within the window and capped with an
// ellipsis when no sentence end is found.
func locateSnippet(label, context string) string {
	pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(label) + `\s*[:\-]?\s*`)
	if err != nil {
		return notFoundSnippet
	}
	loc := pattern.FindStringIndex(context)
	if loc == nil {
		return notFoundSnippet
	}

	window := []rune(context[loc[1]:])
	if len(window) > locatorWindow {
		window = window[:locatorWindow]
	}
	if end := firstSentenceEnd(window); end >= 0 {
		window = window[:end+1]
	}

	excerpt := strings.TrimSpace(string(window))
	if excerpt == "" {
		return endOfContextSnippet
	}
	capped := []rune(excerpt)
	if len(capped) > locatorCap {
		excerpt = strings.TrimSpace(string(capped[:locatorCap])) + "…"
	}
	return excerpt
}

func firstSentenceEnd(runes []rune) int {
	for i, r := range runes {
		switch r {
		case '.', '!', '?':
			return i
		}
	}
	return -1
}

// MergeDetails combines located clause details with the assembler's
// metadata-derived details, deduplicating by label with the first occurrence
// winning.
func MergeDetails(located, assembled []ReferenceDetail) []ReferenceDetail {
	merged := make([]ReferenceDetail, 0, len(located)+len(assembled))
	seen := make(map[string]struct{})
	for _, detail := range append(append([]ReferenceDetail{}, located...), assembled...) {
		if _, ok := seen[detail.Label]; ok {
			continue
		}
		seen[detail.Label] = struct{}{}
		merged = append(merged, detail)
	}
	return merged
}
