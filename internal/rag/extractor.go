package rag

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// unparsableJustification is returned when the model output carries no
// parsable decision object.
const unparsableJustification = "The analysis could not be completed because the model response was not in the expected format."

// defaultJustification fills in a parsed decision whose justification field
// is missing or empty.
const defaultJustification = "Analysis incomplete"

// extractJSONObject locates the first balanced JSON object in free-form text.
// The scan is string- and escape-aware, so braces inside string values do not
// confuse it. A second pass starts after an opening brace that never closes.
func extractJSONObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			return "", false
		}
		start += 1 + next
	}
	return "", false
}

// ParseDecision extracts the structured decision from raw model output.
// Missing fields are defaulted, the amount is coerced to a string, and the
// model-claimed reference clauses are merged with the metadata-derived labels
// (model first, first occurrence wins). When no decision object can be
// parsed the result degrades to an uncertain decision carrying only the
// metadata-derived references; this function never fails.
func ParseDecision(raw string, metadataRefs []string) *Decision {
	span, ok := extractJSONObject(raw)
	if !ok {
		return unparsableDecision(metadataRefs)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return unparsableDecision(metadataRefs)
	}

	decision := stringField(fields, "decision")
	if decision == "" {
		decision = DecisionUncertain
	}
	justification := stringField(fields, "justification")
	if justification == "" {
		justification = defaultJustification
	}

	return &Decision{
		Decision:         decision,
		Amount:           coerceAmount(fields["amount"]),
		Justification:    justification,
		ReferenceClauses: mergeClauses(clauseList(fields["reference_clauses"]), metadataRefs),
	}
}

func unparsableDecision(metadataRefs []string) *Decision {
	return &Decision{
		Decision:         DecisionUncertain,
		Justification:    unparsableJustification,
		ReferenceClauses: mergeClauses(nil, metadataRefs),
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

// coerceAmount converts the model's amount value to a string. Falsy values
// (absent, null, empty string, zero, false) become nil.
func coerceAmount(v any) *string {
	switch amount := v.(type) {
	case string:
		if amount == "" {
			return nil
		}
		return &amount
	case float64:
		if amount == 0 {
			return nil
		}
		s := strconv.FormatFloat(amount, 'f', -1, 64)
		return &s
	case bool:
		if !amount {
			return nil
		}
		s := "true"
		return &s
	case nil:
		return nil
	default:
		s := fmt.Sprintf("%v", amount)
		return &s
	}
}

// clauseList reads the model's reference_clauses field, keeping only
// non-empty strings.
func clauseList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	clauses := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			clauses = append(clauses, s)
		}
	}
	return clauses
}

// mergeClauses concatenates model-claimed clauses with metadata-derived
// references, dropping empties and duplicates while preserving first-seen
// order.
func mergeClauses(model, metadata []string) []string {
	merged := make([]string, 0, len(model)+len(metadata))
	seen := make(map[string]struct{})
	for _, clause := range append(append([]string{}, model...), metadata...) {
		if strings.TrimSpace(clause) == "" {
			continue
		}
		if _, ok := seen[clause]; ok {
			continue
		}
		seen[clause] = struct{}{}
		merged = append(merged, clause)
	}
	return merged
}
