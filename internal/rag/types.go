package rag

// Decision kinds. Approved, rejected and uncertain come from the generative
// model; the remaining kinds are produced by the pipeline itself.
const (
	DecisionApproved  = "approved"
	DecisionRejected  = "rejected"
	DecisionUncertain = "uncertain"
	DecisionNoData    = "no_data"
	DecisionNoMatch   = "no_match"
	DecisionError     = "error"
)

// ReferenceDetail pairs a human-readable clause label with a short excerpt
// from the evidence context, for display alongside the decision.
type ReferenceDetail struct {
	Label   string `json:"label"`
	Snippet string `json:"snippet"`
}

// Decision is the structured outcome of one claim analysis. It is created
// fresh per query and never mutated after being returned.
type Decision struct {
	Decision         string            `json:"decision"`
	Amount           *string           `json:"amount"`
	Justification    string            `json:"justification"`
	ReferenceClauses []string          `json:"reference_clauses"`
	ReferenceDetails []ReferenceDetail `json:"reference_details"`
}
