package dto

// LeadCandidate is the normalized shape produced by the lead importer.
// Arbitrary source formats collapse to this before admission.
type LeadCandidate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Position string `json:"position"`
	Niche    string `json:"niche"`
}

// LeadImportResult summarizes one import run. Invalid rows are counted, not
// surfaced as errors.
type LeadImportResult struct {
	Inserted        int `json:"inserted"`
	SkippedExisting int `json:"skippedExisting"`
	SkippedOptedOut int `json:"skippedOptedOut"`
	InvalidRows     int `json:"invalidRows"`
}
