package dto

// GenerationRequest is the single polymorphic shape for text generation:
// an instruction plus a criticality flag. Critical requests are allowed to
// spend reserved premium capacity.
type GenerationRequest struct {
	Instruction string  `json:"instruction"`
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature"`
	Critical    bool    `json:"critical"`
}
