package types

// Model architectures recognized in bootstrap metadata.
const (
	ArchEncoderDecoder = "encoder-decoder"
	ArchDecoderOnly    = "decoder-only"
)

// ModelInfo describes one model artifact directory, read from its
// bootstrap_config.json.
type ModelInfo struct {
	// Model name used by the name option.
	// example: lamini-flan-t5-248m
	Name string `json:"name" example:"lamini-flan-t5-248m"`
	// Quantization / compute type; the first number is the bits per parameter.
	// example: int8
	Quantization string `json:"quantization" example:"int8"`
	// Parameter count.
	// example: 248000000
	Params int64 `json:"params" example:"248000000"`
	// Prompt template with an {instruction} placeholder.
	// example: {instruction}
	PromptFormat string `json:"prompt_fmt,omitempty" example:"{instruction}"`
	// encoder-decoder (default) or decoder-only.
	// example: encoder-decoder
	Architecture string `json:"architecture,omitempty" example:"encoder-decoder"`
	// License identifier, matched by the model_license option.
	// example: apache-2.0
	License string `json:"license,omitempty" example:"apache-2.0"`
	// Optional weights file for in-process runtimes, relative to Path.
	// example: model.gguf
	Weights string `json:"weights,omitempty" example:"model.gguf"`
	// Artifact directory the metadata was read from.
	// example: /models/lamini-flan-t5-248m
	Path string `json:"path,omitempty" example:"/models/lamini-flan-t5-248m"`
	// Derived size in gigabytes: params * bits / 8 / 1e9.
	// example: 0.248
	SizeGB float64 `json:"size_gb" example:"0.248"`
}

// DecoderOnly reports whether ranking must score prompt and candidate as one
// sequence rather than the candidate conditioned on the prompt.
func (m ModelInfo) DecoderOnly() bool { return m.Architecture == ArchDecoderOnly }

// Template returns the prompt template, defaulting to the bare instruction.
func (m ModelInfo) Template() string {
	if m.PromptFormat == "" {
		return "{instruction}"
	}
	return m.PromptFormat
}
