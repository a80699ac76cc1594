package v1

// GeneratedFile points at one rendered sequence.
type GeneratedFile struct {
	MIDI string `json:"midi"`
	Plot string `json:"plot"`
}

// Result describes one pipeline run.
type Result struct {
	Model  string          `json:"model"`
	RunDir string          `json:"run_dir"`
	Files  []GeneratedFile `json:"files"`
}

// SampleRequest draws new sequences from the model prior.
type SampleRequest struct {
	Model       string  `json:"model,omitempty"`
	Outputs     int     `json:"outputs,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// InterpolateRequest morphs between two MIDI files in latent space.
type InterpolateRequest struct {
	Model       string  `json:"model,omitempty"`
	StartPath   string  `json:"start_path"`
	EndPath     string  `json:"end_path"`
	Outputs     int     `json:"outputs,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// HumanizeRequest re-decodes a quantized MIDI file through a groove model.
type HumanizeRequest struct {
	Model       string  `json:"model,omitempty"`
	Path        string  `json:"path"`
	Temperature float64 `json:"temperature,omitempty"`
}
