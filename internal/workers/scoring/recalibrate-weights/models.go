// internal/workers/scoring/recalibrate-weights/models.go
package recalibrateweights

type Input struct {
	Scope string `json:"scope,omitempty"`
	// MinSamples overrides the configured training floor when positive.
	MinSamples int `json:"minSamples,omitempty"`
}

type Output struct {
	Recalibrated  bool               `json:"recalibrated"`
	SkipReason    string             `json:"skipReason,omitempty"`
	WeightSetID   string             `json:"weightSetId,omitempty"`
	Scope         string             `json:"scope"`
	SampleSize    int                `json:"sampleSize"`
	OutcomeCounts map[string]int     `json:"outcomeCounts,omitempty"`
	Weights       map[string]float64 `json:"weights,omitempty"`
}
