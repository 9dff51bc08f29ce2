package effect

import (
	"sweffect/domain/core"
)

// Estimate is a completed estimation run as stored and served
type Estimate struct {
	ID        core.EstimateID  `json:"id"`
	Spec      MethodSpec       `json:"spec"`
	Result    EstimationResult `json:"result"`
	CreatedAt core.Timestamp   `json:"created_at"`
}

// NewEstimate stamps a result with a fresh ID and creation time
func NewEstimate(spec MethodSpec, result EstimationResult) *Estimate {
	return &Estimate{
		ID:        core.NewEstimateID(),
		Spec:      spec,
		Result:    result,
		CreatedAt: core.Now(),
	}
}
