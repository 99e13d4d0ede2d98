package domain

// PipelineStatus is the readiness snapshot for the status endpoint.
type PipelineStatus struct {
	Initialized    bool              `json:"initialized"`
	VectorDatabase VectorStatus      `json:"vectorDatabase"`
	Services       map[string]string `json:"services"`
}

type VectorStatus struct {
	Connected   bool `json:"connected"`
	PointsCount int  `json:"pointsCount"`
}
