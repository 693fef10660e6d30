package domain

// Match is one ranked identity for an identify query.
type Match struct {
	PersonID   int64   `json:"personId"`
	PersonName string  `json:"personName"`
	Similarity float64 `json:"similarity"`
}

// Candidate is a person's reference vector considered by the matcher.
type Candidate struct {
	PersonID   int64
	PersonName string
	Vector     []float32
}

// IdentifyQuery carries the descriptor and optional knobs for identify.
type IdentifyQuery struct {
	Descriptor []float32
	Threshold  *float64
	TopN       *int
}

// Proposal is a freshly detected face with the best identity suggestion.
type Proposal struct {
	FaceID              string       `json:"faceId"`
	BoundingBox         *BoundingBox `json:"boundingBox,omitempty"`
	DetectionConfidence float64      `json:"detectionConfidence"`
	Suggestion          *Match       `json:"suggestion,omitempty"`
}
