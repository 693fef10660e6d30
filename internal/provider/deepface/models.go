package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`               // data URI or base64 image
	Model            string `json:"model_name"`        // "Facenet", "Facenet512", ...
	Detector         string `json:"detector_backend"`  // "retinaface", "mtcnn", ...
	EnforceDetection bool   `json:"enforce_detection"` // 400 instead of a whole-image embedding
	Align            bool   `json:"align"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence *float64   `json:"face_confidence,omitempty"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// modelDimensions lists the embedding length of each DeepFace recognition
// model.
var modelDimensions = map[string]int{
	"VGG-Face":     4096,
	"Facenet":      128,
	"Facenet512":   512,
	"OpenFace":     128,
	"DeepFace":     4096,
	"DeepID":       160,
	"Dlib":         128,
	"ArcFace":      512,
	"SFace":        128,
	"GhostFaceNet": 512,
}
