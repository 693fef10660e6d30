package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

type IdentifyRequest struct {
	Embedding []float32 `json:"embedding" example:"[0.12,-0.04,0.33]"`
	Threshold float64   `json:"threshold,omitempty" example:"0.6"`
	TopN      int       `json:"topN,omitempty" example:"5"`
}

type Match struct {
	PersonID   int64   `json:"personId" example:"12"`
	PersonName string  `json:"personName" example:"Alice"`
	Similarity float64 `json:"similarity" example:"0.91"`
}

type IdentifyResponse struct {
	Success bool    `json:"success" example:"true"`
	Matches []Match `json:"matches"`
}

type EmbeddingRequest struct {
	PersonID  int64     `json:"personId" example:"12"`
	PhotoID   int64     `json:"photoId" example:"3051"`
	Embedding []float32 `json:"embedding" example:"[0.12,-0.04,0.33]"`
}

type BoundingBox struct {
	Top    int `json:"top" example:"40"`
	Right  int `json:"right" example:"160"`
	Bottom int `json:"bottom" example:"190"`
	Left   int `json:"left" example:"40"`
}

type EncodingRequest struct {
	PhotoID             int64       `json:"photoId" example:"3051"`
	Embedding           []float32   `json:"embedding" example:"[0.12,-0.04,0.33]"`
	PersonID            int64       `json:"personId,omitempty" example:"12"`
	BoundingBox         BoundingBox `json:"boundingBox"`
	DetectionConfidence float64     `json:"detectionConfidence,omitempty" example:"0.97"`
}

type CreatedResponse struct {
	Success bool   `json:"success" example:"true"`
	FaceID  string `json:"faceId" example:"550e8400-e29b-41d4-a716-446655440000"`
}

type ReviewItem struct {
	FaceID              string      `json:"faceId" example:"550e8400-e29b-41d4-a716-446655440000"`
	PhotoID             int64       `json:"photoId" example:"3051"`
	PersonID            int64       `json:"personId" example:"12"`
	PersonName          string      `json:"personName" example:"Alice"`
	FileName            string      `json:"fileName" example:"2019/picnic.jpg"`
	BoundingBox         BoundingBox `json:"boundingBox"`
	DetectionConfidence float64     `json:"detectionConfidence" example:"0.97"`
	MatchDistance       float64     `json:"matchDistance" example:"0.82"`
	ReviewState         string      `json:"reviewState" example:"unreviewed"`
}

type ReviewQueueResponse struct {
	Success bool         `json:"success" example:"true"`
	Faces   []ReviewItem `json:"faces"`
	Count   int          `json:"count" example:"1"`
}

type ReviewRequest struct {
	Action   string `json:"action" example:"confirm"`
	FaceID   string `json:"faceId" example:"550e8400-e29b-41d4-a716-446655440000"`
	PersonID int64  `json:"personId,omitempty" example:"12"`
}

type ReviewResponse struct {
	Success     bool   `json:"success" example:"true"`
	FaceID      string `json:"faceId" example:"550e8400-e29b-41d4-a716-446655440000"`
	PhotoID     int64  `json:"photoId" example:"3051"`
	PersonID    int64  `json:"personId,omitempty" example:"12"`
	ReviewState string `json:"reviewState" example:"confirmed"`
	TagAdded    bool   `json:"tagAdded" example:"true"`
	TagCount    int    `json:"tagCount" example:"3"`
}

type ClearResponse struct {
	Success      bool  `json:"success" example:"true"`
	DeletedCount int64 `json:"deletedCount" example:"1520"`
}

type DetectRequest struct {
	PhotoID int64 `json:"photoId" example:"3051"`
}

type Proposal struct {
	FaceID              string      `json:"faceId" example:"550e8400-e29b-41d4-a716-446655440000"`
	BoundingBox         BoundingBox `json:"boundingBox"`
	DetectionConfidence float64     `json:"detectionConfidence" example:"0.97"`
	Suggestion          Match       `json:"suggestion"`
}

type DetectResponse struct {
	Success bool       `json:"success" example:"true"`
	Faces   []Proposal `json:"faces"`
	Count   int        `json:"count" example:"2"`
}

type TrainRequest struct {
	PersonID  int64   `json:"personId" example:"12"`
	PhotoIDs  []int64 `json:"photoIds,omitempty" example:"[3051,3077]"`
	MaxPhotos int     `json:"maxPhotos,omitempty" example:"20"`
}

type PhotoOutcome struct {
	PhotoID       int64  `json:"photoId" example:"3051"`
	Status        string `json:"status" example:"bound"`
	Reason        string `json:"reason,omitempty" example:"too many faces"`
	FacesDetected int    `json:"facesDetected" example:"2"`
	FaceID        string `json:"faceId,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
}

type TrainingRun struct {
	RunID        string         `json:"runId" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	PersonID     int64          `json:"personId" example:"12"`
	Status       string         `json:"status" example:"completed"`
	PhotosTotal  int            `json:"photosTotal" example:"15"`
	PhotosBound  int            `json:"photosBound" example:"11"`
	PhotosFailed int            `json:"photosFailed" example:"4"`
	StartedAt    string         `json:"startedAt" example:"2024-01-01T00:00:00Z"`
	FinishedAt   string         `json:"finishedAt,omitempty" example:"2024-01-01T00:01:30Z"`
	Results      []PhotoOutcome `json:"results"`
}

type TrainingRunResponse struct {
	Success bool        `json:"success" example:"true"`
	Run     TrainingRun `json:"run"`
}

type AggregateCount struct {
	PersonID    int64  `json:"personId" example:"12"`
	PersonName  string `json:"personName" example:"Alice"`
	SourceCount int    `json:"sourceCount" example:"14"`
}

type RebuildResponse struct {
	Success    bool             `json:"success" example:"true"`
	Aggregates []AggregateCount `json:"aggregates"`
}

type ErrorBody struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

type ErrorResponse struct {
	Success bool      `json:"success" example:"false"`
	Error   ErrorBody `json:"error"`
}

// EmptyResponse documents responses without a JSON body.
type EmptyResponse struct{}

func errResp(code, message, status, description string) response.Response {
	return response.New(ErrorResponse{Error: ErrorBody{Code: code, Message: message}}, status, description)
}

var (
	badRequest   = errResp("BAD_REQUEST", "Invalid request", "400", "Bad Request")
	unavailable  = errResp("STORAGE_UNAVAILABLE", "Storage is unavailable, try again later", "503", "Service Unavailable")
	rateLimited  = errResp("RATE_LIMIT_EXCEEDED", "Rate limit exceeded, please try again later", "429", "Too Many Requests")
	invalidInput = errResp("VALIDATION_FAILED", "Request validation failed", "422", "Unprocessable Entity")
)

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Family Album Faces API",
		Version:     "v1.0.0",
		Description: "Face embedding storage, identification, review and position-based training for the family photo gallery",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	jsonMIME := []mime.MIME{mime.JSON}

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.POST,
			"/faces/identify",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Rank known people for a descriptor"),
			endpoint.WithDescription("Returns at most topN people whose similarity to the descriptor is at least threshold, most similar first"),
			endpoint.WithBody(IdentifyRequest{}),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentifyResponse{}, "200", "Matches"),
			}),
			endpoint.WithErrors([]response.Response{
				errResp("INVALID_EMBEDDING_DIMENSION", "Embedding length does not match the configured descriptor dimension", "400", "Bad Request"),
				errResp("INVALID_THRESHOLD", "Threshold must be between 0 and 1", "422", "Unprocessable Entity"),
				rateLimited,
				unavailable,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/faces/embeddings",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Store a descriptor for a person on a photo"),
			endpoint.WithDescription("Conflict means the person is already represented on the photo and should be treated as success"),
			endpoint.WithBody(EmbeddingRequest{}),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CreatedResponse{}, "201", "Embedding stored"),
			}),
			endpoint.WithErrors([]response.Response{
				badRequest,
				errResp("PHOTO_NOT_FOUND", "Photo not found", "404", "Not Found"),
				errResp("EMBEDDING_EXISTS", "An embedding for this person and photo already exists", "409", "Conflict"),
				unavailable,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/faces/encodings",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Store an unreviewed face"),
			endpoint.WithBody(EncodingRequest{}),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CreatedResponse{}, "201", "Encoding stored"),
			}),
			endpoint.WithErrors([]response.Response{
				badRequest,
				errResp("PHOTO_NOT_FOUND", "Photo not found", "404", "Not Found"),
				errResp("INVALID_DETECTION_CONFIDENCE", "Detection confidence must be between 0 and 1", "422", "Unprocessable Entity"),
				unavailable,
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/faces/detect",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Detect faces on a stored photo"),
			endpoint.WithDescription("Runs the detector, stores every face as unreviewed and proposes the best matching person for each"),
			endpoint.WithBody(DetectRequest{}),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DetectResponse{}, "200", "Detected faces"),
			}),
			endpoint.WithErrors([]response.Response{
				errResp("PHOTO_NOT_FOUND", "Photo not found", "404", "Not Found"),
				errResp("DETECTOR_UNAVAILABLE", "Face detector is unavailable or not loaded", "503", "Service Unavailable"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/faces/review",
			endpoint.WithTags("Review"),
			endpoint.WithSummary("List faces awaiting review"),
			endpoint.WithDescription("Unreviewed faces with a proposed person, most confident first"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of faces (1-500, default from REVIEW_LIMIT)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReviewQueueResponse{}, "200", "Review queue"),
			}),
			endpoint.WithErrors([]response.Response{unavailable}),
		),

		endpoint.New(
			endpoint.POST,
			"/faces/review",
			endpoint.WithTags("Review"),
			endpoint.WithSummary("Confirm or reject a face"),
			endpoint.WithDescription("Confirm requires personId and tags the person on the photo. Confirmed and rejected faces cannot be reviewed again."),
			endpoint.WithBody(ReviewRequest{}),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReviewResponse{}, "200", "Review applied"),
			}),
			endpoint.WithErrors([]response.Response{
				errResp("INVALID_ACTION", `Action must be "confirm" or "reject"`, "400", "Bad Request"),
				errResp("FACE_NOT_FOUND", "Face not found", "404", "Not Found"),
				errResp("FACE_ALREADY_REVIEWED", "Face has already been confirmed or rejected", "409", "Conflict"),
				invalidInput,
				unavailable,
			}),
		),

		endpoint.New(
			endpoint.DELETE,
			"/faces",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Delete every face encoding"),
			endpoint.WithDescription("Clears all encodings and person aggregates before a controlled re-training run"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ClearResponse{}, "200", "Encodings deleted"),
			}),
			endpoint.WithErrors([]response.Response{unavailable}),
		),

		endpoint.New(
			endpoint.POST,
			"/faces/aggregates/rebuild",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Recompute every person aggregate"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RebuildResponse{}, "200", "Aggregates rebuilt"),
			}),
			endpoint.WithErrors([]response.Response{unavailable}),
		),

		endpoint.New(
			endpoint.POST,
			"/faces/train",
			endpoint.WithTags("Training"),
			endpoint.WithSummary("Label a person's faces from photo tag order"),
			endpoint.WithDescription("Binds the person to the detected face whose left-to-right position matches their position in each photo's tag list. Progress is streamed on the training websocket topic."),
			endpoint.WithBody(TrainRequest{}),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TrainingRunResponse{}, "200", "Training run finished"),
			}),
			endpoint.WithErrors([]response.Response{
				errResp("PERSON_NOT_FOUND", "Person not found", "404", "Not Found"),
				invalidInput,
				unavailable,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/faces/train/{runId}",
			endpoint.WithTags("Training"),
			endpoint.WithSummary("Get a training run"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.StrParam("runId", parameter.Path, parameter.WithDescription("Training run ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TrainingRunResponse{}, "200", "Training run with per-photo results"),
			}),
			endpoint.WithErrors([]response.Response{
				errResp("TRAINING_RUN_NOT_FOUND", "Training run not found", "404", "Not Found"),
				invalidInput,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/faces/events",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Websocket stream of review and training events"),
			endpoint.WithParams(
				parameter.StrParam("topic", parameter.Query, parameter.WithDescription("Optional filter: review or training")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors([]response.Response{
				badRequest,
				errResp("HTTP_ERROR", "Upgrade Required", "426", "Upgrade Required"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
