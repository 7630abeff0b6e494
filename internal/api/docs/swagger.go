package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// FaceCoordinates is a face rectangle in frame pixels
type FaceCoordinates struct {
	X int `json:"x" example:"263"`
	Y int `json:"y" example:"187"`
	W int `json:"w" example:"131"`
	H int `json:"h" example:"131"`
}

// DetectEmotionRequest is the body of POST /detect_emotion
type DetectEmotionRequest struct {
	Image string `json:"image" example:"data:image/jpeg;base64,/9j/4AAQSkZJRg..."`
}

// DetectEmotionResponse lists one entry per face in each array, index-aligned
type DetectEmotionResponse struct {
	Emotions        []string          `json:"emotions" example:"happy"`
	EmotionIndices  []int             `json:"emotion_indices" example:"3"`
	FaceCoordinates []FaceCoordinates `json:"face_coordinates"`
	Recommendations []string          `json:"recommendations" example:"https://open.spotify.com/playlist/37i9dQZF1DXdPec7aLTmlC"`
}

// NoFacesResponse is returned with status 200 when no face is found
type NoFacesResponse struct {
	Emotions []string `json:"emotions" example:""`
	Warning  string   `json:"warning" example:"No faces detected."`
}

// StoreImageRequest is the body of POST /store_image
type StoreImageRequest struct {
	Image           string          `json:"image" example:"/9j/4AAQSkZJRg..."`
	EmotionID       int             `json:"emotion_id" example:"3"`
	FaceCoordinates FaceCoordinates `json:"face_coordinates"`
}

// StoreImageResponse names the stored artifact
type StoreImageResponse struct {
	Message  string `json:"message" example:"Image stored successfully"`
	Filename string `json:"filename" example:"20240501_123045_3.enc"`
}

// CaptureMetadataResponse is the plaintext record stored next to a capture
type CaptureMetadataResponse struct {
	Filename        string          `json:"filename" example:"20240501_123045_3"`
	Emotion         string          `json:"emotion" example:"happy"`
	EmotionIndex    int             `json:"emotion_index" example:"3"`
	FaceCoordinates FaceCoordinates `json:"face_coordinates"`
	Ciphertext      string          `json:"ciphertext" example:"20240501_123045_3.enc"`
	CreatedAt       string          `json:"created_at" example:"2024-05-01T12:30:45Z"`
}

// ListImagesResponse lists stored captures
type ListImagesResponse struct {
	Images []string `json:"images" example:"20240501_123045_3.enc"`
}

// PlaylistEntry is one row of the recommendation table
type PlaylistEntry struct {
	EmotionID int    `json:"emotion_id" example:"3"`
	Emotion   string `json:"emotion" example:"happy"`
	URL       string `json:"url" example:"https://open.spotify.com/playlist/37i9dQZF1DXdPec7aLTmlC"`
}

// PlaylistsResponse lists the full table
type PlaylistsResponse struct {
	Playlists []PlaylistEntry `json:"playlists"`
}

// CredentialsRequest is the body of signup and login
type CredentialsRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"correct horse battery"`
}

// MessageResponse carries a human readable outcome
type MessageResponse struct {
	Message string `json:"message" example:"User created successfully"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Message  string `json:"message" example:"Login successful"`
	Token    string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Username string `json:"username" example:"alice"`
}

// ReadyResponse reports dependency checks
type ReadyResponse struct {
	Status            string            `json:"status" example:"ready"`
	Checks            map[string]string `json:"checks"`
	OrphanedArtifacts int               `json:"orphaned_artifacts" example:"0"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid image data."`
	Code  string `json:"code" example:"MALFORMED_ENCODING"`
}

var internalError = response.New(ErrorResponse{Error: "An unexpected error occurred", Code: "INTERNAL_ERROR"}, "500", "Internal Server Error")

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Emotune API",
		Version:     "v1.0.0",
		Description: "Detects facial emotions in webcam frames, recommends a playlist per emotion and keeps encrypted captures",
		Host:        "localhost:3000",
		Path:        "/",
	})

	filenameParam := parameter.StrParam("filename", parameter.Query,
		parameter.WithDescription("Artifact id, with or without the .enc suffix"))

	endpoints := []*endpoint.EndPoint{
		// POST /detect_emotion
		endpoint.New(
			endpoint.POST,
			"/detect_emotion",
			endpoint.WithTags("Detection"),
			endpoint.WithSummary("Detect faces and classify their emotion"),
			endpoint.WithDescription("Accepts raw base64 or a data URL. A frame without faces returns 200 with a warning."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(DetectEmotionRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DetectEmotionResponse{}, "200", "Faces classified"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Invalid image data.", Code: "MALFORMED_ENCODING"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Unsupported image format", Code: "UNSUPPORTED_IMAGE_FORMAT"}, "415", "Unsupported Media Type"),
				response.New(ErrorResponse{Error: "Rate limit exceeded, please try again later", Code: "RATE_LIMIT_EXCEEDED"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Error: "Emotion classification failed", Code: "CLASSIFICATION_FAILURE"}, "502", "Bad Gateway"),
				internalError,
			}),
		),

		// GET /ws/detect
		endpoint.New(
			endpoint.GET,
			"/ws/detect",
			endpoint.WithTags("Detection"),
			endpoint.WithSummary("Stream frames over a WebSocket"),
			endpoint.WithDescription("Each text message is {\"seq\":n,\"image\":\"<base64>\"}. The server answers every frame with a detection.result or detection.error event carrying the same seq."),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Upgrade Required", Code: "HTTP_ERROR"}, "426", "Upgrade Required"),
				response.New(ErrorResponse{Error: "Rate limit exceeded, please try again later", Code: "RATE_LIMIT_EXCEEDED"}, "429", "Too Many Requests"),
			}),
		),

		// POST /store_image
		endpoint.New(
			endpoint.POST,
			"/store_image",
			endpoint.WithTags("Captures"),
			endpoint.WithSummary("Encrypt and store a capture"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(StoreImageRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StoreImageResponse{}, "200", "Capture stored"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Missing key in request payload: emotion_id", Code: "MISSING_FIELD"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Invalid emotion ID", Code: "UNKNOWN_EMOTION_INDEX"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Invalid or missing session token", Code: "UNAUTHORIZED"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Error: "Failed to persist capture", Code: "PERSISTENCE_FAILURE"}, "500", "Internal Server Error"),
			}),
		),

		// GET /get_image
		endpoint.New(
			endpoint.GET,
			"/get_image",
			endpoint.WithTags("Captures"),
			endpoint.WithSummary("Decrypt and return a stored capture"),
			endpoint.WithProduce([]mime.MIME{mime.MIME("image/jpeg"), mime.MIME("image/png")}),
			endpoint.WithParams(filenameParam),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Filename is required", Code: "MISSING_FIELD"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Image not found", Code: "ARTIFACT_NOT_FOUND"}, "404", "Not Found"),
				response.New(ErrorResponse{Error: "Failed to decrypt capture", Code: "DECRYPTION_FAILURE"}, "500", "Internal Server Error"),
			}),
		),

		// GET /get_metadata
		endpoint.New(
			endpoint.GET,
			"/get_metadata",
			endpoint.WithTags("Captures"),
			endpoint.WithSummary("Return the metadata of a stored capture"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(filenameParam),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CaptureMetadataResponse{}, "200", "Metadata found"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Metadata file not found", Code: "ARTIFACT_NOT_FOUND"}, "404", "Not Found"),
				internalError,
			}),
		),

		// GET /list_images
		endpoint.New(
			endpoint.GET,
			"/list_images",
			endpoint.WithTags("Captures"),
			endpoint.WithSummary("List stored captures"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListImagesResponse{}, "200", "Stored captures"),
			}),
		),

		// GET /playlists
		endpoint.New(
			endpoint.GET,
			"/playlists",
			endpoint.WithTags("Playlists"),
			endpoint.WithSummary("List the playlist for every emotion"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PlaylistsResponse{}, "200", "Recommendation table"),
			}),
		),

		// GET /get_playlists
		endpoint.New(
			endpoint.GET,
			"/get_playlists",
			endpoint.WithTags("Playlists"),
			endpoint.WithSummary("Redirect to the playlist for an emotion"),
			endpoint.WithParams(
				parameter.StrParam("emotion", parameter.Query, parameter.WithDescription("Emotion index 0-6 or label (angry, disgust, fear, happy, neutral, sad, surprise)")),
			),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Invalid emotion ID", Code: "UNKNOWN_EMOTION_INDEX"}, "400", "Bad Request"),
			}),
		),

		// POST /signup
		endpoint.New(
			endpoint.POST,
			"/signup",
			endpoint.WithTags("Accounts"),
			endpoint.WithSummary("Create an account"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(CredentialsRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MessageResponse{}, "201", "Account created"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Username and password are required", Code: "VALIDATION_FAILED"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Username already exists", Code: "USERNAME_TAKEN"}, "400", "Bad Request"),
				internalError,
			}),
		),

		// POST /login
		endpoint.New(
			endpoint.POST,
			"/login",
			endpoint.WithTags("Accounts"),
			endpoint.WithSummary("Exchange credentials for a session token"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(CredentialsRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LoginResponse{}, "200", "Logged in"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Invalid username or password", Code: "INVALID_CREDENTIALS"}, "401", "Unauthorized"),
				internalError,
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReadyResponse{}, "200", "Ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ReadyResponse{Status: "not_ready"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
