package httpresp

const (
	ErrNoVideoFile        = "No video file provided"
	ErrMissingMetadata    = "Title and uploadedBy are required"
	ErrOnlyVideoFiles     = "Only video files are allowed!"
	ErrFileTooLarge       = "File too large. Maximum size is 2GB."
	ErrUnexpectedField    = "Unexpected field"
	ErrFieldTooLarge      = "Field value too long"
	ErrMalformedMultipart = "Request must be multipart/form-data"
	ErrUploadFailed       = "Upload failed"
	ErrInternal           = "Internal server error"
	ErrNotAllowedByCORS   = "Not allowed by CORS"
)

// Envelope is the JSON shape every relay response shares; Data is only set on success.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NewErrorResponse(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

func NewSuccessResponse(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func NewHealthResponse(message string) HealthResponse {
	return HealthResponse{Status: "ok", Message: message}
}
