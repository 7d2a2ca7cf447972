package domain

// DefaultBaseName is used when no file name can be derived from the source URL.
const DefaultBaseName = "audio_download"

// MP3MediaType is the media type of every conversion response.
const MP3MediaType = "audio/mpeg"

// ConvertRequest is the JSON body accepted by the convert-to-mp3 endpoint.
type ConvertRequest struct {
	AudioURL string `json:"audio_url"`
}

// EncodeResponse is returned by the encode-base64 endpoint.
type EncodeResponse struct {
	Base64String string `json:"base64_string"`
}

// HealthResponse is the fixed payload of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
