package dto

type PhotoUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
