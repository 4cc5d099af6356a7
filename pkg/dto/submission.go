package dto

// SaveSubmissionRequest uses pointers for numbers so a missing weight can be
// told apart from zero.
type SaveSubmissionRequest struct {
	Filename    string   `json:"filename"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	LiftType    string   `json:"liftType"`
	Sex         string   `json:"sex"`
	WeightClass *float64 `json:"weightClass"`
	WeightKg    *float64 `json:"weightKg"`
}

type SaveSubmissionResponse struct {
	Message string  `json:"message"`
	VideoID string  `json:"videoId"`
	IsPB    bool    `json:"isPB"`
	TotalKg float64 `json:"totalKg"`
}

type SaveThumbnailRequest struct {
	Thumbnail string `json:"thumbnail" binding:"required"`
}
