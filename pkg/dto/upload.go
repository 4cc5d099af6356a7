package dto

type UploadURLRequest struct {
	FileExtension string `json:"fileExtension" binding:"required"`
	Password      string `json:"password"`
}

type UploadURLResponse struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}
