package dto

import "time"

type VideoResponse struct {
	ID              string    `json:"id"`
	UID             string    `json:"uid"`
	Filename        string    `json:"filename"`
	Thumbnail       string    `json:"thumbnail"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	LiftType        string    `json:"liftType"`
	Sex             string    `json:"sex"`
	WeightClass     float64   `json:"weightClass"`
	WeightKg        float64   `json:"weightKg"`
	IsPB            bool      `json:"isPB"`
	Status          string    `json:"status"`
	UserDisplayName string    `json:"userDisplayName"`
	UserPhotoURL    string    `json:"userPhotoUrl"`
	Date            time.Time `json:"date"`
}

type VideoListResponse struct {
	Videos []VideoResponse `json:"videos"`
	Total  int             `json:"total"`
}
