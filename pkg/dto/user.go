package dto

import (
	"time"

	"github.com/your-org/liftlog/internal/models"
)

type UserHookRequest struct {
	UID         string `json:"uid" binding:"required"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

type ProfileResponse struct {
	UID           string               `json:"uid"`
	Email         string               `json:"email"`
	DisplayName   string               `json:"displayName"`
	PhotoURL      string               `json:"photoUrl"`
	Sex           string               `json:"sex"`
	WeightClass   float64              `json:"weightClass"`
	PersonalBests models.PersonalBests `json:"personalBests"`
	TotalKg       float64              `json:"totalKg"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}
