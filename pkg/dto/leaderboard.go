package dto

import "github.com/your-org/liftlog/internal/models"

type LeaderboardResponse struct {
	Rows  []models.LeaderboardRow `json:"rows"`
	Total int                     `json:"total"`
}
