package queue

import "time"

// VideoUploaded asks the transcoder to pick up a raw video.
type VideoUploaded struct {
	VideoID  string    `json:"videoId"`
	UID      string    `json:"uid"`
	Filename string    `json:"filename"`
	LiftType string    `json:"liftType"`
	WeightKg float64   `json:"weightKg"`
	IsPB     bool      `json:"isPB"`
	At       time.Time `json:"at"`
}

// VideoProcessed is sent by the transcoder. Either field identifies the video.
type VideoProcessed struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// PersonalBest is fanned out to live leaderboard subscribers.
type PersonalBest struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name"`
	Sex         string    `json:"sex"`
	WeightClass float64   `json:"weightClass"`
	LiftType    string    `json:"liftType"`
	WeightKg    float64   `json:"weightKg"`
	PreviousKg  float64   `json:"previousKg"`
	TotalKg     float64   `json:"totalKg"`
	VideoRef    string    `json:"videoRef"`
	At          time.Time `json:"at"`
}
