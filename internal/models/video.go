package models

import (
	"fmt"
	"path"
	"strings"
	"time"
)

type VideoStatus string

const (
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusProcessed  VideoStatus = "processed"
)

type Video struct {
	ID          string      `json:"id"`
	UID         string      `json:"uid"`
	Filename    string      `json:"filename"`
	Thumbnail   string      `json:"thumbnail"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	LiftType    LiftType    `json:"liftType"`
	Sex         Sex         `json:"sex"`
	WeightClass float64     `json:"weightClass"`
	WeightKg    float64     `json:"weightKg"`
	IsPB        bool        `json:"isPB"`
	Status      VideoStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	// Owner display data, filled on list and get.
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// NewVideoFilename builds the object name for an upload: <uid>-<unixMillis>.<ext>.
func NewVideoFilename(uid string, at time.Time, ext string) string {
	return fmt.Sprintf("%s-%d.%s", uid, at.UnixMilli(), strings.ToLower(ext))
}

// ParseVideoFilename splits an upload filename into the video id (the part
// before the last '.') and the owner uid (the id up to its last '-').
func ParseVideoFilename(filename string) (id, uid string, err error) {
	if filename == "" || filename != path.Base(filename) {
		return "", "", fmt.Errorf("invalid filename %q", filename)
	}
	id = filename
	if i := strings.LastIndex(filename, "."); i >= 0 {
		id = filename[:i]
	}
	i := strings.LastIndex(id, "-")
	if i <= 0 || i == len(id)-1 {
		return "", "", fmt.Errorf("invalid filename %q", filename)
	}
	return id, id[:i], nil
}
