package dto

// WSEvent is pushed to WebSocket clients.
type WSEvent struct {
	Type string      `json:"type"`
	Sex  string      `json:"sex,omitempty"`
	Data interface{} `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
