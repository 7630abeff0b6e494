package ws

import (
	"time"
)

type EventType string

const (
	EventDetection EventType = "detection.result"
	EventError     EventType = "detection.error"
	EventClosing   EventType = "server.closing"
)

// FrameMessage is one webcam frame pushed by the client. Seq is echoed back
// so the client can match results to frames.
type FrameMessage struct {
	Seq   uint64 `json:"seq"`
	Image string `json:"image"`
}

type Event struct {
	Type      EventType `json:"type"`
	Seq       uint64    `json:"seq,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorData struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
