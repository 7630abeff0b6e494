package domain

import (
	"time"
)

// CaptureMetadata é o registro em texto claro gravado ao lado de cada captura cifrada
type CaptureMetadata struct {
	Filename        string     `json:"filename"`
	Emotion         string     `json:"emotion"`
	EmotionIndex    int        `json:"emotion_index"`
	FaceCoordinates FaceRegion `json:"face_coordinates"`
	Ciphertext      string     `json:"ciphertext"`
	CreatedAt       time.Time  `json:"created_at"`
}
