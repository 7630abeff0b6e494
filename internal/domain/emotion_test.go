package domain

import (
	"errors"
	"image"
	"testing"
)

func TestEmotion_String(t *testing.T) {
	tests := []struct {
		emotion  Emotion
		expected string
	}{
		{EmotionAngry, "angry"},
		{EmotionDisgust, "disgust"},
		{EmotionFear, "fear"},
		{EmotionHappy, "happy"},
		{EmotionNeutral, "neutral"},
		{EmotionSad, "sad"},
		{EmotionSurprise, "surprise"},
		{Emotion(7), "emotion(7)"},
		{Emotion(-1), "emotion(-1)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.emotion.String(); got != tt.expected {
				t.Errorf("String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEmotionFromIndex(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		want    Emotion
		wantErr bool
	}{
		{name: "first", index: 0, want: EmotionAngry},
		{name: "happy", index: 3, want: EmotionHappy},
		{name: "last", index: 6, want: EmotionSurprise},
		{name: "negative", index: -1, wantErr: true},
		{name: "past end", index: 7, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EmotionFromIndex(tt.index)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEmotionIndex) {
					t.Errorf("EmotionFromIndex() error = %v, want ErrUnknownEmotionIndex", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("EmotionFromIndex() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EmotionFromIndex() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEmotion(t *testing.T) {
	got, err := ParseEmotion(" Happy ")
	if err != nil {
		t.Fatalf("ParseEmotion() unexpected error = %v", err)
	}
	if got != EmotionHappy {
		t.Errorf("ParseEmotion() = %v, want happy", got)
	}

	if _, err := ParseEmotion("bored"); !errors.Is(err, ErrUnknownEmotionIndex) {
		t.Errorf("ParseEmotion() error = %v, want ErrUnknownEmotionIndex", err)
	}
}

func TestEmotions_MatchesIndexOrder(t *testing.T) {
	all := Emotions()
	if len(all) != EmotionCount {
		t.Fatalf("len(Emotions()) = %d, want %d", len(all), EmotionCount)
	}
	for i, e := range all {
		if e.Index() != i {
			t.Errorf("Emotions()[%d] = %d", i, e.Index())
		}
	}
}

func TestFaceRegion_Within(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)

	tests := []struct {
		name   string
		region FaceRegion
		want   bool
	}{
		{name: "inside", region: FaceRegion{X: 263, Y: 187, W: 131, H: 131}, want: true},
		{name: "touches edge", region: FaceRegion{X: 540, Y: 380, W: 100, H: 100}, want: true},
		{name: "exceeds width", region: FaceRegion{X: 600, Y: 0, W: 100, H: 100}, want: false},
		{name: "negative origin", region: FaceRegion{X: -1, Y: 0, W: 10, H: 10}, want: false},
		{name: "zero width", region: FaceRegion{X: 10, Y: 10, W: 0, H: 10}, want: false},
		{name: "negative height", region: FaceRegion{X: 10, Y: 10, W: 10, H: -5}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.region.Within(bounds); got != tt.want {
				t.Errorf("Within() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectionResult_NoFaces(t *testing.T) {
	var nilResult *DetectionResult
	if !nilResult.NoFaces() {
		t.Errorf("nil result should report no faces")
	}
	if !(&DetectionResult{}).NoFaces() {
		t.Errorf("empty result should report no faces")
	}
	withFace := &DetectionResult{Detections: []EmotionDetection{{Emotion: EmotionHappy}}}
	if withFace.NoFaces() {
		t.Errorf("result with a detection should report faces")
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid", username: "alice", password: "correct horse"},
		{name: "empty username", username: "", password: "secret123", wantErr: ErrCredentialsRequired},
		{name: "empty password", username: "alice", password: "", wantErr: ErrCredentialsRequired},
		{name: "short password", username: "alice", password: "short", wantErr: ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.username, tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCredentials() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCredentials() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
