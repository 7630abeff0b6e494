package domain

import (
	"fmt"
	"image"
	"strings"
)

// Emotion representa uma das sete classes do modelo de expressão facial
type Emotion int

// A ordem dos índices segue a camada de saída do modelo
const (
	EmotionAngry Emotion = iota
	EmotionDisgust
	EmotionFear
	EmotionHappy
	EmotionNeutral
	EmotionSad
	EmotionSurprise
)

// EmotionCount é o tamanho do vetor de probabilidades esperado do classificador
const EmotionCount = 7

var emotionLabels = [EmotionCount]string{
	"angry",
	"disgust",
	"fear",
	"happy",
	"neutral",
	"sad",
	"surprise",
}

// Valid indica se o índice pertence à taxonomia
func (e Emotion) Valid() bool {
	return e >= 0 && int(e) < EmotionCount
}

func (e Emotion) Index() int {
	return int(e)
}

func (e Emotion) String() string {
	if !e.Valid() {
		return fmt.Sprintf("emotion(%d)", int(e))
	}
	return emotionLabels[e]
}

// EmotionFromIndex converte um índice inteiro em Emotion
func EmotionFromIndex(index int) (Emotion, error) {
	e := Emotion(index)
	if !e.Valid() {
		return 0, ErrUnknownEmotionIndex.WithError(fmt.Errorf("index %d out of range [0,%d)", index, EmotionCount))
	}
	return e, nil
}

// ParseEmotion aceita o rótulo em qualquer capitalização
func ParseEmotion(label string) (Emotion, error) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for i, l := range emotionLabels {
		if l == normalized {
			return Emotion(i), nil
		}
	}
	return 0, ErrUnknownEmotionIndex.WithError(fmt.Errorf("unknown emotion label %q", label))
}

// Emotions retorna a taxonomia completa na ordem dos índices
func Emotions() []Emotion {
	out := make([]Emotion, EmotionCount)
	for i := range out {
		out[i] = Emotion(i)
	}
	return out
}

// FaceRegion é o retângulo de uma face em coordenadas de pixel do frame
type FaceRegion struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (r FaceRegion) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Within indica se a região é não vazia e cabe inteira nos limites
func (r FaceRegion) Within(bounds image.Rectangle) bool {
	if r.W <= 0 || r.H <= 0 {
		return false
	}
	return r.Rect().In(bounds)
}

// RegionFromRect converte um retângulo, já recortado pelo chamador, em FaceRegion
func RegionFromRect(rect image.Rectangle) FaceRegion {
	return FaceRegion{X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy()}
}

// EmotionDetection associa uma face detectada à emoção classificada e à recomendação
type EmotionDetection struct {
	Emotion        Emotion    `json:"emotion"`
	Region         FaceRegion `json:"region"`
	Recommendation string     `json:"recommendation"`
}

// DetectionResult é o resultado de uma análise de frame, na ordem do detector
type DetectionResult struct {
	Detections []EmotionDetection `json:"detections"`
}

// NoFaces indica o resultado sem faces, que não é um erro
func (r *DetectionResult) NoFaces() bool {
	return r == nil || len(r.Detections) == 0
}
