// Package story manages the narrated stories the robot can perform and the
// use cases that bring one to life: local playback and remote streaming.
package story

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for an unknown story id.
var ErrNotFound = errors.New("story not found")

// Story is one performable tale. The heavy artifacts (narration audio,
// motion document) live in blob storage; the entity only references them.
type Story struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Text         string    `json:"text"`
	AudioURL     string    `json:"audio_url"`
	MovementsURL string    `json:"movements_url"`
	Emotion      string    `json:"emotion,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists stories.
type Repository interface {
	Save(ctx context.Context, s *Story) error
	GetByID(ctx context.Context, id string) (*Story, error)
	List(ctx context.Context) ([]*Story, error)
}

// Label is an emotion classification result.
type Label string

// EmotionAnalyzer scores a sentence's dominant emotion. Implementations
// live upstream in the authoring pipeline; playback only consumes the
// labels already attached to stories.
type EmotionAnalyzer interface {
	Classify(ctx context.Context, sentence string) (Label, float64, error)
}
