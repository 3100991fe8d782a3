package library

import (
	"encoding/json"
	"time"
)

// Reference is a stored reference outline.
type Reference struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Source      string    `json:"source"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Outline is a generated outline together with the specification it was
// generated from.
type Outline struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Objectives    string          `json:"objectives,omitempty"`
	TotalDuration int             `json:"total_duration"`
	Specification json.RawMessage `json:"specification,omitempty"`
	Content       string          `json:"content"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
