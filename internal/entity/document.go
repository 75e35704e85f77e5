package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/constants"
)

// Document represents a persisted document for data transfer between layers.
// The pipeline fills the structured fields; lifecycle (creation, deletion)
// belongs to the ingestion and management layers.
type Document struct {
	ID        uuid.UUID           `json:"id"`
	Filename  string              `json:"filename"`
	MediaType string              `json:"media_type"`
	Status    constants.DocStatus `json:"status"`

	Content  string  `json:"content"`
	Category *string `json:"category,omitempty"`
	Issuer   *string `json:"issuer,omitempty"`
	DocDate  *string `json:"doc_date,omitempty"` // YYYY-MM-DD
	Amount   *string `json:"amount,omitempty"`
	Summary  *string `json:"summary,omitempty"`

	// Sources records which extraction path(s) contributed ("vision", "ocr+llm").
	Sources []string `json:"sources,omitempty"`

	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
