package store

import "time"

// Match is one semantic search hit against the indexed document chunks.
// Metadata is kept verbatim as returned by the backend so consumers can
// render source details (document title, chunk text) without re-fetching.
type Match struct {
	ID       string                 `json:"id,omitempty"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Context is the projection of a Match used as generation input.
type Context struct {
	Text  string  `json:"text"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// UntitledDocument is the placeholder title used when a match carries none.
const UntitledDocument = "Untitled document"

// AsContext projects a match into generation input. Missing metadata never
// fails the projection: absent text degrades to an empty string, absent
// title to the generic placeholder, absent or non-numeric score to 0.
// The fallback order for text is chunk_text, then text.
func (m Match) AsContext() Context {
	ctx := Context{
		Title: UntitledDocument,
		Score: m.Score,
	}

	if m.Metadata == nil {
		return ctx
	}

	if s, ok := m.Metadata["chunk_text"].(string); ok {
		ctx.Text = s
	} else if s, ok := m.Metadata["text"].(string); ok {
		ctx.Text = s
	}

	if s, ok := m.Metadata["title"].(string); ok && s != "" {
		ctx.Title = s
	}

	return ctx
}

// Title returns the display title from the match metadata, falling back to
// the generic placeholder.
func (m Match) Title() string {
	if m.Metadata != nil {
		if s, ok := m.Metadata["title"].(string); ok && s != "" {
			return s
		}
	}
	return UntitledDocument
}

// MimeClass groups the upload formats the backend accepts.
type MimeClass string

const (
	MimePDF     MimeClass = "pdf"
	MimeImage   MimeClass = "image"
	MimeUnknown MimeClass = "unknown"
)

// DocumentRecord is the client-side view of one uploaded document. It is
// assembled server-side from chunk metadata; the client holds a read-mostly
// cached copy per screen visit and is never the source of truth.
type DocumentRecord struct {
	ID              string
	Title           string
	UploadedAt      time.Time
	Mime            MimeClass
	ApproxSizeBytes int64
	ChunkCount      int
	TextPreview     string
	OCRConfidence   *float64
}
