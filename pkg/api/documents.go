package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	gocache "github.com/patrickmn/go-cache"

	"github.com/N1c0zz/NeuraMind/internal/config"
	"github.com/N1c0zz/NeuraMind/pkg/store"
)

// Precondition violations, rejected before any network call.
var (
	ErrEmptyTitle          = errors.New("document title must not be empty")
	ErrFileTooLarge        = errors.New("document exceeds the maximum upload size")
	ErrUnsupportedLanguage = errors.New("unsupported OCR language code")
)

// Gateway-level wraps keep the failing operation visible to callers while
// the underlying TransportError stays reachable via errors.As.
type UploadError struct{ Err error }

func (e *UploadError) Error() string { return fmt.Sprintf("upload document: %v", e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

type ListError struct{ Err error }

func (e *ListError) Error() string { return fmt.Sprintf("list documents: %v", e.Err) }
func (e *ListError) Unwrap() error { return e.Err }

type DeleteError struct{ Err error }

func (e *DeleteError) Error() string { return fmt.Sprintf("delete document: %v", e.Err) }
func (e *DeleteError) Unwrap() error { return e.Err }

// UploadInput describes one document to upload. Size must be known up
// front so the 10 MiB limit is enforced without a round trip.
type UploadInput struct {
	File      io.Reader `validate:"required"`
	Filename  string
	SizeBytes int64
	Title     string `validate:"required"`
	UserID    string `validate:"required"`
	Language  string
}

// UploadResult mirrors the upload-document response.
type UploadResult struct {
	ItemID        string   `json:"item_id"`
	ChunksCount   int      `json:"chunks_count"`
	TextLength    int      `json:"text_length"`
	OCRConfidence *float64 `json:"ocr_confidence"`
}

// UpsertResult mirrors the embed-upsert response.
type UpsertResult struct {
	OK  bool     `json:"ok"`
	IDs []string `json:"ids"`
}

// DocumentGateway wraps the document lifecycle endpoints. List results are
// held in a short-lived cache, one read-mostly copy per screen visit; the
// server stays the source of truth.
type DocumentGateway struct {
	client   *Client
	cfg      config.UploadConfig
	validate *validator.Validate
	listTTL  *gocache.Cache
}

const listCacheTTL = 30 * time.Second

func NewDocumentGateway(client *Client, cfg config.UploadConfig) *DocumentGateway {
	return &DocumentGateway{
		client:   client,
		cfg:      cfg,
		validate: validator.New(),
		listTTL:  gocache.New(listCacheTTL, 5*time.Minute),
	}
}

// Upload sends one document for OCR and indexing. Preconditions (trimmed
// title, size limit, known language) are checked locally first; the server
// remains the ultimate enforcer. Not idempotent: repeated calls create
// duplicate documents.
func (g *DocumentGateway) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrEmptyTitle
	}
	if err := g.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid upload input: %w", err)
	}
	if in.SizeBytes > g.cfg.MaxFileBytes {
		return nil, ErrFileTooLarge
	}
	if in.Language != "" && !supportsLanguage(g.cfg.Languages, in.Language) {
		return nil, ErrUnsupportedLanguage
	}
	if in.Language == "" && len(g.cfg.Languages) > 0 {
		in.Language = g.cfg.Languages[0].Code
	}
	if in.Filename == "" {
		in.Filename = "document.jpg"
	}

	fields := map[string]string{
		"title":    in.Title,
		"user_id":  in.UserID,
		"language": in.Language,
	}

	var result UploadResult
	if err := g.client.doMultipart(ctx, "/upload-document", fields, "file", in.Filename, in.File, &result); err != nil {
		return nil, &UploadError{Err: err}
	}

	g.listTTL.Delete(in.UserID)
	return &result, nil
}

// EmbedUpsert indexes already-extracted text under an item id, bypassing
// the OCR path. The server chunks the text and returns the chunk ids.
func (g *DocumentGateway) EmbedUpsert(ctx context.Context, userID, itemID, title, text string) (*UpsertResult, error) {
	payload := struct {
		UserID string `json:"user_id"`
		ItemID string `json:"item_id"`
		Title  string `json:"title"`
		Text   string `json:"text"`
	}{userID, itemID, title, text}

	var result UpsertResult
	if err := g.client.doJSON(ctx, "POST", "/embed-upsert", payload, &result); err != nil {
		return nil, &UploadError{Err: err}
	}

	g.listTTL.Delete(userID)
	return &result, nil
}

type documentsResponse struct {
	Documents []struct {
		ItemID        string   `json:"item_id"`
		Title         string   `json:"title"`
		UploadDate    string   `json:"upload_date"`
		CreatedAt     string   `json:"created_at"`
		FileType      string   `json:"file_type"`
		TextLength    int64    `json:"text_length"`
		ChunksCount   int      `json:"chunks_count"`
		TextPreview   string   `json:"text_preview"`
		OCRConfidence *float64 `json:"ocr_confidence"`
	} `json:"documents"`
}

// List fetches the user's documents, preserving server order (assumed
// reverse-chronological, never re-derived client-side).
func (g *DocumentGateway) List(ctx context.Context, userID string) ([]store.DocumentRecord, error) {
	var resp documentsResponse
	if err := g.client.doJSON(ctx, "GET", "/documents/"+userID, nil, &resp); err != nil {
		return nil, &ListError{Err: err}
	}

	records := make([]store.DocumentRecord, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		rec := store.DocumentRecord{
			ID:              d.ItemID,
			Title:           d.Title,
			Mime:            mimeClassOf(d.FileType),
			ApproxSizeBytes: d.TextLength,
			ChunkCount:      d.ChunksCount,
			TextPreview:     d.TextPreview,
			OCRConfidence:   d.OCRConfidence,
		}
		if rec.Title == "" {
			rec.Title = store.UntitledDocument
		}
		rec.UploadedAt = parseUploadTime(d.UploadDate, d.CreatedAt)
		records = append(records, rec)
	}

	g.listTTL.Set(userID, records, gocache.DefaultExpiration)
	return records, nil
}

// ListCached returns the cached document list for the user when a recent
// one exists, falling back to a live List call.
func (g *DocumentGateway) ListCached(ctx context.Context, userID string) ([]store.DocumentRecord, error) {
	if x, found := g.listTTL.Get(userID); found {
		return x.([]store.DocumentRecord), nil
	}
	return g.List(ctx, userID)
}

// Delete removes one document and its chunks. Deleting a missing item is
// surfaced as an error, not silently ignored.
func (g *DocumentGateway) Delete(ctx context.Context, userID, itemID string) error {
	if err := g.client.doJSON(ctx, "DELETE", "/documents/"+userID+"/"+itemID, nil, nil); err != nil {
		return &DeleteError{Err: err}
	}
	g.listTTL.Delete(userID)
	return nil
}

func supportsLanguage(langs []config.OCRLanguage, code string) bool {
	for _, l := range langs {
		if l.Code == code {
			return true
		}
	}
	return false
}

func mimeClassOf(fileType string) store.MimeClass {
	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "pdf", "application/pdf":
		return store.MimePDF
	case "jpg", "jpeg", "png", "heic", "image/jpeg", "image/png":
		return store.MimeImage
	default:
		return store.MimeUnknown
	}
}

// parseUploadTime accepts either upload_date or created_at, in RFC3339 or
// a bare date. Unparseable values decode to the zero time rather than
// failing the list call.
func parseUploadTime(uploadDate, createdAt string) time.Time {
	raw := uploadDate
	if raw == "" {
		raw = createdAt
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
