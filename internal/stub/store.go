package stub

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const chunkSize = 400 // characters, whitespace-aligned

type chunk struct {
	ID        string
	UserID    string
	ItemID    string
	Title     string
	Text      string
	FileType  string
	CreatedAt time.Time
}

// Store is the in-memory index behind the dev stub. Insertion order is
// kept so document listings can be derived without a real database.
type Store struct {
	mu     sync.RWMutex
	chunks []chunk
}

func NewStore() *Store {
	return &Store{}
}

// AddDocument chunks the extracted text and indexes it under a fresh item
// id. Returns the item id and the ids of the created chunks.
func (s *Store) AddDocument(userID, title, fileType, text string) (string, []string) {
	itemID := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	return itemID, s.indexLocked(userID, itemID, title, fileType, text)
}

// Upsert indexes pre-extracted text under a caller-chosen item id,
// replacing any chunks already stored for it. Purge and re-index happen
// under one lock so concurrent upserts of the same item cannot leave
// duplicate chunks.
func (s *Store) Upsert(userID, itemID, title, text string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if !(c.UserID == userID && c.ItemID == itemID) {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return s.indexLocked(userID, itemID, title, "text", text)
}

// indexLocked assumes s.mu is held by the caller.
func (s *Store) indexLocked(userID, itemID, title, fileType, text string) []string {
	now := time.Now().UTC()
	var ids []string

	for i, part := range splitChunks(text) {
		c := chunk{
			ID:        fmt.Sprintf("%s-%d", itemID, i),
			UserID:    userID,
			ItemID:    itemID,
			Title:     title,
			Text:      part,
			FileType:  fileType,
			CreatedAt: now,
		}
		s.chunks = append(s.chunks, c)
		ids = append(ids, c.ID)
	}
	return ids
}

// Match is one scored hit with the metadata shape the real backend emits.
type Match struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Query scores the user's chunks by token overlap with the query and
// returns the topK best, descending.
func (s *Store) Query(userID, query string, topK int) []Match {
	queryTokens := tokenize(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Match
	for _, c := range s.chunks {
		if c.UserID != userID {
			continue
		}
		matches = append(matches, Match{
			ID:    c.ID,
			Score: overlapScore(queryTokens, tokenize(c.Text)),
			Metadata: map[string]interface{}{
				"chunk_text": c.Text,
				"title":      c.Title,
				"user_id":    c.UserID,
				"item_id":    c.ItemID,
				"file_type":  c.FileType,
				"timestamp":  c.CreatedAt.Format(time.RFC3339),
			},
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Document is the aggregated per-item view for the listing endpoint.
type Document struct {
	ItemID      string  `json:"item_id"`
	Title       string  `json:"title"`
	UploadDate  string  `json:"upload_date"`
	FileType    string  `json:"file_type"`
	TextLength  int     `json:"text_length"`
	ChunksCount int     `json:"chunks_count"`
	TextPreview string  `json:"text_preview"`
	OCRConf     float64 `json:"ocr_confidence"`
}

// Documents groups the user's chunks by item, newest first.
func (s *Store) Documents(userID string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byItem := make(map[string]*Document)
	var order []string
	for _, c := range s.chunks {
		if c.UserID != userID {
			continue
		}
		doc, ok := byItem[c.ItemID]
		if !ok {
			doc = &Document{
				ItemID:      c.ItemID,
				Title:       c.Title,
				UploadDate:  c.CreatedAt.Format(time.RFC3339),
				FileType:    c.FileType,
				TextPreview: preview(c.Text),
				OCRConf:     stubOCRConfidence,
			}
			byItem[c.ItemID] = doc
			order = append(order, c.ItemID)
		}
		doc.ChunksCount++
		doc.TextLength += len(c.Text)
	}

	docs := make([]Document, 0, len(byItem))
	for _, id := range order {
		docs = append(docs, *byItem[id])
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadDate > docs[j].UploadDate
	})
	return docs
}

// Delete removes every chunk of the item. Reports whether anything was
// actually deleted.
func (s *Store) Delete(userID, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	deleted := false
	for _, c := range s.chunks {
		if c.UserID == userID && c.ItemID == itemID {
			deleted = true
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return deleted
}

const stubOCRConfidence = 0.92

func splitChunks(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var chunks []string
	for len(text) > chunkSize {
		cut := chunkSize
		if idx := strings.LastIndexAny(text[:chunkSize], " \n\t"); idx > 0 {
			cut = idx
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	chunks = append(chunks, text)
	return chunks
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(s)) {
		t = strings.Trim(t, ".,;:!?\"'()[]")
		if len(t) > 2 {
			tokens[t] = struct{}{}
		}
	}
	return tokens
}

func overlapScore(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for t := range query {
		if _, ok := doc[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

func preview(text string) string {
	const max = 200
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
