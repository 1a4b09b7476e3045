package stub

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key"

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-API-Key", testKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func uploadText(t *testing.T, s *Server, userID, title, filename, text string) string {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("user_id", userID))
	require.NoError(t, w.WriteField("language", "ita+eng"))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(text))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload-document", &buf)
	req.Header.Set("X-API-Key", testKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		ItemID      string `json:"item_id"`
		ChunksCount int    `json:"chunks_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotEmpty(t, decoded.ItemID)
	require.Greater(t, decoded.ChunksCount, 0)
	return decoded.ItemID
}

func TestRequiresAPIKey(t *testing.T) {
	s := NewServer(testKey)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/user-1", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := NewServer(testKey)
	resp, body := doJSON(t, s, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}

func TestUploadQueryAnswerFlow(t *testing.T) {
	s := NewServer(testKey)
	uploadText(t, s, "user-1", "Geography", "notes.pdf",
		"Paris is the capital of France. Berlin is the capital of Germany.")

	resp, body := doJSON(t, s, http.MethodPost, "/v1/query", map[string]interface{}{
		"user_id": "user-1",
		"query":   "capital of France Paris",
		"top_k":   5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	matches := body["matches"].([]interface{})
	require.NotEmpty(t, matches)
	first := matches[0].(map[string]interface{})
	meta := first["metadata"].(map[string]interface{})
	assert.Equal(t, "Geography", meta["title"])
	assert.Contains(t, meta["chunk_text"], "Paris")
	assert.Greater(t, first["score"].(float64), 0.0)

	resp, body = doJSON(t, s, http.MethodPost, "/v1/answer", map[string]interface{}{
		"query": "capital of France",
		"contexts": []map[string]interface{}{
			{"text": "Paris is the capital of France.", "title": "Geography", "score": 0.9},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["answer"], "Geography")

	// Empty contexts get a "no information" style answer, not an error.
	resp, body = doJSON(t, s, http.MethodPost, "/v1/answer", map[string]interface{}{
		"query":    "anything",
		"contexts": []map[string]interface{}{},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["answer"], "don't have any information")
}

func TestListAndDelete(t *testing.T) {
	s := NewServer(testKey)
	itemID := uploadText(t, s, "user-1", "Receipts", "r.jpg", "Coffee 3.50 Bread 2.20")
	uploadText(t, s, "user-2", "Other", "o.jpg", "unrelated")

	resp, body := doJSON(t, s, http.MethodGet, "/v1/documents/user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	docs := body["documents"].([]interface{})
	require.Len(t, docs, 1, "listing is scoped to the user")
	doc := docs[0].(map[string]interface{})
	assert.Equal(t, itemID, doc["item_id"])
	assert.Equal(t, "Receipts", doc["title"])

	resp, _ = doJSON(t, s, http.MethodDelete, "/v1/documents/user-1/"+itemID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Second delete of the same item surfaces 404.
	resp, _ = doJSON(t, s, http.MethodDelete, "/v1/documents/user-1/"+itemID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, s, http.MethodGet, "/v1/documents/user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["documents"])
}

func TestUploadValidation(t *testing.T) {
	s := NewServer(testKey)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "   "))
	require.NoError(t, w.WriteField("user_id", "user-1"))
	part, err := w.CreateFormFile("file", "x.jpg")
	require.NoError(t, err)
	part.Write([]byte("data"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload-document", &buf)
	req.Header.Set("X-API-Key", testKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestStoreUpsertConcurrentSameItem(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Upsert("user-1", "item-1", "Doc", "the quick brown fox")
		}()
	}
	wg.Wait()

	docs := store.Documents("user-1")
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].ChunksCount, "replacement must not leave duplicate chunks")
}

func TestSplitChunks(t *testing.T) {
	assert.Nil(t, splitChunks("   "))

	long := strings.Repeat("word ", 300) // ~1500 chars
	chunks := splitChunks(long)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), chunkSize)
		assert.NotEmpty(t, c)
	}
}
