package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrievalQueryDecoding(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Write([]byte(`{"matches":[
			{"id":"c1","score":0.92,"metadata":{"chunk_text":"Paris is the capital","title":"Doc1"}},
			{"id":"c2","metadata":{"text":"Berlin"}},
			{"id":"c3","score":0.11,"metadata":null}
		]}`))
	}))
	defer srv.Close()

	g := NewRetrievalGateway(NewClient(testAPIConfig(srv.URL), nil))
	matches, err := g.Query(context.Background(), "user-1", "capital of France", 0)
	require.NoError(t, err)

	assert.Equal(t, "user-1", gotBody["user_id"])
	assert.Equal(t, "capital of France", gotBody["query"])
	assert.EqualValues(t, DefaultTopK, gotBody["top_k"], "zero topK falls back to the default")

	require.Len(t, matches, 3)
	// Server order preserved verbatim.
	assert.Equal(t, "c1", matches[0].ID)
	assert.Equal(t, 0.92, matches[0].Score)
	assert.Equal(t, "Paris is the capital", matches[0].Metadata["chunk_text"])
	// Missing score decodes to 0 at the boundary.
	assert.Zero(t, matches[1].Score)
	assert.Nil(t, matches[2].Metadata)
}

func TestRetrievalQueryNonNumericScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"matches":[
			{"id":"c1","score":"high","metadata":{"chunk_text":"A"}},
			{"id":"c2","score":null,"metadata":{"chunk_text":"B"}},
			{"id":"c3","score":0.5,"metadata":{"chunk_text":"C"}}
		]}`))
	}))
	defer srv.Close()

	g := NewRetrievalGateway(NewClient(testAPIConfig(srv.URL), nil))
	matches, err := g.Query(context.Background(), "user-1", "anything", 3)
	require.NoError(t, err, "a malformed score must degrade the match, not fail the query")

	require.Len(t, matches, 3)
	assert.Zero(t, matches[0].Score)
	assert.Zero(t, matches[1].Score)
	assert.Equal(t, 0.5, matches[2].Score)
}

func TestRetrievalQueryPropagatesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewRetrievalGateway(NewClient(testAPIConfig(srv.URL), nil))
	_, err := g.Query(context.Background(), "user-1", "anything", 5)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestGenerateAnswerEmptyContexts(t *testing.T) {
	var gotBody struct {
		Query    string                   `json:"query"`
		Contexts []map[string]interface{} `json:"contexts"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/answer", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Write([]byte(`{"answer":"No information available."}`))
	}))
	defer srv.Close()

	g := NewRetrievalGateway(NewClient(testAPIConfig(srv.URL), nil))
	answer, err := g.GenerateAnswer(context.Background(), "anything", nil)
	require.NoError(t, err)

	assert.Equal(t, "No information available.", answer)
	// nil contexts are sent as an empty array, not omitted.
	assert.NotNil(t, gotBody.Contexts)
	assert.Empty(t, gotBody.Contexts)
}
