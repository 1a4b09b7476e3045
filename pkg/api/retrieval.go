package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/N1c0zz/NeuraMind/pkg/store"
)

// DefaultTopK bounds the number of matches requested when the caller does
// not pick one.
const DefaultTopK = 5

// RetrievalGateway wraps the semantic query and answer generation endpoints.
type RetrievalGateway struct {
	client *Client
}

func NewRetrievalGateway(client *Client) *RetrievalGateway {
	return &RetrievalGateway{client: client}
}

type queryRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	TopK   int    `json:"top_k"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                 `json:"id"`
		Score    looseScore             `json:"score"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"matches"`
}

// looseScore decodes a score that may be absent, null, or not a number.
// Anything non-numeric becomes 0 so a single malformed match cannot fail
// the whole query.
type looseScore float64

func (s *looseScore) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*s = 0
		return nil
	}
	*s = looseScore(v)
	return nil
}

type answerRequest struct {
	Query    string          `json:"query"`
	Contexts []store.Context `json:"contexts"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

// Query runs a semantic search over the user's indexed chunks. Match order
// is preserved exactly as returned by the server; the client never
// re-sorts. A missing or non-numeric score decodes to 0 at this boundary.
func (g *RetrievalGateway) Query(ctx context.Context, userID, text string, topK int) ([]store.Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	var resp queryResponse
	err := g.client.doJSON(ctx, "POST", "/query", queryRequest{
		UserID: userID,
		Query:  text,
		TopK:   topK,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	matches := make([]store.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, store.Match{
			ID:       m.ID,
			Score:    float64(m.Score),
			Metadata: m.Metadata,
		})
	}
	return matches, nil
}

// GenerateAnswer asks the backend to synthesize an answer from the given
// contexts. An empty context list is valid; the server answers in a
// "no information available" style by its own policy.
func (g *RetrievalGateway) GenerateAnswer(ctx context.Context, question string, contexts []store.Context) (string, error) {
	if contexts == nil {
		contexts = []store.Context{}
	}

	var resp answerResponse
	err := g.client.doJSON(ctx, "POST", "/answer", answerRequest{
		Query:    question,
		Contexts: contexts,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return resp.Answer, nil
}
