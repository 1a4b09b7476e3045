package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/N1c0zz/NeuraMind/internal/pkg/logger"
	"github.com/N1c0zz/NeuraMind/pkg/store"
)

// Stage tags which half of the ask transaction failed.
type Stage string

const (
	StageRetrieval  Stage = "retrieval"
	StageGeneration Stage = "generation"
)

// ErrEmptyQuestion rejects whitespace-only questions before any network
// call is made.
var ErrEmptyQuestion = errors.New("question must not be empty")

// AskError is the unified failure of one ask transaction. The stage lets a
// caller distinguish "search itself failed" from "found context but
// generation failed".
type AskError struct {
	Stage Stage
	Err   error
}

func (e *AskError) Error() string { return fmt.Sprintf("ask question (%s): %v", e.Stage, e.Err) }
func (e *AskError) Unwrap() error { return e.Err }

// Retrieval is the slice of the backend the orchestrator needs: semantic
// query plus answer generation.
type Retrieval interface {
	Query(ctx context.Context, userID, text string, topK int) ([]store.Match, error)
	GenerateAnswer(ctx context.Context, question string, contexts []store.Context) (string, error)
}

// Result is one completed ask transaction. Sources carry the raw matches
// from the query stage, metadata untouched, so consumers can render titles
// and similarity scores even though generation only saw projected text.
type Result struct {
	Answer  string
	Sources []store.Match
}

// Orchestrator composes the retrieve-then-generate sequence into a single
// question-answering transaction. It is stateless and reentrant; callers
// that need an at-most-one-in-flight guarantee enforce it themselves (see
// pkg/conversation).
type Orchestrator struct {
	retrieval Retrieval
	logger    logger.ILogger
	tracer    trace.Tracer
}

func NewOrchestrator(retrieval Retrieval, log logger.ILogger) *Orchestrator {
	if log == nil {
		log = logger.Nop{}
	}
	return &Orchestrator{
		retrieval: retrieval,
		logger:    log,
		tracer:    otel.Tracer("neuramind/ask"),
	}
}

// AskQuestion runs the two-stage pipeline: semantic query, context
// projection, answer generation. The two stages stay separate remote calls
// so contexts can be inspected or filtered client-side before generation.
// Zero matches still reach the generation stage with an empty context list.
func (o *Orchestrator) AskQuestion(ctx context.Context, userID, question string, topK int) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	ctx, span := o.tracer.Start(ctx, "ask_question",
		trace.WithAttributes(attribute.Int("ask.top_k", topK)))
	defer span.End()

	matches, err := o.queryStage(ctx, userID, question, topK)
	if err != nil {
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, &AskError{Stage: StageRetrieval, Err: err}
	}

	contexts := make([]store.Context, 0, len(matches))
	for _, m := range matches {
		contexts = append(contexts, m.AsContext())
	}

	o.logger.Debug("ask", "contexts projected", map[string]interface{}{
		"matches": len(matches),
	})

	answer, err := o.generateStage(ctx, question, contexts)
	if err != nil {
		span.SetStatus(codes.Error, "generation failed")
		return nil, &AskError{Stage: StageGeneration, Err: err}
	}

	span.SetAttributes(attribute.Int("ask.sources", len(matches)))
	return &Result{Answer: answer, Sources: matches}, nil
}

func (o *Orchestrator) queryStage(ctx context.Context, userID, question string, topK int) ([]store.Match, error) {
	ctx, span := o.tracer.Start(ctx, "retrieval")
	defer span.End()

	matches, err := o.retrieval.Query(ctx, userID, question, topK)
	if err != nil {
		o.logger.Error("ask", "semantic query failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieval.matches", len(matches)))
	return matches, nil
}

func (o *Orchestrator) generateStage(ctx context.Context, question string, contexts []store.Context) (string, error) {
	ctx, span := o.tracer.Start(ctx, "generation",
		trace.WithAttributes(attribute.Int("generation.contexts", len(contexts))))
	defer span.End()

	answer, err := o.retrieval.GenerateAnswer(ctx, question, contexts)
	if err != nil {
		o.logger.Error("ask", "answer generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}
	return answer, nil
}
