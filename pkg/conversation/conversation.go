package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/N1c0zz/NeuraMind/internal/constant"
	"github.com/N1c0zz/NeuraMind/internal/pkg/logger"
	"github.com/N1c0zz/NeuraMind/pkg/ask"
	"github.com/N1c0zz/NeuraMind/pkg/store"
)

type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

type Status string

const (
	StatusFinal   Status = "final"
	StatusPending Status = "pending"
	StatusErrored Status = "errored"
)

// Message is one transcript entry. Sources are present only on final
// assistant messages whose ask returned matches.
type Message struct {
	ID        uuid.UUID
	Text      string
	Origin    Origin
	CreatedAt time.Time
	Status    Status
	Sources   []store.Match
}

// Asker is the slice of the orchestrator the conversation needs.
type Asker interface {
	AskQuestion(ctx context.Context, userID, question string, topK int) (*ask.Result, error)
}

// Conversation is an ordered, in-memory transcript driving one chat
// surface. It is never persisted. At most one ask is in flight at a time;
// the busy flag is checked and set under the lock so the invariant holds
// even under programmatic misuse, not just disabled input controls.
type Conversation struct {
	ID     uuid.UUID
	UserID string

	mu       sync.Mutex
	messages []Message
	busy     bool

	asker  Asker
	topK   int
	logger logger.ILogger
}

func New(asker Asker, userID string, log logger.ILogger) *Conversation {
	if log == nil {
		log = logger.Nop{}
	}
	c := &Conversation{
		ID:     uuid.New(),
		UserID: userID,
		asker:  asker,
		topK:   0, // the retrieval gateway applies its default
		logger: log,
	}
	c.messages = append(c.messages, Message{
		ID:        uuid.New(),
		Text:      constant.MessageGreeting,
		Origin:    OriginAssistant,
		CreatedAt: time.Now(),
		Status:    StatusFinal,
	})
	return c
}

// Submit records a user question and dispatches the ask asynchronously.
// Whitespace-only text and submits while an ask is in flight are no-ops:
// the transcript is left untouched and the returned channel is nil. On
// success the channel delivers the resolved assistant message (final or
// errored) exactly once, then closes.
func (c *Conversation) Submit(ctx context.Context, text string) (<-chan Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, false
	}
	c.busy = true

	now := time.Now()
	c.messages = append(c.messages,
		Message{
			ID:        uuid.New(),
			Text:      text,
			Origin:    OriginUser,
			CreatedAt: now,
			Status:    StatusFinal,
		},
		Message{
			ID:        uuid.New(),
			Text:      constant.MessageThinking,
			Origin:    OriginAssistant,
			CreatedAt: now,
			Status:    StatusPending,
		},
	)
	c.mu.Unlock()

	done := make(chan Message, 1)
	go c.resolve(ctx, text, done)
	return done, true
}

// resolve runs the ask to completion and replaces the pending placeholder.
// The pending message is always removed before the channel is closed,
// never left dangling.
func (c *Conversation) resolve(ctx context.Context, question string, done chan<- Message) {
	result, err := c.asker.AskQuestion(ctx, c.UserID, question, c.topK)

	reply := Message{
		ID:        uuid.New(),
		Origin:    OriginAssistant,
		CreatedAt: time.Now(),
	}
	if err != nil {
		// The cause stays in the logs; the transcript shows a generic
		// apology only.
		c.logger.Error("conversation", "ask failed", map[string]interface{}{
			"conversation_id": c.ID.String(),
			"error":           err.Error(),
		})
		reply.Text = constant.MessageAskError
		reply.Status = StatusErrored
	} else {
		reply.Text = result.Answer
		reply.Status = StatusFinal
		reply.Sources = result.Sources
	}

	c.mu.Lock()
	c.removePendingLocked()
	c.messages = append(c.messages, reply)
	c.busy = false
	c.mu.Unlock()

	done <- reply
	close(done)
}

func (c *Conversation) removePendingLocked() {
	kept := c.messages[:0]
	for _, m := range c.messages {
		if m.Status != StatusPending {
			kept = append(kept, m)
		}
	}
	c.messages = kept
}

// Messages returns a copy of the transcript in append order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Busy reports whether an ask is currently in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}
