package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mediajel/apidocs/internal/db"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/llm"
	"github.com/mediajel/apidocs/internal/repository"
)

const (
	// historyTurns is how many stored turns are replayed to the model.
	historyTurns = 20
	// titleMaxRunes caps generated and fallback thread titles.
	titleMaxRunes = 60
)

type assistantService struct {
	pipeline *intelligence.Pipeline
	client   llm.ChatClient
	threads  repository.ThreadRepo
	messages repository.MessageRepo
	uow      db.UnitOfWork
	maxChars int
	observer UseCaseObserver
	now      func() time.Time
}

// NewAssistantService wires the assistant. A nil client leaves the assistant
// unavailable: classification still works, Ask fails with
// ErrAssistantUnavailable.
func NewAssistantService(
	pipeline *intelligence.Pipeline,
	client llm.ChatClient,
	threads repository.ThreadRepo,
	messages repository.MessageRepo,
	uow db.UnitOfWork,
	maxChars int,
	observers ...UseCaseObserver,
) AssistantService {
	return &assistantService{
		pipeline: pipeline,
		client:   client,
		threads:  threads,
		messages: messages,
		uow:      uow,
		maxChars: maxChars,
		observer: combineObservers(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// turn is one prepared question, ready for the model.
type turn struct {
	threadID string
	question string
	qc       intelligence.QuestionContext
	req      llm.ChatRequest
}

func (s *assistantService) ResolveThread(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		_, err := s.threads.GetByID(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
	} else {
		id = uuid.New().String()
	}

	now := s.now()
	if err := s.threads.Create(ctx, &domain.ChatThread{ID: id, CreatedAt: now, UpdatedAt: now}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *assistantService) Ask(ctx context.Context, req AskRequest) (res *AskResult, err error) {
	fields := map[string]any{"streamed": false}
	done := track(ctx, s.observer, "assistant.ask", fields)
	defer func() { done(err) }()

	t, err := s.prepare(ctx, req, fields)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Chat(ctx, t.req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}
	if err := s.persist(ctx, t, resp.Text); err != nil {
		return nil, err
	}
	s.ensureTitle(ctx, t.threadID, t.question)

	return t.result(resp), nil
}

// AskStream forwards answer deltas to fn. The terminal Done event is held
// back until the turn is stored, so a client that sees Done can rely on the
// thread containing it. Every failure other than fn's own is delivered to fn
// as a final Err event as well as returned.
func (s *assistantService) AskStream(ctx context.Context, req AskRequest, fn llm.StreamHandler) (res *AskResult, err error) {
	fields := map[string]any{"streamed": true}
	done := track(ctx, s.observer, "assistant.ask", fields)
	defer func() { done(err) }()

	var aborted error
	fail := func(err error) error {
		if aborted == nil {
			_ = fn(llm.StreamEvent{Err: err})
		}
		return err
	}

	t, err := s.prepare(ctx, req, fields)
	if err != nil {
		return nil, fail(err)
	}

	resp, err := s.client.Stream(ctx, t.req, func(ev llm.StreamEvent) error {
		if ev.Err != nil || ev.Done {
			return nil
		}
		if herr := fn(ev); herr != nil {
			aborted = herr
			return herr
		}
		return nil
	})
	if aborted != nil {
		return nil, aborted
	}
	if err != nil {
		return nil, fail(fmt.Errorf("%w: %w", ErrAssistantUnavailable, err))
	}

	if err := s.persist(ctx, t, resp.Text); err != nil {
		return nil, fail(err)
	}
	if err := fn(llm.StreamEvent{Done: true}); err != nil {
		return nil, err
	}
	s.ensureTitle(ctx, t.threadID, t.question)

	return t.result(resp), nil
}

func (s *assistantService) prepare(ctx context.Context, req AskRequest, fields map[string]any) (*turn, error) {
	if len(req.Messages) == 0 {
		return nil, ErrEmptyConversation
	}
	last := req.Messages[len(req.Messages)-1]
	question := strings.TrimSpace(last.Content)
	if last.Role != domain.RoleUser || question == "" {
		return nil, ErrEmptyConversation
	}
	if s.client == nil {
		return nil, fmt.Errorf("%w: no model configured", ErrAssistantUnavailable)
	}

	threadID, err := s.ResolveThread(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}
	fields["thread_id"] = threadID

	history, err := s.history(ctx, threadID, req.Messages[:len(req.Messages)-1])
	if err != nil {
		return nil, err
	}

	qc := s.pipeline.Run(question, intelligence.ContextOptions{
		MaxChars:        s.maxChars,
		IncludeExamples: intelligence.Bool(true),
		IncludeTypes:    intelligence.Bool(true),
		IncludeGlossary: intelligence.Bool(true),
	})
	fields["intent"] = string(qc.Classification.Intent)
	fields["confidence"] = qc.Classification.Confidence
	fields["rule"] = qc.Classification.Rule
	fields["context_chars"] = qc.Context.CharacterCount
	fields["truncated"] = qc.Context.WasTruncated

	cat := s.pipeline.Catalog()
	messages := append(history, llm.Message{
		Role:    domain.RoleUser,
		Content: question + operationHint(qc.Classification),
	})

	return &turn{
		threadID: threadID,
		question: question,
		qc:       qc,
		req: llm.ChatRequest{
			Task:         llm.TaskChat,
			System:       BuildSystemPrompt(cat.Config(), cat.ListOperations()),
			Instructions: qc.Instructions,
			Messages:     messages,
		},
	}, nil
}

// history prefers the stored thread. Client-supplied turns are only used to
// seed a thread that has none yet.
func (s *assistantService) history(ctx context.Context, threadID string, prior []llm.Message) ([]llm.Message, error) {
	stored, err := s.messages.ListRecent(ctx, threadID, historyTurns)
	if err != nil {
		return nil, err
	}

	var out []llm.Message
	if len(stored) > 0 {
		for _, m := range stored {
			out = append(out, llm.Message{Role: m.Role, Content: m.Content})
		}
		return out, nil
	}

	if len(prior) > historyTurns {
		prior = prior[len(prior)-historyTurns:]
	}
	for _, m := range prior {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// operationHint points the model at the suggested operations for questions
// that map onto the schema.
func operationHint(c intelligence.ClassifiedIntent) string {
	if c.Intent != domain.IntentHybrid && c.Intent != domain.IntentSchemaQuery {
		return ""
	}
	if len(c.SuggestedOperations) == 0 {
		return ""
	}
	return "\n\n[Relevant operations: " + strings.Join(c.SuggestedOperations, ", ") + "]"
}

func (s *assistantService) persist(ctx context.Context, t *turn, answer string) error {
	now := s.now()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txMessages := repository.NewSQLiteMessageRepo(tx)
		txThreads := repository.NewSQLiteThreadRepo(tx)

		if err := txMessages.Append(ctx, &domain.ChatMessage{
			ThreadID:   t.threadID,
			Role:       domain.RoleUser,
			Content:    t.question,
			Intent:     t.qc.Classification.Intent,
			Confidence: t.qc.Classification.Confidence,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		if err := txMessages.Append(ctx, &domain.ChatMessage{
			ThreadID:  t.threadID,
			Role:      domain.RoleAssistant,
			Content:   answer,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return txThreads.Touch(ctx, t.threadID, now)
	})
}

type titleReply struct {
	Title string `json:"title"`
}

// ensureTitle names an untitled thread after its first question. Titling is
// best effort and never fails the turn.
func (s *assistantService) ensureTitle(ctx context.Context, threadID, question string) {
	th, err := s.threads.GetByID(ctx, threadID)
	if err != nil || th.Title != "" {
		return
	}

	title := truncateRunes(question, titleMaxRunes)
	resp, err := s.client.Chat(ctx, llm.ChatRequest{
		Task:   llm.TaskTitle,
		System: `Summarize the user's question as a short conversation title. Reply with JSON only: {"title": "..."}`,
		Messages: []llm.Message{
			{Role: domain.RoleUser, Content: question},
		},
	})
	if err == nil {
		reply, perr := llm.ExtractJSON(resp.Text, func(r titleReply) error {
			if strings.TrimSpace(r.Title) == "" {
				return errors.New("empty title")
			}
			return nil
		})
		if perr == nil {
			title = truncateRunes(strings.TrimSpace(reply.Title), titleMaxRunes)
		}
	}

	_ = s.threads.UpdateTitle(ctx, threadID, title)
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n]))
}

func (t *turn) result(resp *llm.ChatResponse) *AskResult {
	return &AskResult{
		ThreadID:       t.threadID,
		Answer:         resp.Text,
		Model:          resp.Model,
		Classification: t.qc.Classification,
		Context:        t.qc.Context,
	}
}

func (s *assistantService) Threads(ctx context.Context, limit int) ([]*domain.ChatThread, error) {
	return s.threads.List(ctx, limit)
}

func (s *assistantService) Messages(ctx context.Context, threadID string) ([]*domain.ChatMessage, error) {
	if _, err := s.threads.GetByID(ctx, threadID); err != nil {
		return nil, err
	}
	return s.messages.ListByThread(ctx, threadID)
}

func (s *assistantService) DeleteThread(ctx context.Context, threadID string) error {
	return s.threads.Delete(ctx, threadID)
}

func (s *assistantService) Configured() bool { return s.client != nil }

func (s *assistantService) Available(ctx context.Context) bool {
	return s.client != nil && s.client.Available(ctx)
}
