package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/service/governor"
	"github.com/sandevgo/svim/internal/service/memory"
	"github.com/sandevgo/svim/pkg/log"
	"github.com/sandevgo/svim/pkg/tokens"
)

// RateLimitReply is returned as the turn reply when the model provider rejects the request with 429.
const RateLimitReply = "Tive um pico de carga agora 😥 Pode tentar novamente em alguns instantes?"

const (
	contextHeader   = "Contexto recente do cliente:\n"
	sessionStatus   = "open"
	unknownIdentity = "unknown"
)

type ContextRetriever interface {
	GetContext(ctx context.Context, q memory.ContextQuery) ([]core.ContextMessage, error)
}

type ConversationStore interface {
	Insert(ctx context.Context, records []core.ConversationRecord) error
}

type Options struct {
	RecentK         int
	SemanticK       int
	ContextMaxChars int
	StoreMaxChars   int
	MaxSteps        int
	Profile         Profile
}

// Agent runs one conversational turn: retrieve context, run the governed tool loop, persist.
// Retriever, Store and Log are optional.
type Agent struct {
	executor  *Executor
	tools     []core.Invokable
	governor  *governor.Governor
	prompt    *Prompt
	retriever ContextRetriever
	store     ConversationStore
	log       core.InteractionLog
	opts      Options
	now       func() time.Time
}

type Deps struct {
	AI        core.AIProvider
	Tools     []core.Invokable
	Governor  *governor.Governor
	Prompt    *Prompt
	Retriever ContextRetriever
	Store     ConversationStore
	Log       core.InteractionLog
}

func NewAgent(deps Deps, opts Options) (*Agent, error) {
	if deps.AI == nil {
		return nil, fmt.Errorf("agent requires an ai provider")
	}
	if deps.Governor == nil {
		deps.Governor = governor.New(governor.DefaultMaxCalls)
	}
	if deps.Prompt == nil {
		p, err := NewPrompt("")
		if err != nil {
			return nil, err
		}
		deps.Prompt = p
	}

	return &Agent{
		executor:  NewExecutor(deps.AI, opts.MaxSteps),
		tools:     deps.Tools,
		governor:  deps.Governor,
		prompt:    deps.Prompt,
		retriever: deps.Retriever,
		store:     deps.Store,
		log:       deps.Log,
		opts:      opts,
		now:       time.Now,
	}, nil
}

// Turn is one incoming customer message. History carries messages of the ongoing exchange
// that the caller already holds; only user and assistant entries are forwarded.
type Turn struct {
	Message   string
	ClientID  string
	SessionID string
	History   []core.Message
}

type TranscriptEntry struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type Result struct {
	Reply     string            `json:"reply"`
	Messages  []TranscriptEntry `json:"messages,omitempty"`
	History   string            `json:"history,omitempty"`
	ClientID  string            `json:"clienteId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	// RateLimited marks the fallback reply served when the model provider returned 429.
	RateLimited bool `json:"-"`
}

func (a *Agent) Run(ctx context.Context, turn Turn) (Result, error) {
	message := strings.TrimSpace(turn.Message)
	if message == "" {
		return Result{}, fmt.Errorf("empty message")
	}

	clientID := strings.TrimSpace(turn.ClientID)
	sessionID := strings.TrimSpace(turn.SessionID)
	userID := clientID
	if !core.IsValidID(userID) {
		userID = core.AnonymousID
	}

	thread := core.ResolveThreadID(sessionID, clientID)
	ctx = log.FromCtx(ctx).With().Str("thread", thread).Logger().WithContext(ctx)
	logger := log.FromCtx(ctx)

	a.governor.Reset(thread)
	defer a.governor.Reset(thread)

	history := a.loadContext(ctx, sessionID, userID, message)
	messages, err := a.buildMessages(turn, userID, history, message)
	if err != nil {
		return Result{}, err
	}

	if logger.Debug().Enabled() {
		texts := make([]string, len(messages))
		for i, m := range messages {
			texts[i] = m.Content
		}
		logger.Debug().Int("messages", len(messages)).Int("prompt_tokens", tokens.CountAll(texts...)).Msg("prompt assembled")
	}

	transcript, err := a.executor.Run(ctx, messages, a.governor.WrapAll(thread, a.tools))
	if err != nil {
		if errors.Is(err, core.ErrRateLimited) {
			logger.Warn().Err(err).Msg("model provider rate limited, sending fallback reply")
			return Result{Reply: RateLimitReply, RateLimited: true}, nil
		}
		return Result{}, err
	}

	produced := transcript[len(messages):]
	result := Result{
		Reply:     lastAssistantReply(produced),
		Messages:  entries(transcript),
		History:   history,
		ClientID:  userID,
		SessionID: sessionID,
	}

	a.persist(ctx, userID, sessionID, message, produced)
	a.logInteraction(ctx, clientID, sessionID, message, result)

	return result, nil
}

func (a *Agent) loadContext(ctx context.Context, sessionID, userID, query string) string {
	if a.retriever == nil {
		return ""
	}

	msgs, err := a.retriever.GetContext(ctx, memory.ContextQuery{
		SessionID: sessionID,
		UserID:    userID,
		Query:     query,
		RecentK:   a.opts.RecentK,
		SemanticK: a.opts.SemanticK,
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("error loading context")
		return ""
	}

	log.FromCtx(ctx).Info().Int("count", len(msgs)).Msg("loaded context messages")
	return memory.Truncate(memory.FormatContext(msgs), a.opts.ContextMaxChars)
}

func (a *Agent) buildMessages(turn Turn, userID, history, message string) ([]core.Message, error) {
	profile := a.opts.Profile
	profile.ClientID = userID

	instructions, err := a.prompt.Render(profile, a.now())
	if err != nil {
		return nil, err
	}

	messages := []core.Message{{Role: core.RoleSystem, Content: instructions}}
	if history != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: contextHeader + history})
	}
	messages = append(messages, conversationMessages(turn.History)...)
	messages = append(messages, core.Message{Role: core.RoleUser, Content: message})
	return messages, nil
}

// conversationMessages keeps user and assistant messages with content. Tool calls are dropped:
// their results are not part of the forwarded history.
func conversationMessages(history []core.Message) []core.Message {
	var out []core.Message
	for _, m := range history {
		if m.Role != core.RoleUser && m.Role != core.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, core.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func lastAssistantReply(messages []core.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == core.RoleAssistant && strings.TrimSpace(messages[i].Content) != "" {
			return messages[i].Content
		}
	}
	return ""
}

func entries(messages []core.Message) []TranscriptEntry {
	out := make([]TranscriptEntry, 0, len(messages))
	for _, m := range messages {
		out = append(out, TranscriptEntry{Type: m.Role, Content: m.Content})
	}
	return out
}

// persist stores the user message and the assistant replies of this turn. Failures are logged.
func (a *Agent) persist(ctx context.Context, userID, sessionID, message string, produced []core.Message) {
	if a.store == nil {
		return
	}

	records := []core.ConversationRecord{{
		Role:      core.RoleUser,
		Content:   memory.Truncate(message, a.opts.StoreMaxChars),
		UserID:    userID,
		SessionID: sessionID,
	}}
	for _, m := range produced {
		if m.Role != core.RoleAssistant || strings.TrimSpace(m.Content) == "" {
			continue
		}
		records = append(records, core.ConversationRecord{
			Role:      core.RoleAssistant,
			Content:   memory.Truncate(m.Content, a.opts.StoreMaxChars),
			UserID:    userID,
			SessionID: sessionID,
		})
	}

	if err := a.store.Insert(ctx, records); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("error saving context")
		return
	}
	log.FromCtx(ctx).Info().Int("count", len(records)).Msg("stored conversation messages")
}

func (a *Agent) logInteraction(ctx context.Context, clientID, sessionID, message string, result Result) {
	if a.log == nil {
		return
	}
	logger := log.FromCtx(ctx)

	userIdentifier := clientID
	if userIdentifier == "" {
		userIdentifier = unknownIdentity
	}
	session := sessionID
	if session == "" {
		session = unknownIdentity
	}

	if err := a.log.UpsertSession(ctx, userIdentifier, session, sessionStatus); err != nil {
		logger.Error().Err(err).Msg("db log error: upsert session")
		return
	}

	entry := core.Interaction{
		UserID:    clientID,
		SessionID: sessionID,
		Request: map[string]any{
			"message":   message,
			"clienteId": clientID,
			"sessionId": sessionID,
		},
		Response: result,
	}
	if err := a.log.LogInteraction(ctx, entry); err != nil {
		logger.Error().Err(err).Msg("db log error: log interaction")
	}
}
