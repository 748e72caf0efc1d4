package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/dhlee-dev/portfolio-api/internal/store/rabbitmq"
)

// askState tracks where an exchange is in its lifecycle. Rejected and
// Failed are terminal branches; everything else advances in order.
type askState int

const (
	stateIdle askState = iota
	stateAdmitting
	stateContextBuilding
	stateStreaming
	statePersisting
	stateCompleted
	stateRejected
	stateFailed
)

func (s askState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAdmitting:
		return "admitting"
	case stateContextBuilding:
		return "context_building"
	case stateStreaming:
		return "streaming"
	case statePersisting:
		return "persisting"
	case stateCompleted:
		return "completed"
	case stateRejected:
		return "rejected"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// Event is one item on the stream an Ask call produces. Zero or more chunk
// events arrive in provider order, then exactly one terminal event: Done
// with the remaining quota, or Err.
type Event struct {
	Chunk     string
	Done      bool
	Remaining int
	Err       error
}

type Service struct {
	repo      *Repo
	ledger    *Ledger
	contexts  *ContextProvider
	completer *Completer
	events    *rabbitmq.Publisher // nil disables publishing
}

func NewService(repo *Repo, contexts *ContextProvider, completer *Completer, events *rabbitmq.Publisher) *Service {
	return &Service{
		repo:      repo,
		ledger:    NewLedger(repo),
		contexts:  contexts,
		completer: completer,
		events:    events,
	}
}

// Ask runs one question/answer exchange for the visitor session.
//
// Quota rejection happens synchronously: ErrQuotaExceeded comes back before
// any channel exists and before any provider call. Once admitted, the
// returned channel emits chunk events as fragments arrive and always ends
// with a single terminal event. Persistence and the quota charge happen
// strictly after the stream has been fully observed, so the stored answer
// matches exactly what the caller was sent.
func (s *Service) Ask(ctx context.Context, sessionID, message string) (<-chan Event, error) {
	sess, err := s.repo.GetOrCreateSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Admitting
	if !s.ledger.CanAsk(sess) {
		return nil, ErrQuotaExceeded
	}

	ex := &exchange{
		svc:      s,
		sess:     sess,
		question: message,
		state:    stateAdmitting,
		out:      make(chan Event, 16),
	}
	go ex.run(ctx)
	return ex.out, nil
}

// History returns the session transcript oldest first plus remaining quota.
// An unknown session is an empty transcript, not an error.
func (s *Service) History(ctx context.Context, sessionID string) ([]Conversation, int, error) {
	sess, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, MaxQuestions, nil
		}
		return nil, 0, err
	}
	convs, err := s.repo.ListConversations(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	return convs, s.ledger.Remaining(sess), nil
}

type exchange struct {
	svc      *Service
	sess     *Session
	question string
	state    askState
	out      chan Event
}

func (e *exchange) to(next askState) {
	e.state = next
}

// emit forwards an event unless the caller has gone away.
func (e *exchange) emit(ctx context.Context, ev Event) bool {
	select {
	case e.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *exchange) fail(ctx context.Context, err error) {
	log.Printf("[chat] session=%s exchange failed in state=%s err=%v", e.sess.SessionID, e.state, err)
	e.to(stateFailed)
	e.emit(ctx, Event{Err: err})
}

func (e *exchange) run(ctx context.Context) {
	defer close(e.out)

	e.to(stateContextBuilding)
	start := time.Now()
	pctx := e.svc.contexts.BuildContext(ctx)

	// Streaming: forward fragments in order while accumulating the full
	// answer for persistence. A mid-stream provider failure surfaces as
	// apology text inside the stream, so from here on the exchange is a
	// completed answer either way.
	e.to(stateStreaming)
	var b strings.Builder
	for chunk := range e.svc.completer.Stream(ctx, e.question, pctx) {
		b.WriteString(chunk)
		if !e.emit(ctx, Event{Chunk: chunk}) {
			// client disconnected; drop the exchange without charging quota
			log.Printf("[chat] session=%s client gone in state=%s", e.sess.SessionID, e.state)
			return
		}
	}
	answer := b.String()
	latency := time.Since(start).Seconds()

	e.to(statePersisting)
	tokens := approxTokens(answer)
	conv := &Conversation{
		SessionID:    e.sess.SessionID,
		Question:     e.question,
		Answer:       answer,
		ResponseTime: &latency,
		TokensUsed:   &tokens,
	}
	if err := e.svc.repo.InsertConversation(ctx, conv); err != nil {
		// answer already reached the visitor but was not recorded; quota
		// is deliberately not charged for an unrecorded exchange
		e.fail(ctx, err)
		return
	}

	if err := e.svc.ledger.Increment(ctx, e.sess); err != nil {
		e.fail(ctx, err)
		return
	}

	if err := e.svc.events.PublishExchange(ctx, rabbitmq.ExchangeEvent{
		SessionID:    e.sess.SessionID,
		ResponseTime: conv.ResponseTime,
		TokensUsed:   conv.TokensUsed,
		AskedAt:      conv.CreatedAt.Unix(),
	}); err != nil {
		log.Printf("[chat] session=%s stats publish failed: %v", e.sess.SessionID, err)
	}

	e.to(stateCompleted)
	e.emit(ctx, Event{Done: true, Remaining: e.svc.ledger.Remaining(e.sess)})
}

// approxTokens is a rough token estimate for streamed answers, where the
// provider never reports an exact count.
func approxTokens(answer string) int {
	return utf8.RuneCountInString(answer) / 4
}
