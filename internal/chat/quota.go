package chat

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned when a session has used all of its questions.
// It is the only expected rejection on the ask path and must be raised
// before any provider call.
var ErrQuotaExceeded = errors.New("chat: question quota exceeded")

// Ledger tracks per-session question usage against MaxQuestions.
type Ledger struct {
	repo *Repo
}

func NewLedger(repo *Repo) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) CanAsk(s *Session) bool {
	return s.QuestionCount < MaxQuestions
}

// Remaining never goes negative, whatever the stored count says.
func (l *Ledger) Remaining(s *Session) int {
	n := MaxQuestions - s.QuestionCount
	if n < 0 {
		return 0
	}
	return n
}

// Increment charges one question and refreshes s.QuestionCount. Call it at
// most once per completed exchange, and only after the exchange has been
// persisted; a failed exchange must not consume quota.
func (l *Ledger) Increment(ctx context.Context, s *Session) error {
	count, err := l.repo.IncrementQuestionCount(ctx, s.SessionID)
	if err != nil {
		return err
	}
	s.QuestionCount = count
	return nil
}
