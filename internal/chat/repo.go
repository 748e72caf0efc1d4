package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// GetOrCreateSession resolves the session for a visitor-stable session ID,
// creating it lazily on first contact. A concurrent create for the same ID
// loses the insert race and reads the winner's row.
func (r *Repo) GetOrCreateSession(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	s = Session{SessionID: sessionID}
	if createErr := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&s).Error; createErr != nil {
		return nil, createErr
	}
	if s.ID != 0 {
		return &s, nil
	}

	// conflict: someone else created it first
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetSessionBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// IncrementQuestionCount bumps the counter with a guarded update so the
// stored count can never pass MaxQuestions, even when two requests from the
// same session race. Returns the count after the update.
func (r *Repo) IncrementQuestionCount(ctx context.Context, sessionID string) (int, error) {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ? AND question_count < ?", sessionID, MaxQuestions).
		Update("question_count", gorm.Expr("question_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	s, err := r.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 && s.QuestionCount < MaxQuestions {
		// session row vanished between check and update
		return s.QuestionCount, errors.New("chat: increment matched no row")
	}
	return s.QuestionCount, nil
}

func (r *Repo) InsertConversation(ctx context.Context, conv *Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

// ListConversations returns the session transcript oldest first.
func (r *Repo) ListConversations(ctx context.Context, sessionID string) ([]Conversation, error) {
	var convs []Conversation
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}
