package chat

import "time"

// MaxQuestions is the per-session question cap. A visitor who has used all
// of them gets a friendly rejection instead of a model call.
const MaxQuestions = 10

type Session struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID     string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	QuestionCount int       `gorm:"not null;default:0" json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// deleting a session removes its transcript
	Conversations []Conversation `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Session) TableName() string { return "chat_sessions" }

type Conversation struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string `gorm:"type:varchar(26);not null;index" json:"session_id"`
	Question  string `gorm:"type:text;not null" json:"question"`
	Answer    string `gorm:"type:text;not null" json:"answer"`

	// Wall-clock seconds from context build start to end of streaming.
	ResponseTime *float64 `json:"response_time,omitempty"`

	// Rough estimate; exact counts are not available when streaming.
	TokensUsed *int `json:"tokens_used,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Conversation) TableName() string { return "chat_conversations" }
