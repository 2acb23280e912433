package model

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionInProgress, SessionCompleted, SessionAbandoned:
		return true
	}
	return false
}

// TestSession 一次答题尝试
// swagger:model TestSession
type TestSession struct {
	ID               uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	TestID           uint          `gorm:"not null;index" json:"test_id"`
	UserID           uint          `gorm:"not null;index" json:"user_id"`
	AssignmentID     *uint         `gorm:"index" json:"assignment_id"`
	Status           SessionStatus `gorm:"size:20;not null;index" json:"status"`
	StartedAt        time.Time     `gorm:"not null;index" json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at"`
	TimeSpentSeconds *int          `json:"time_spent_seconds"`
	Score            *float64      `gorm:"type:decimal(5,2)" json:"score"`
	TotalQuestions   int           `gorm:"not null" json:"total_questions"`
	CorrectAnswers   int           `gorm:"not null" json:"correct_answers"`
	IsPassed         *bool         `json:"is_passed"`

	Answers []UserAnswer `gorm:"foreignKey:TestSessionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`

	Test       *Test           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User       *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Assignment *TestAssignment `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (TestSession) TableName() string {
	return "test_sessions"
}

// UserAnswer 每个 (session, question) 只有一条
// swagger:model UserAnswer
type UserAnswer struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TestSessionID    uint      `gorm:"not null;index;uniqueIndex:unique_session_question" json:"test_session_id"`
	QuestionID       uint      `gorm:"not null;index;uniqueIndex:unique_session_question" json:"question_id"`
	SelectedOptionID uint      `gorm:"not null;index" json:"selected_option_id"`
	IsCorrect        bool      `gorm:"not null" json:"is_correct"`
	AnsweredAt       time.Time `gorm:"not null;autoCreateTime" json:"answered_at"`

	Question       *Question     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SelectedOption *AnswerOption `gorm:"foreignKey:SelectedOptionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
