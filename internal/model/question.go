package model

import "time"

const (
	DefaultGrade   = 1.0
	DefaultPenalty = 0.3333333

	MaxAnswerOptions = 5
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) Valid() bool {
	for _, v := range Difficulties {
		if d == v {
			return true
		}
	}
	return false
}

// swagger:model Question
type Question struct {
	BaseModel
	QuestionText     string      `gorm:"type:text;not null" json:"question_text"`
	SourceDocumentID *uint       `gorm:"index" json:"source_document_id"`
	CreatorID        uint        `gorm:"not null;index" json:"creator_id"`
	IsApproved       bool        `gorm:"not null;index" json:"is_approved"`
	ApprovedBy       *uint       `gorm:"index" json:"approved_by"`
	ApprovedAt       *time.Time  `json:"approved_at"`
	Difficulty       *Difficulty `gorm:"size:20;index" json:"difficulty"`

	// Moodle 集成字段
	MoodleName       *string `gorm:"size:255" json:"moodle_name"`
	MoodleQuestionID *int64  `json:"moodle_question_id"`
	DefaultGrade     float64 `gorm:"type:decimal(10,7);not null" json:"default_grade"`
	Penalty          float64 `gorm:"type:decimal(10,7);not null" json:"penalty"`
	ShuffleAnswers   bool    `gorm:"not null" json:"shuffle_answers"`

	AnswerOptions []AnswerOption `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answer_options"`

	SourceDocument *SourceDocument `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Creator        *User           `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Approver       *User           `gorm:"foreignKey:ApprovedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

// AnswerOption 属于某个问题，随问题一起删除
// swagger:model AnswerOption
type AnswerOption struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID  uint      `gorm:"not null;index" json:"question_id"`
	AnswerText  string    `gorm:"type:text;not null" json:"answer_text"`
	IsCorrect   bool      `gorm:"not null;index" json:"is_correct"`
	OptionOrder int       `gorm:"not null" json:"option_order"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (AnswerOption) TableName() string {
	return "answer_options"
}
