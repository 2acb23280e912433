package model

import "time"

const (
	DefaultPassingScore = 70.0
	DefaultPoints       = 1.0
)

// swagger:model Test
type Test struct {
	BaseModel
	Title              string  `gorm:"size:255;not null" json:"title"`
	Description        string  `gorm:"type:text" json:"description"`
	TimeLimitMinutes   *int    `json:"time_limit_minutes"`
	PassingScore       float64 `gorm:"type:decimal(5,2);not null" json:"passing_score"`
	MaxAttempts        *int    `json:"max_attempts"` // nil 表示不限次数
	ShuffleQuestions   bool    `gorm:"not null" json:"shuffle_questions"`
	ShuffleAnswers     bool    `gorm:"not null" json:"shuffle_answers"`
	ShowResults        bool    `gorm:"not null" json:"show_results"`
	ShowCorrectAnswers bool    `gorm:"not null" json:"show_correct_answers"`
	IsActive           bool    `gorm:"not null;index" json:"is_active"`
	CreatorID          uint    `gorm:"not null;index" json:"creator_id"`

	TestQuestions []TestQuestion `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"-"`

	Creator *User `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Test) TableName() string {
	return "tests"
}

// TestQuestion 测试中的题目及其顺序和分值，(test_id, question_id) 唯一
type TestQuestion struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	TestID        uint    `gorm:"not null;index;uniqueIndex:unique_test_question" json:"test_id"`
	QuestionID    uint    `gorm:"not null;index;uniqueIndex:unique_test_question" json:"question_id"`
	QuestionOrder int     `gorm:"not null" json:"question_order"`
	Points        float64 `gorm:"type:decimal(5,2);not null" json:"points"`

	Question *Question `gorm:"constraint:OnDelete:CASCADE" json:"question,omitempty"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}

// TestAssignment 把测试指派给用户或分组，两者至少有一个
// swagger:model TestAssignment
type TestAssignment struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	TestID      uint       `gorm:"not null;index" json:"test_id"`
	UserID      *uint      `gorm:"index;check:chk_assignment_target,user_id IS NOT NULL OR group_id IS NOT NULL" json:"user_id"`
	GroupID     *uint      `gorm:"index" json:"group_id"`
	AssignedBy  *uint      `gorm:"index" json:"assigned_by"`
	AssignedAt  time.Time  `gorm:"not null;autoCreateTime" json:"assigned_at"`
	Deadline    *time.Time `gorm:"index" json:"deadline"`
	IsCompleted bool       `gorm:"not null" json:"is_completed"`

	Test     *Test  `gorm:"constraint:OnDelete:CASCADE" json:"test,omitempty"`
	User     *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Group    *Group `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Assigner *User  `gorm:"foreignKey:AssignedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (TestAssignment) TableName() string {
	return "test_assignments"
}
