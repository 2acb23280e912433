package moodle

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"testgen_backend/internal/model"
)

// Export 把题目写成 Moodle XML。正确选项的 fraction 为 100，其余为 0。
func Export(w io.Writer, questions []model.Question) error {
	quiz := Quiz{Questions: make([]Question, 0, len(questions))}
	for i := range questions {
		quiz.Questions = append(quiz.Questions, toMoodle(&questions[i]))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(quiz); err != nil {
		return fmt.Errorf("encode moodle xml: %w", err)
	}
	return enc.Flush()
}

func toMoodle(q *model.Question) Question {
	name := fmt.Sprintf("Question %d", q.ID)
	if q.MoodleName != nil && *q.MoodleName != "" {
		name = *q.MoodleName
	}
	idNumber := ""
	if q.MoodleQuestionID != nil {
		idNumber = strconv.FormatInt(*q.MoodleQuestionID, 10)
	}

	empty := Text{Format: formatHTML}
	mq := Question{
		Type:                     typeMultichoice,
		Name:                     Text{Text: name},
		QuestionText:             Text{Format: formatHTML, Text: q.QuestionText},
		GeneralFeedback:          empty,
		DefaultGrade:             strconv.FormatFloat(q.DefaultGrade, 'f', 7, 64),
		Penalty:                  strconv.FormatFloat(q.Penalty, 'f', 7, 64),
		Hidden:                   "0",
		IDNumber:                 idNumber,
		Single:                   "true",
		ShuffleAnswers:           strconv.FormatBool(q.ShuffleAnswers),
		AnswerNumbering:          "none",
		ShowStandardInstruction:  "1",
		CorrectFeedback:          empty,
		PartiallyCorrectFeedback: empty,
		IncorrectFeedback:        empty,
		Answers:                  make([]Answer, 0, len(q.AnswerOptions)),
	}

	for _, opt := range q.AnswerOptions {
		fraction := "0"
		if opt.IsCorrect {
			fraction = "100"
		}
		mq.Answers = append(mq.Answers, Answer{
			Fraction: fraction,
			Format:   formatHTML,
			Text:     opt.AnswerText,
			Feedback: empty,
		})
	}
	return mq
}
