package moodle

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testgen_backend/internal/model"
)

// Parse 读取 Moodle XML，返回待入库的题目（未审批、未设置创建者）。
// 非单选题被跳过；fraction 无法解析的选项被跳过，fraction > 0 视为正确答案。
func Parse(r io.Reader) ([]*model.Question, error) {
	var quiz Quiz
	if err := xml.NewDecoder(r).Decode(&quiz); err != nil {
		return nil, fmt.Errorf("decode moodle xml: %w", err)
	}

	questions := make([]*model.Question, 0, len(quiz.Questions))
	for i, mq := range quiz.Questions {
		if mq.Type != typeMultichoice || mq.Single != "true" {
			continue
		}
		q, err := convert(mq)
		if err != nil {
			return nil, fmt.Errorf("question #%d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func convert(mq Question) (*model.Question, error) {
	q := &model.Question{
		QuestionText:   cleanText(mq.QuestionText.Text),
		DefaultGrade:   parseFloat(mq.DefaultGrade, model.DefaultGrade),
		Penalty:        parseFloat(mq.Penalty, model.DefaultPenalty),
		ShuffleAnswers: !(mq.ShuffleAnswers == "false" || mq.ShuffleAnswers == "0"),
	}
	if q.QuestionText == "" {
		return nil, fmt.Errorf("empty question text")
	}
	if name := strings.TrimSpace(mq.Name.Text); name != "" {
		q.MoodleName = &name
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(mq.IDNumber), 10, 64); err == nil {
		q.MoodleQuestionID = &id
	}

	for _, ma := range mq.Answers {
		fraction, err := strconv.ParseFloat(strings.TrimSpace(ma.Fraction), 64)
		if err != nil {
			continue
		}
		q.AnswerOptions = append(q.AnswerOptions, model.AnswerOption{
			AnswerText:  cleanText(ma.Text),
			IsCorrect:   fraction > 0,
			OptionOrder: len(q.AnswerOptions) + 1,
		})
	}
	if len(q.AnswerOptions) > model.MaxAnswerOptions {
		return nil, fmt.Errorf("%d answers, at most %d supported", len(q.AnswerOptions), model.MaxAnswerOptions)
	}
	return q, nil
}

func parseFloat(s string, def float64) float64 {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

var textReplacer = strings.NewReplacer(
	"<![CDATA[", "",
	"]]>", "",
	"<p>", "",
	"</p>", "",
	"<br>", "\n",
	"<br/>", "\n",
	"<br />", "\n",
)

// cleanText 去掉 CDATA 标记和最基本的 HTML 标签
func cleanText(s string) string {
	return strings.TrimSpace(textReplacer.Replace(s))
}
