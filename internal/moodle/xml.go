// Package moodle 在内部题目模型和 Moodle XML 题库格式之间转换。
// 只支持单选的 multichoice 题型。
package moodle

import "encoding/xml"

type Quiz struct {
	XMLName   xml.Name   `xml:"quiz"`
	Questions []Question `xml:"question"`
}

type Question struct {
	Type                     string   `xml:"type,attr"`
	Name                     Text     `xml:"name"`
	QuestionText             Text     `xml:"questiontext"`
	GeneralFeedback          Text     `xml:"generalfeedback"`
	DefaultGrade             string   `xml:"defaultgrade"`
	Penalty                  string   `xml:"penalty"`
	Hidden                   string   `xml:"hidden"`
	IDNumber                 string   `xml:"idnumber"`
	Single                   string   `xml:"single"`
	ShuffleAnswers           string   `xml:"shuffleanswers"`
	AnswerNumbering          string   `xml:"answernumbering"`
	ShowStandardInstruction  string   `xml:"showstandardinstruction"`
	CorrectFeedback          Text     `xml:"correctfeedback"`
	PartiallyCorrectFeedback Text     `xml:"partiallycorrectfeedback"`
	IncorrectFeedback        Text     `xml:"incorrectfeedback"`
	Answers                  []Answer `xml:"answer"`
}

type Text struct {
	Format string `xml:"format,attr,omitempty"`
	Text   string `xml:"text"`
}

type Answer struct {
	Fraction string `xml:"fraction,attr"`
	Format   string `xml:"format,attr,omitempty"`
	Text     string `xml:"text"`
	Feedback Text   `xml:"feedback"`
}

const (
	typeMultichoice = "multichoice"
	formatHTML      = "html"
)
