package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// QuestionType enumerates the supported quiz item kinds.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeShortAnswer    QuestionType = "short_answer"
	TypeEssay          QuestionType = "essay"
)

// AllQuestionTypes lists every supported type in canonical order.
var AllQuestionTypes = []QuestionType{TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeEssay}

// ParseQuestionType returns the QuestionType for s or an error when s is unknown.
func ParseQuestionType(s string) (QuestionType, error) {
	t := QuestionType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown question type %q", s)
	}
	return t, nil
}

func (t QuestionType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeEssay:
		return true
	}
	return false
}

// Objective reports whether answers of this type are graded by exact match.
func (t QuestionType) Objective() bool {
	return t == TypeMultipleChoice || t == TypeTrueFalse
}

// Option is one selectable answer of an objective question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is a validated quiz item. Implementations are MultipleChoice,
// TrueFalse, ShortAnswer and Essay.
type Question interface {
	Kind() QuestionType
	Prompt() string
	// CorrectAnswer is the text a submission must equal for objective types,
	// and the reference answer handed to the rubric for subjective ones.
	CorrectAnswer() string
	Rationale() string
	Validate() error
	Payload() QuestionPayload
}

var (
	errMissingText        = errors.New("question text is required")
	errMissingAnswer      = errors.New("answer text is required")
	errMissingExplanation = errors.New("explanation is required")
	errNoOptions          = errors.New("options must not be empty")
	errEmptyOption        = errors.New("option text must not be empty")
	errCorrectOptionCount = errors.New("exactly one option must be correct")
)

// choiceSet is shared by the objective variants.
type choiceSet []Option

func (c choiceSet) correct() (Option, bool) {
	for _, opt := range c {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return Option{}, false
}

func (c choiceSet) validate() error {
	if len(c) == 0 {
		return errNoOptions
	}
	correct := 0
	for _, opt := range c {
		if strings.TrimSpace(opt.Text) == "" {
			return errEmptyOption
		}
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return errCorrectOptionCount
	}
	return nil
}

func validateCommon(text, answer, explanation string) error {
	if strings.TrimSpace(text) == "" {
		return errMissingText
	}
	if strings.TrimSpace(answer) == "" {
		return errMissingAnswer
	}
	if strings.TrimSpace(explanation) == "" {
		return errMissingExplanation
	}
	return nil
}

// MultipleChoice has several options with exactly one flagged correct.
type MultipleChoice struct {
	Text        string
	Options     []Option
	AnswerText  string
	Explanation string
}

func (q *MultipleChoice) Kind() QuestionType { return TypeMultipleChoice }
func (q *MultipleChoice) Prompt() string     { return q.Text }
func (q *MultipleChoice) Rationale() string  { return q.Explanation }

func (q *MultipleChoice) CorrectAnswer() string {
	opt, _ := choiceSet(q.Options).correct()
	return strings.TrimSpace(opt.Text)
}

func (q *MultipleChoice) Validate() error {
	if err := validateCommon(q.Text, q.AnswerText, q.Explanation); err != nil {
		return err
	}
	return choiceSet(q.Options).validate()
}

func (q *MultipleChoice) Payload() QuestionPayload {
	return QuestionPayload{
		QuestionText: q.Text,
		QuestionType: TypeMultipleChoice,
		Options:      q.Options,
		AnswerText:   q.AnswerText,
		Explanation:  q.Explanation,
	}
}

// TrueFalse is a boolean item whose options are the two canonical labels.
type TrueFalse struct {
	Text        string
	Options     []Option
	AnswerText  string
	Explanation string
}

func (q *TrueFalse) Kind() QuestionType { return TypeTrueFalse }
func (q *TrueFalse) Prompt() string     { return q.Text }
func (q *TrueFalse) Rationale() string  { return q.Explanation }

func (q *TrueFalse) CorrectAnswer() string {
	opt, _ := choiceSet(q.Options).correct()
	return strings.TrimSpace(opt.Text)
}

func (q *TrueFalse) Validate() error {
	if err := validateCommon(q.Text, q.AnswerText, q.Explanation); err != nil {
		return err
	}
	return choiceSet(q.Options).validate()
}

func (q *TrueFalse) Payload() QuestionPayload {
	return QuestionPayload{
		QuestionText: q.Text,
		QuestionType: TypeTrueFalse,
		Options:      q.Options,
		AnswerText:   q.AnswerText,
		Explanation:  q.Explanation,
	}
}

// ShortAnswer is graded against AnswerText by the rubric.
type ShortAnswer struct {
	Text        string
	AnswerText  string
	Explanation string
}

func (q *ShortAnswer) Kind() QuestionType    { return TypeShortAnswer }
func (q *ShortAnswer) Prompt() string        { return q.Text }
func (q *ShortAnswer) CorrectAnswer() string { return q.AnswerText }
func (q *ShortAnswer) Rationale() string     { return q.Explanation }

func (q *ShortAnswer) Validate() error {
	return validateCommon(q.Text, q.AnswerText, q.Explanation)
}

func (q *ShortAnswer) Payload() QuestionPayload {
	return QuestionPayload{
		QuestionText: q.Text,
		QuestionType: TypeShortAnswer,
		AnswerText:   q.AnswerText,
		Explanation:  q.Explanation,
	}
}

// Essay carries a reference answer outline and grading points.
type Essay struct {
	Text        string
	AnswerText  string
	Explanation string
}

func (q *Essay) Kind() QuestionType    { return TypeEssay }
func (q *Essay) Prompt() string        { return q.Text }
func (q *Essay) CorrectAnswer() string { return q.AnswerText }
func (q *Essay) Rationale() string     { return q.Explanation }

func (q *Essay) Validate() error {
	return validateCommon(q.Text, q.AnswerText, q.Explanation)
}

func (q *Essay) Payload() QuestionPayload {
	return QuestionPayload{
		QuestionText: q.Text,
		QuestionType: TypeEssay,
		AnswerText:   q.AnswerText,
		Explanation:  q.Explanation,
	}
}

// QuestionPayload is the JSON shape exchanged with the model and stored in the database.
type QuestionPayload struct {
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	Options      []Option     `json:"options,omitempty"`
	AnswerText   string       `json:"answer_text"`
	Explanation  string       `json:"explanation"`
}

// ToQuestion converts the payload into its variant and validates it.
func (p QuestionPayload) ToQuestion() (Question, error) {
	var q Question
	switch p.QuestionType {
	case TypeMultipleChoice:
		q = &MultipleChoice{Text: p.QuestionText, Options: p.Options, AnswerText: p.AnswerText, Explanation: p.Explanation}
	case TypeTrueFalse:
		q = &TrueFalse{Text: p.QuestionText, Options: p.Options, AnswerText: p.AnswerText, Explanation: p.Explanation}
	case TypeShortAnswer:
		q = &ShortAnswer{Text: p.QuestionText, AnswerText: p.AnswerText, Explanation: p.Explanation}
	case TypeEssay:
		q = &Essay{Text: p.QuestionText, AnswerText: p.AnswerText, Explanation: p.Explanation}
	default:
		return nil, fmt.Errorf("unknown question type %q", p.QuestionType)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// QuestionList is an ordered question set persisted as a JSON array.
type QuestionList []Question

func (l QuestionList) MarshalJSON() ([]byte, error) {
	payloads := make([]QuestionPayload, len(l))
	for i, q := range l {
		payloads[i] = q.Payload()
	}
	return json.Marshal(payloads)
}

func (l *QuestionList) UnmarshalJSON(data []byte) error {
	var payloads []QuestionPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return err
	}
	out := make(QuestionList, 0, len(payloads))
	for i, p := range payloads {
		q, err := p.ToQuestion()
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, q)
	}
	*l = out
	return nil
}

// Value implements the driver.Valuer interface
func (l QuestionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (l *QuestionList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = QuestionList{}
		return nil
	case []byte:
		return l.UnmarshalJSON(v)
	case string:
		return l.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("QuestionList Scan: unsupported type %T", value)
	}
}
