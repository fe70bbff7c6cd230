package domain

import (
	"math"
	"time"
)

// SessionType distinguishes linear quizzes from flashcard decks.
type SessionType string

const (
	SessionCustom    SessionType = "custom"
	SessionFlashcard SessionType = "flashcard"
)

func (t SessionType) Valid() bool {
	return t == SessionCustom || t == SessionFlashcard
}

// QuizSession is one generated quiz and its progress.
type QuizSession struct {
	ID               string
	OwnerID          string
	Type             SessionType
	KnowledgeBaseIDs []string
	QuestionTypes    []QuestionType
	Difficulty       string
	TargetCount      int
	Questions        QuestionList
	Cursor           int
	Completed        bool
	Score            *float64
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// CurrentQuestion returns the question at the cursor, or nil once every question is answered.
func (s *QuizSession) CurrentQuestion() Question {
	if s.Cursor < 0 || s.Cursor >= len(s.Questions) {
		return nil
	}
	return s.Questions[s.Cursor]
}

// AnswerRecord is the graded submission for one question of a session.
type AnswerRecord struct {
	ID            string
	SessionID     string
	QuestionIndex int
	QuestionText  string
	QuestionType  QuestionType
	CorrectAnswer string
	UserAnswer    string
	Score         int
	AnsweredAt    time.Time
}

// Correct reports whether the answer earned full marks.
func (a *AnswerRecord) Correct() bool {
	return a.Score == 100
}

// HistoryEntry is a previously generated question scoped to an owner and
// knowledge base fingerprint.
type HistoryEntry struct {
	OwnerID      string
	Fingerprint  string
	QuestionHash string
	Payload      QuestionPayload
	CreatedAt    time.Time
}

// SessionResult is the per-question breakdown of a session.
type SessionResult struct {
	Session  *QuizSession
	Answers  []*AnswerRecord
	Correct  int
	Total    int
	Accuracy float64
}

// UserStats aggregates an owner's activity.
type UserStats struct {
	CompletedQuizzes      int      `db:"completed_quizzes" json:"completed_quizzes"`
	AverageScore          *float64 `db:"average_score" json:"average_score"`
	KnowledgeBaseCount    int      `db:"knowledge_base_count" json:"knowledge_base_count"`
	CompletedFlashcards   int      `db:"completed_flashcards" json:"completed_flashcards"`
	FlashcardAverageScore *float64 `db:"flashcard_average_score" json:"flashcard_average_score"`
}

// RecomputeScore sets the aggregate score from every recorded answer and
// marks the session completed.
func (s *QuizSession) RecomputeScore(answers []*AnswerRecord, now time.Time) {
	var score float64
	if len(answers) > 0 {
		sum := 0
		for _, a := range answers {
			sum += a.Score
		}
		score = RoundTo(float64(sum)/float64(len(answers)), 1)
	}
	s.Score = &score
	s.Completed = true
	s.CompletedAt = &now
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// AnswerOutcome is what a submission reports back: its grade and the session state after it.
type AnswerOutcome struct {
	QuestionIndex int
	Score         int
	Correct       bool
	CorrectAnswer string
	Explanation   string
	Completed     bool
	SessionScore  *float64
	NextIndex     int
}
