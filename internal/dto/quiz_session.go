package dto

import (
	"time"

	"rag-quiz/internal/domain"
)

// CreateSessionRequest represents a quiz or flashcard generation request
// @Description Request body for creating a quiz session
type CreateSessionRequest struct {
	Type             string   `json:"type" example:"custom"`
	KnowledgeBaseIDs []string `json:"knowledge_base_ids"`
	QuestionTypes    []string `json:"question_types" example:"multiple_choice,short_answer"`
	Difficulty       string   `json:"difficulty" example:"medium"`
	Count            int      `json:"count" example:"5"`
}

// SubmitAnswerRequest represents one answer submission
// @Description Request body for answering a question
type SubmitAnswerRequest struct {
	QuestionIndex *int   `json:"question_index"`
	Answer        string `json:"answer"`
}

// QuestionView is a question with its answer and correct flags hidden.
type QuestionView struct {
	Index        int      `json:"index"`
	QuestionText string   `json:"question_text"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options,omitempty"`
}

// SessionResponse represents the state of a quiz session
// @Description Quiz session progress; linear quizzes expose only the current question
type SessionResponse struct {
	ID               string         `json:"id"`
	Type             string         `json:"type"`
	KnowledgeBaseIDs []string       `json:"knowledge_base_ids"`
	QuestionTypes    []string       `json:"question_types"`
	Difficulty       string         `json:"difficulty"`
	TotalQuestions   int            `json:"total_questions"`
	Cursor           int            `json:"cursor"`
	Completed        bool           `json:"completed"`
	Score            *float64       `json:"score,omitempty"`
	CurrentQuestion  *QuestionView  `json:"current_question,omitempty"`
	Questions        []QuestionView `json:"questions,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
}

// AnswerResponse represents the grading of one submission
type AnswerResponse struct {
	QuestionIndex int      `json:"question_index"`
	Score         int      `json:"score"`
	IsCorrect     bool     `json:"is_correct"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Completed     bool     `json:"completed"`
	SessionScore  *float64 `json:"session_score,omitempty"`
	NextIndex     int      `json:"next_index"`
}

// AnswerDetail is one row of a session result.
type AnswerDetail struct {
	QuestionIndex int       `json:"question_index"`
	QuestionText  string    `json:"question_text"`
	QuestionType  string    `json:"question_type"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"explanation"`
	Score         int       `json:"score"`
	IsCorrect     bool      `json:"is_correct"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// ResultResponse represents the per-question breakdown of a session
type ResultResponse struct {
	SessionID string         `json:"session_id"`
	Type      string         `json:"type"`
	Completed bool           `json:"completed"`
	Score     *float64       `json:"score,omitempty"`
	Correct   int            `json:"correct"`
	Total     int            `json:"total"`
	Accuracy  float64        `json:"accuracy"`
	Answers   []AnswerDetail `json:"answers"`
}

func newQuestionView(index int, q domain.Question) QuestionView {
	p := q.Payload()
	view := QuestionView{Index: index, QuestionText: p.QuestionText, QuestionType: string(p.QuestionType)}
	for _, opt := range p.Options {
		view.Options = append(view.Options, opt.Text)
	}
	return view
}

func NewSessionResponse(s *domain.QuizSession) SessionResponse {
	resp := SessionResponse{
		ID:               s.ID,
		Type:             string(s.Type),
		KnowledgeBaseIDs: s.KnowledgeBaseIDs,
		Difficulty:       s.Difficulty,
		TotalQuestions:   len(s.Questions),
		Cursor:           s.Cursor,
		Completed:        s.Completed,
		Score:            s.Score,
		CreatedAt:        s.CreatedAt,
		CompletedAt:      s.CompletedAt,
	}
	for _, t := range s.QuestionTypes {
		resp.QuestionTypes = append(resp.QuestionTypes, string(t))
	}

	if s.Type == domain.SessionFlashcard {
		resp.Questions = make([]QuestionView, len(s.Questions))
		for i, q := range s.Questions {
			resp.Questions[i] = newQuestionView(i, q)
		}
		return resp
	}
	if q := s.CurrentQuestion(); q != nil && !s.Completed {
		view := newQuestionView(s.Cursor, q)
		resp.CurrentQuestion = &view
	}
	return resp
}

func NewAnswerResponse(o *domain.AnswerOutcome) AnswerResponse {
	return AnswerResponse{
		QuestionIndex: o.QuestionIndex,
		Score:         o.Score,
		IsCorrect:     o.Correct,
		CorrectAnswer: o.CorrectAnswer,
		Explanation:   o.Explanation,
		Completed:     o.Completed,
		SessionScore:  o.SessionScore,
		NextIndex:     o.NextIndex,
	}
}

func NewResultResponse(r *domain.SessionResult) ResultResponse {
	resp := ResultResponse{
		SessionID: r.Session.ID,
		Type:      string(r.Session.Type),
		Completed: r.Session.Completed,
		Score:     r.Session.Score,
		Correct:   r.Correct,
		Total:     r.Total,
		Accuracy:  r.Accuracy,
		Answers:   make([]AnswerDetail, 0, len(r.Answers)),
	}
	for _, a := range r.Answers {
		detail := AnswerDetail{
			QuestionIndex: a.QuestionIndex,
			QuestionText:  a.QuestionText,
			QuestionType:  string(a.QuestionType),
			UserAnswer:    a.UserAnswer,
			CorrectAnswer: a.CorrectAnswer,
			Score:         a.Score,
			IsCorrect:     a.Correct(),
			AnsweredAt:    a.AnsweredAt,
		}
		if a.QuestionIndex >= 0 && a.QuestionIndex < len(r.Session.Questions) {
			detail.Explanation = r.Session.Questions[a.QuestionIndex].Rationale()
		}
		resp.Answers = append(resp.Answers, detail)
	}
	return resp
}
