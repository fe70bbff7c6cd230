package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rag-quiz/internal/config"
	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"
	"rag-quiz/internal/util"

	"go.uber.org/zap"
)

// Difficulties accepted by session creation.
var Difficulties = []string{"easy", "medium", "hard"}

// CreateSessionInput describes a quiz or flashcard deck to generate.
type CreateSessionInput struct {
	Type             domain.SessionType
	KnowledgeBaseIDs []string
	QuestionTypes    []domain.QuestionType
	Difficulty       string
	Count            int
}

// QuizSessionService creates sessions and grades submissions against them.
type QuizSessionService interface {
	Create(ctx context.Context, ownerID string, in CreateSessionInput) (*domain.QuizSession, error)
	Get(ctx context.Context, ownerID, sessionID string) (*domain.QuizSession, error)
	SubmitAnswer(ctx context.Context, ownerID, sessionID string, questionIndex int, answer string) (*domain.AnswerOutcome, error)
	Result(ctx context.Context, ownerID, sessionID string) (*domain.SessionResult, error)
}

type quizSessionService struct {
	knowledgeBases domain.KnowledgeBaseRepository
	sessions       domain.QuizSessionRepository
	answers        domain.AnswerRepository
	txManager      domain.TransactionManager
	assembler      *ContentAssembler
	ledger         *HistoryLedger
	orchestrator   *QuizOrchestrator
	grader         *Grader
	results        ResultCache
	cfg            *config.Config
	now            func() time.Time
}

func NewQuizSessionService(
	knowledgeBases domain.KnowledgeBaseRepository,
	sessions domain.QuizSessionRepository,
	answers domain.AnswerRepository,
	txManager domain.TransactionManager,
	assembler *ContentAssembler,
	ledger *HistoryLedger,
	orchestrator *QuizOrchestrator,
	grader *Grader,
	results ResultCache,
	cfg *config.Config,
) QuizSessionService {
	if results == nil {
		results = noopResultCache{}
	}
	return &quizSessionService{
		knowledgeBases: knowledgeBases,
		sessions:       sessions,
		answers:        answers,
		txManager:      txManager,
		assembler:      assembler,
		ledger:         ledger,
		orchestrator:   orchestrator,
		grader:         grader,
		results:        results,
		cfg:            cfg,
		now:            time.Now,
	}
}

func (s *quizSessionService) normalize(in CreateSessionInput) (CreateSessionInput, error) {
	var errs domain.ValidationErrors
	if !in.Type.Valid() {
		errs = append(errs, domain.NewInvalidFormatError("type", string(in.Type)))
	}

	seen := make(map[string]bool)
	ids := make([]string, 0, len(in.KnowledgeBaseIDs))
	for _, id := range in.KnowledgeBaseIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		errs = append(errs, domain.NewMissingFieldError("knowledge_base_ids"))
	}
	in.KnowledgeBaseIDs = ids

	if in.Type == domain.SessionFlashcard {
		in.QuestionTypes = []domain.QuestionType{domain.TypeTrueFalse}
	}
	types := make([]domain.QuestionType, 0, len(in.QuestionTypes))
	seenType := make(map[domain.QuestionType]bool)
	for _, t := range in.QuestionTypes {
		if !t.Valid() {
			errs = append(errs, domain.NewInvalidFormatError("question_types", string(t)))
			continue
		}
		if !seenType[t] {
			seenType[t] = true
			types = append(types, t)
		}
	}
	if len(in.QuestionTypes) == 0 {
		errs = append(errs, domain.NewMissingFieldError("question_types"))
	}
	in.QuestionTypes = types

	in.Difficulty = strings.TrimSpace(in.Difficulty)
	if in.Difficulty == "" {
		in.Difficulty = "medium"
	}
	validDifficulty := false
	for _, d := range Difficulties {
		if d == in.Difficulty {
			validDifficulty = true
		}
	}
	if !validDifficulty {
		errs = append(errs, domain.NewInvalidFormatError("difficulty", in.Difficulty))
	}

	maxQuestions := s.cfg.Quiz.MaxQuestions
	if in.Count < 1 || (maxQuestions > 0 && in.Count > maxQuestions) {
		errs = append(errs, domain.NewOutOfRangeError("count", in.Count, 1, maxQuestions))
	}

	if len(errs) > 0 {
		return in, errs
	}
	return in, nil
}

// Create generates the full question set before anything is stored, so a
// failed generation leaves no session behind.
func (s *quizSessionService) Create(ctx context.Context, ownerID string, in CreateSessionInput) (*domain.QuizSession, error) {
	l := logger.Get()
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	owned, err := s.knowledgeBases.CountOwned(ctx, ownerID, in.KnowledgeBaseIDs)
	if err != nil {
		return nil, domain.NewInternalError("Failed to check knowledge bases", err)
	}
	if owned != len(in.KnowledgeBaseIDs) {
		return nil, domain.NewNotFoundError("One or more knowledge bases were not found")
	}

	content, err := s.assembler.Assemble(ctx, in.KnowledgeBaseIDs, in.QuestionTypes, s.cfg.RAG.MaxChunks)
	if err != nil {
		return nil, err
	}

	history := s.ledger.Recent(ctx, ownerID, in.KnowledgeBaseIDs, s.cfg.Quiz.HistoryLimit)
	questions, err := s.orchestrator.Generate(ctx, content, in.QuestionTypes, in.Difficulty, in.Count, history)
	if err != nil {
		return nil, err
	}

	session := &domain.QuizSession{
		ID:               util.NewULID(),
		OwnerID:          ownerID,
		Type:             in.Type,
		KnowledgeBaseIDs: in.KnowledgeBaseIDs,
		QuestionTypes:    in.QuestionTypes,
		Difficulty:       in.Difficulty,
		TargetCount:      in.Count,
		Questions:        domain.QuestionList(questions),
		CreatedAt:        s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, domain.NewInternalError("Failed to save quiz session", err)
	}

	s.ledger.Record(ctx, ownerID, in.KnowledgeBaseIDs, questions)

	l.Info("Quiz session created",
		zap.String("session_id", session.ID),
		zap.String("owner_id", ownerID),
		zap.String("type", string(session.Type)),
		zap.Int("questions", len(questions)))
	return session, nil
}

func (s *quizSessionService) Get(ctx context.Context, ownerID, sessionID string) (*domain.QuizSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz session", err)
	}
	if session == nil || session.OwnerID != ownerID {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Quiz session %s not found", sessionID))
	}
	return session, nil
}

// SubmitAnswer grades outside the transaction, then records the answer and
// advances the session under a row lock. Linear quizzes only accept the
// question at the cursor, once. Flashcard decks accept any index and keep the
// latest answer.
func (s *quizSessionService) SubmitAnswer(ctx context.Context, ownerID, sessionID string, questionIndex int, answer string) (*domain.AnswerOutcome, error) {
	session, err := s.Get(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if questionIndex < 0 || questionIndex >= len(session.Questions) {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("Question index %d is out of range", questionIndex))
	}
	if err := checkLinearOrder(session, questionIndex); err != nil {
		return nil, err
	}

	q := session.Questions[questionIndex]
	score := s.grader.Grade(ctx, q, answer)
	record := &domain.AnswerRecord{
		ID:            util.NewULID(),
		SessionID:     sessionID,
		QuestionIndex: questionIndex,
		QuestionText:  q.Prompt(),
		QuestionType:  q.Kind(),
		CorrectAnswer: q.CorrectAnswer(),
		UserAnswer:    strings.TrimSpace(answer),
		Score:         score,
		AnsweredAt:    s.now(),
	}

	var updated *domain.QuizSession
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.sessions.GetForUpdate(ctx, sessionID)
		if err != nil {
			return domain.NewInternalError("Failed to lock quiz session", err)
		}
		if locked == nil {
			return domain.NewNotFoundError(fmt.Sprintf("Quiz session %s not found", sessionID))
		}

		if locked.Type == domain.SessionFlashcard {
			if err := s.answers.Upsert(ctx, record); err != nil {
				return domain.NewInternalError("Failed to save answer", err)
			}
		} else {
			if err := checkLinearOrder(locked, questionIndex); err != nil {
				return err
			}
			inserted, err := s.answers.Insert(ctx, record)
			if err != nil {
				return domain.NewInternalError("Failed to save answer", err)
			}
			if !inserted {
				return domain.NewAnswerRejectedError(fmt.Sprintf("Question %d has already been answered", questionIndex))
			}
		}

		all, err := s.answers.ListBySession(ctx, sessionID)
		if err != nil {
			return domain.NewInternalError("Failed to read answers", err)
		}
		if locked.Type == domain.SessionFlashcard {
			locked.Cursor = len(all)
		} else {
			locked.Cursor = questionIndex + 1
		}
		if locked.Cursor >= len(locked.Questions) {
			locked.Cursor = len(locked.Questions)
			locked.RecomputeScore(all, s.now())
		}

		if err := s.sessions.UpdateProgress(ctx, locked); err != nil {
			return domain.NewInternalError("Failed to update quiz session", err)
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Completed {
		logger.Get().Info("Quiz session completed",
			zap.String("session_id", sessionID),
			zap.Float64("score", *updated.Score))
	}
	return &domain.AnswerOutcome{
		QuestionIndex: questionIndex,
		Score:         score,
		Correct:       record.Correct(),
		CorrectAnswer: q.CorrectAnswer(),
		Explanation:   q.Rationale(),
		Completed:     updated.Completed,
		SessionScore:  updated.Score,
		NextIndex:     updated.Cursor,
	}, nil
}

func checkLinearOrder(session *domain.QuizSession, questionIndex int) error {
	if session.Type == domain.SessionFlashcard {
		return nil
	}
	if session.Completed {
		return domain.NewAnswerRejectedError("Quiz session is already completed")
	}
	if questionIndex != session.Cursor {
		return domain.NewAnswerRejectedError(fmt.Sprintf("Expected an answer for question %d, got %d", session.Cursor, questionIndex))
	}
	return nil
}

func (s *quizSessionService) Result(ctx context.Context, ownerID, sessionID string) (*domain.SessionResult, error) {
	if cached, ok := s.results.Get(ctx, sessionID); ok && cached.Session.OwnerID == ownerID {
		return cached, nil
	}

	session, err := s.Get(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to read answers", err)
	}

	result := &domain.SessionResult{Session: session, Answers: answers, Total: len(answers)}
	for _, a := range answers {
		if a.Correct() {
			result.Correct++
		}
	}
	if result.Total > 0 {
		result.Accuracy = domain.RoundTo(float64(result.Correct)/float64(result.Total)*100, 1)
	}
	s.results.Put(ctx, result)
	return result, nil
}
