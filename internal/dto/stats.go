package dto

// UserStatsResponse represents an owner's activity summary
// @Description Completed quizzes, flashcards and knowledge base count
type UserStatsResponse struct {
	CompletedQuizzes      int      `json:"completed_quizzes"`
	AverageScore          *float64 `json:"average_score,omitempty"`
	KnowledgeBaseCount    int      `json:"knowledge_base_count"`
	CompletedFlashcards   int      `json:"completed_flashcards"`
	FlashcardAverageScore *float64 `json:"flashcard_average_score,omitempty"`
}

// HealthResponse reports the availability of a dependency.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message,omitempty"`
}
