package validation

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/dto"
	"rag-quiz/internal/util"
)

const (
	maxNameLength   = 255
	maxAnswerLength = 5000
)

// Validator provides request validation functionality
type Validator struct {
	maxQuestions int
}

// NewValidator creates a new validator instance
func NewValidator(maxQuestions int) *Validator {
	return &Validator{maxQuestions: maxQuestions}
}

// ValidateID validates a ULID path parameter.
func (v *Validator) ValidateID(field, id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError(field))
	} else if !IsValidULID(id) {
		errors = append(errors, domain.NewInvalidFormatError(field, id))
	}
	return errors
}

// ValidateUpload validates the multipart fields of a knowledge base upload.
// Size and encoding limits are enforced by the service.
func (v *Validator) ValidateUpload(name, filename string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	name = strings.TrimSpace(name)
	if name == "" {
		errors = append(errors, domain.NewMissingFieldError("name"))
	} else if utf8.RuneCountInString(name) > maxNameLength {
		errors = append(errors, domain.NewOutOfRangeError("name", utf8.RuneCountInString(name), 1, maxNameLength))
	}

	if filename == "" {
		errors = append(errors, domain.NewMissingFieldError("file"))
	} else if strings.ToLower(filepath.Ext(filename)) != ".txt" {
		errors = append(errors, domain.NewInvalidFormatError("file", filename))
	}

	return errors
}

// ValidateCreateSession checks the request shape. Enum values and count
// bounds are normalized and checked again by the session service.
func (v *Validator) ValidateCreateSession(req *dto.CreateSessionRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if req.Type == "" {
		errors = append(errors, domain.NewMissingFieldError("type"))
	}
	if len(req.KnowledgeBaseIDs) == 0 {
		errors = append(errors, domain.NewMissingFieldError("knowledge_base_ids"))
	}
	for _, id := range req.KnowledgeBaseIDs {
		if !IsValidULID(strings.TrimSpace(id)) {
			errors = append(errors, domain.NewInvalidFormatError("knowledge_base_ids", id))
		}
	}
	if req.Count <= 0 || (v.maxQuestions > 0 && req.Count > v.maxQuestions) {
		errors = append(errors, domain.NewOutOfRangeError("count", req.Count, 1, v.maxQuestions))
	}

	return errors
}

// ValidateSubmitAnswer validates an answer submission.
func (v *Validator) ValidateSubmitAnswer(req *dto.SubmitAnswerRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if req.QuestionIndex == nil {
		errors = append(errors, domain.NewMissingFieldError("question_index"))
	} else if *req.QuestionIndex < 0 {
		errors = append(errors, domain.NewInvalidFormatError("question_index", *req.QuestionIndex))
	}

	if strings.TrimSpace(req.Answer) == "" {
		errors = append(errors, domain.NewMissingFieldError("answer"))
	} else if utf8.RuneCountInString(req.Answer) > maxAnswerLength {
		errors = append(errors, domain.NewOutOfRangeError("answer", utf8.RuneCountInString(req.Answer), 1, maxAnswerLength))
	}

	return errors
}

// IsValidULID checks if the string is a valid ULID (Crockford's Base32, 26 characters).
func IsValidULID(s string) bool {
	return len(s) == 26 && util.IsULID(s)
}
