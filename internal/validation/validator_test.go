package validation

import (
	"strings"
	"testing"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/dto"

	"github.com/stretchr/testify/assert"
)

const validID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

func fields(errs domain.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestIsValidULID(t *testing.T) {
	assert.True(t, IsValidULID(validID))
	assert.True(t, IsValidULID(strings.ToLower(validID)))
	assert.False(t, IsValidULID(""))
	assert.False(t, IsValidULID("not-a-ulid"))
	assert.False(t, IsValidULID("01ARZ3NDEKTSV4RRFFQ69G5FAU"))
	assert.False(t, IsValidULID(validID+"0"))
}

func TestValidateID(t *testing.T) {
	v := NewValidator(50)
	assert.Empty(t, v.ValidateID("id", validID))
	assert.Equal(t, []string{"id"}, fields(v.ValidateID("id", " ")))
	assert.Equal(t, []string{"id"}, fields(v.ValidateID("id", "123")))
}

func TestValidateUpload(t *testing.T) {
	v := NewValidator(50)
	tests := []struct {
		name     string
		kbName   string
		filename string
		want     []string
	}{
		{name: "valid", kbName: "Biology", filename: "notes.txt", want: []string{}},
		{name: "uppercase extension", kbName: "Biology", filename: "NOTES.TXT", want: []string{}},
		{name: "blank name", kbName: "  ", filename: "notes.txt", want: []string{"name"}},
		{name: "name too long", kbName: strings.Repeat("名", 256), filename: "notes.txt", want: []string{"name"}},
		{name: "missing file", kbName: "Biology", filename: "", want: []string{"file"}},
		{name: "wrong extension", kbName: "Biology", filename: "notes.pdf", want: []string{"file"}},
		{name: "both", kbName: "", filename: "", want: []string{"name", "file"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields(v.ValidateUpload(tt.kbName, tt.filename)))
		})
	}
}

func TestValidateCreateSession(t *testing.T) {
	v := NewValidator(50)
	tests := []struct {
		name string
		req  dto.CreateSessionRequest
		want []string
	}{
		{
			name: "valid",
			req:  dto.CreateSessionRequest{Type: "custom", KnowledgeBaseIDs: []string{validID}, Count: 5},
			want: []string{},
		},
		{
			name: "empty",
			req:  dto.CreateSessionRequest{},
			want: []string{"type", "knowledge_base_ids", "count"},
		},
		{
			name: "bad id",
			req:  dto.CreateSessionRequest{Type: "custom", KnowledgeBaseIDs: []string{validID, "bad"}, Count: 5},
			want: []string{"knowledge_base_ids"},
		},
		{
			name: "count above maximum",
			req:  dto.CreateSessionRequest{Type: "flashcard", KnowledgeBaseIDs: []string{validID}, Count: 51},
			want: []string{"count"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields(v.ValidateCreateSession(&tt.req)))
		})
	}
}

func TestValidateSubmitAnswer(t *testing.T) {
	v := NewValidator(50)
	zero, negative := 0, -1

	assert.Empty(t, v.ValidateSubmitAnswer(&dto.SubmitAnswerRequest{QuestionIndex: &zero, Answer: "正確"}))
	assert.Equal(t, []string{"question_index", "answer"},
		fields(v.ValidateSubmitAnswer(&dto.SubmitAnswerRequest{Answer: " "})))
	assert.Equal(t, []string{"question_index"},
		fields(v.ValidateSubmitAnswer(&dto.SubmitAnswerRequest{QuestionIndex: &negative, Answer: "a"})))
	assert.Equal(t, []string{"answer"},
		fields(v.ValidateSubmitAnswer(&dto.SubmitAnswerRequest{QuestionIndex: &zero, Answer: strings.Repeat("a", 5001)})))
}
