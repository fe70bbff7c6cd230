package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"rag-quiz/internal/domain"
	"rag-quiz/internal/logger"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

const questionSchemaURL = "schema://question.json"

// questionSchema is the structural contract for one generated question. The
// variant validators run afterwards and enforce the exactly-one-correct rule.
const questionSchema = `{
  "type": "object",
  "required": ["question_text", "question_type", "answer_text", "explanation"],
  "properties": {
    "question_text": {"type": "string", "minLength": 1},
    "question_type": {"enum": ["multiple_choice", "true_false", "short_answer", "essay"]},
    "answer_text": {"type": "string"},
    "explanation": {"type": "string"},
    "options": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text"],
        "properties": {
          "text": {"type": "string"},
          "is_correct": {"type": "boolean"}
        }
      }
    }
  },
  "if": {"properties": {"question_type": {"enum": ["multiple_choice", "true_false"]}}},
  "then": {
    "required": ["options"],
    "properties": {
      "options": {"minItems": 1, "contains": {"properties": {"is_correct": {"const": true}}, "required": ["is_correct"]}}
    }
  }
}`

var (
	compiledQuestionSchema *jsonschema.Schema
	compileSchemaOnce      sync.Once
	compileSchemaErr       error
)

var errNoJSONArray = errors.New("no JSON array found in model output")

func getQuestionSchema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(questionSchema), &doc); err != nil {
			compileSchemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(questionSchemaURL, doc); err != nil {
			compileSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledQuestionSchema, compileSchemaErr = c.Compile(questionSchemaURL)
	})
	return compiledQuestionSchema, compileSchemaErr
}

// cleanModelOutput strips markdown fences and reasoning blocks, then slices
// the outermost JSON array.
func cleanModelOutput(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return "", errNoJSONArray
	}
	return s[start : end+1], nil
}

// ParseQuestions decodes model output into validated questions. Items failing
// the schema or their variant validator are dropped; an error is returned only
// when the output holds no parseable array at all.
func ParseQuestions(raw string) ([]domain.Question, error) {
	l := logger.Get()

	arrayText, err := cleanModelOutput(raw)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(arrayText), &items); err != nil {
		return nil, fmt.Errorf("failed to decode question array: %w", err)
	}

	schema, err := getQuestionSchema()
	if err != nil {
		return nil, fmt.Errorf("question schema unavailable: %w", err)
	}

	questions := make([]domain.Question, 0, len(items))
	for i, item := range items {
		var doc any
		if err := json.Unmarshal(item, &doc); err != nil {
			l.Debug("Dropping undecodable question", zap.Int("index", i), zap.Error(err))
			continue
		}
		if err := schema.Validate(doc); err != nil {
			l.Debug("Dropping question failing schema", zap.Int("index", i), zap.Error(err))
			continue
		}
		var payload domain.QuestionPayload
		if err := json.Unmarshal(item, &payload); err != nil {
			l.Debug("Dropping question with bad field types", zap.Int("index", i), zap.Error(err))
			continue
		}
		q, err := payload.ToQuestion()
		if err != nil {
			l.Debug("Dropping invalid question", zap.Int("index", i), zap.Error(err))
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}
