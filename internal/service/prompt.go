package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"rag-quiz/internal/domain"
)

// historyItem is what generation prompts see of earlier questions.
type historyItem struct {
	QuestionText string              `json:"question_text"`
	QuestionType domain.QuestionType `json:"question_type"`
}

func historyFromPayloads(payloads []domain.QuestionPayload) []historyItem {
	out := make([]historyItem, len(payloads))
	for i, p := range payloads {
		out[i] = historyItem{QuestionText: p.QuestionText, QuestionType: p.QuestionType}
	}
	return out
}

// generationRequest holds everything a generation prompt is built from.
type generationRequest struct {
	Content    string
	Types      []domain.QuestionType
	Difficulty string
	Count      int
	History    []historyItem
	Language   string
	TrueLabel  string
	FalseLabel string
}

func buildFormatExamples(trueLabel, falseLabel string) string {
	return `## 選擇題 (multiple_choice)
{
  "question_text": "問題內容",
  "question_type": "multiple_choice",
  "options": [
    {"text": "選項A", "is_correct": true},
    {"text": "選項B", "is_correct": false},
    {"text": "選項C", "is_correct": false},
    {"text": "選項D", "is_correct": false}
  ],
  "answer_text": "正確答案解釋",
  "explanation": "詳細解釋"
}
## 是非題 (true_false)
{
  "question_text": "問題內容（是非判斷）",
  "question_type": "true_false",
  "options": [
    {"text": "` + trueLabel + `", "is_correct": true},
    {"text": "` + falseLabel + `", "is_correct": false}
  ],
  "answer_text": "` + trueLabel + `或` + falseLabel + `",
  "explanation": "詳細解釋"
}
## 簡答題 (short_answer)
{
  "question_text": "問題內容",
  "question_type": "short_answer",
  "answer_text": "參考答案",
  "explanation": "詳細解釋"
}
## 論述題 (essay)
{
  "question_text": "問題內容",
  "question_type": "essay",
  "answer_text": "參考答案框架",
  "explanation": "評分要點"
}`
}

func buildGenerationPrompt(req generationRequest) string {
	types := make([]string, len(req.Types))
	for i, t := range req.Types {
		types[i] = string(t)
	}
	typeList := strings.Join(types, ", ")

	var b strings.Builder
	b.WriteString("# 學習內容\n")
	b.WriteString(req.Content)
	b.WriteString("\n\n# 題目格式要求\n以下是各種題型的JSON格式範例：\n")
	b.WriteString(buildFormatExamples(req.TrueLabel, req.FalseLabel))

	b.WriteString("\n\n# 生成要求\n")
	fmt.Fprintf(&b, "請根據內容生成 %d 個題目，類型包括 %s，難度為 %s。\n", req.Count, typeList, req.Difficulty)
	fmt.Fprintf(&b, "語言請使用%s，專有名詞可中英對照。\n", req.Language)
	fmt.Fprintf(&b, "題目數量嚴格限制為 %d 個，類型僅限於 %s。\n", req.Count, typeList)
	fmt.Fprintf(&b, "是非題選項文字僅能為「%s」與「%s」。\n", req.TrueLabel, req.FalseLabel)
	b.WriteString("選擇題與是非題必須恰好有一個選項的 is_correct 為 true。\n")

	if len(req.History) > 0 {
		b.WriteString("生成新題目時必須與歷史題目的內容和主題有所不同。\n")
		history, err := json.MarshalIndent(req.History, "", "  ")
		if err == nil {
			b.WriteString("\n# 已生成的題目（請避免重複類似內容）\n")
			b.Write(history)
			b.WriteString("\n\n重要：請確保新生成的題目與上述歷史題目內容不重複。\n")
		}
	}

	b.WriteString("\n請嚴格按照上述格式，僅返回JSON格式的題目列表：\n[\n  {題目1},\n  {題目2},\n  ...\n]\n")
	return b.String()
}

func buildGradingPrompt(question, referenceAnswer, submission string) string {
	return fmt.Sprintf(`請為以下回答評分（0-100分）：

問題：%s
標準答案：%s
學生回答：%s

評分標準：
- 完全正確：90-100分
- 大部分正確：70-89分
- 部分正確：50-69分
- 略有相關：30-49分
- 完全錯誤：0-29分

請直接回答數字分數，不要其他說明。`, question, referenceAnswer, submission)
}

func buildSummaryPrompt(excerpt, language string, maxRunes int) string {
	return fmt.Sprintf("請為以下內容生成%d字以內的摘要，使用%s：\n\n%s...\n\n摘要：", maxRunes, language, excerpt)
}
