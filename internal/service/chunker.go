package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"rag-quiz/internal/config"
)

// DefaultMinChunkLength is the noise filter: chunks of this many runes or fewer are dropped.
const DefaultMinChunkLength = 10

// Chunker splits documents into retrieval passages.
type Chunker struct {
	targetSize int
	minLength  int
}

func NewChunker(cfg config.RAGConfig) *Chunker {
	c := &Chunker{targetSize: cfg.ChunkSize, minLength: cfg.MinChunkLength}
	if c.targetSize <= 0 {
		c.targetSize = 500
	}
	if c.minLength < 0 {
		c.minLength = DefaultMinChunkLength
	}
	return c
}

// Split greedily packs sentences into chunks of fewer than the target size in
// runes, in input order. Only a single sentence longer than the target may
// exceed it. Chunks never overlap.
func (c *Chunker) Split(text string) []string {
	return splitText(text, c.targetSize, c.minLength)
}

func splitText(text string, targetSize, minLength int) []string {
	chunks := []string{}
	var buf string
	emit := func() {
		if utf8.RuneCountInString(buf) > minLength {
			chunks = append(chunks, buf)
		}
		buf = ""
	}

	for _, s := range splitSentences(text) {
		joined := joinSentence(buf, s)
		if buf != "" && utf8.RuneCountInString(joined) >= targetSize {
			emit()
			joined = s
		}
		buf = joined
	}
	if buf != "" {
		emit()
	}
	return chunks
}

// splitSentences cuts at CJK and ASCII sentence terminators, which stay with
// their sentence, and at line breaks, which are dropped. A period only ends a
// sentence when followed by whitespace or end of input.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		switch {
		case r == '\n' || r == '\r':
			flush()
		case r == '。' || r == '！' || r == '？' || r == '!' || r == '?':
			cur.WriteRune(r)
			flush()
		case r == '.' && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])):
			cur.WriteRune(r)
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// joinSentence appends s to buf, separating with a space unless buf ends in CJK text.
func joinSentence(buf, s string) string {
	if buf == "" {
		return s
	}
	last, _ := utf8.DecodeLastRuneInString(buf)
	if isCJK(last) || last == '。' || last == '！' || last == '？' {
		return buf + s
	}
	return buf + " " + s
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r)
}
