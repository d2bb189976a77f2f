package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/xxxsen/jainqa/internal/model"
)

const DefaultMaxChunkLen = 1000

// Splitter cuts raw text into chunks of at most maxLen runes. It
// prefers natural boundaries, falling back through the separator list
// (paragraph, line, sentence, word) before a hard rune cut. Chunks are
// disjoint and their concatenation equals the input.
type Splitter struct {
	maxLen     int
	separators []string
}

func NewSplitter(maxLen int) *Splitter {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLen
	}
	return &Splitter{
		maxLen: maxLen,
		// "।" is the danda used as sentence terminator in Hindi scripture.
		separators: []string{"\n\n", "\n", "।", ".", "!", "?", " "},
	}
}

func (s *Splitter) MaxLen() int {
	return s.maxLen
}

func (s *Splitter) Split(source, content string) []model.Chunk {
	if content == "" {
		return nil
	}
	pieces := s.split(content, s.separators)
	chunks := make([]model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, model.Chunk{
			ID:       uuid.NewString(),
			Source:   source,
			Position: i,
			Text:     piece,
		})
	}
	return chunks
}

func (s *Splitter) split(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= s.maxLen {
		return []string{text}
	}
	if len(separators) == 0 {
		return s.hardCut(text)
	}
	parts := splitAfter(text, separators[0])
	if len(parts) == 1 {
		return s.split(text, separators[1:])
	}
	return s.merge(parts, separators[1:])
}

// merge packs consecutive parts into chunks no longer than maxLen.
// A single part that is still too long is split again with the finer
// separators.
func (s *Splitter) merge(parts []string, finer []string) []string {
	var out []string
	var buf strings.Builder
	bufLen := 0
	flush := func() {
		if bufLen == 0 {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
		bufLen = 0
	}
	for _, part := range parts {
		partLen := utf8.RuneCountInString(part)
		if partLen > s.maxLen {
			flush()
			out = append(out, s.split(part, finer)...)
			continue
		}
		if bufLen+partLen > s.maxLen {
			flush()
		}
		buf.WriteString(part)
		bufLen += partLen
	}
	flush()
	return out
}

func (s *Splitter) hardCut(text string) []string {
	var out []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += s.maxLen {
		end := start + s.maxLen
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// splitAfter splits text after each occurrence of sep, keeping the
// separator attached so that joining the parts restores the input.
func splitAfter(text, sep string) []string {
	if sep == "" {
		return []string{text}
	}
	var parts []string
	for {
		idx := strings.Index(text, sep)
		if idx < 0 {
			break
		}
		parts = append(parts, text[:idx+len(sep)])
		text = text[idx+len(sep):]
	}
	if text != "" {
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		parts = append(parts, text)
	}
	return parts
}
