package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/model"
)

// MarkdownSplitter splits markdown uploads along document structure:
// every level 1-2 heading starts a new section, and each section is
// bounded by the plain recursive splitter. Sections are raw source
// slices, so chunk concatenation reproduces the upload byte for byte
// and link targets, inline syntax and raw HTML all stay retrievable.
// Headings inside fenced code blocks do not cut.
type MarkdownSplitter struct {
	fallback *Splitter
}

func NewMarkdownSplitter(maxLen int) *MarkdownSplitter {
	return &MarkdownSplitter{fallback: NewSplitter(maxLen)}
}

func (m *MarkdownSplitter) Split(ctx context.Context, source, markdown string) []model.Chunk {
	if markdown == "" {
		return nil
	}
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	cuts := []int{0}
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok || heading.Level > 2 || heading.Lines().Len() == 0 {
			continue
		}
		start := lineStart(src, heading.Lines().At(0).Start)
		if start > 0 {
			cuts = append(cuts, start)
		}
	}

	var chunks []model.Chunk
	position := 0
	for i, cut := range cuts {
		end := len(src)
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}
		section := string(src[cut:end])
		if section == "" {
			continue
		}
		for _, piece := range m.fallback.split(section, m.fallback.separators) {
			chunks = append(chunks, model.Chunk{
				ID:       uuid.NewString(),
				Source:   source,
				Position: position,
				Text:     piece,
			})
			position++
		}
	}
	logutil.GetLogger(ctx).Debug("markdown split done",
		zap.String("source", source),
		zap.Int("sections", len(cuts)),
		zap.Int("chunks", len(chunks)),
	)
	return chunks
}

// lineStart walks back from a heading's text segment to the beginning
// of its line, so the cut keeps the "#" markers with the heading.
func lineStart(src []byte, offset int) int {
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}
	return offset
}
