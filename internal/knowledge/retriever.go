package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/agent"
	"github.com/xxxsen/jainqa/internal/ai"
	"github.com/xxxsen/jainqa/internal/index"
)

const (
	// ToolName and ToolDescription are part of the agent prompt; the
	// description tells the model what the tool is good for.
	ToolName        = "jain_scripture_search"
	ToolDescription = "दिगंबर जैन ग्रंथों और शास्त्रों के अंश खोजने के लिए उपयोगी।"

	noExcerptsFound = "शास्त्रों में कोई प्रासंगिक अंश नहीं मिला।"
)

// NewScriptureSearchTool exposes the knowledge index as the agent's
// single search capability: free-text query in, concatenated chunk
// excerpts out.
func NewScriptureSearchTool(store *index.Store, embedder ai.IEmbedder, topK int) agent.Tool {
	return agent.Tool{
		Name:        ToolName,
		Description: ToolDescription,
		Run: func(ctx context.Context, query string) (string, error) {
			vector, err := embedder.Embed(ctx, query, "RETRIEVAL_QUERY")
			if err != nil {
				return "", fmt.Errorf("embed query: %w", err)
			}
			results, err := store.Search(ctx, vector, topK)
			if err != nil {
				return "", fmt.Errorf("search index: %w", err)
			}
			if len(results) == 0 {
				return noExcerptsFound, nil
			}
			logutil.GetLogger(ctx).Debug("scripture search",
				zap.Int("results", len(results)),
				zap.Float32("top_score", results[0].Score),
			)
			excerpts := make([]string, 0, len(results))
			for _, result := range results {
				excerpts = append(excerpts, result.Chunk.Text)
			}
			return strings.Join(excerpts, "\n\n"), nil
		},
	}
}
