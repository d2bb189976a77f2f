package index

import (
	"math"
	"sort"

	"github.com/xxxsen/jainqa/internal/model"
)

// Entry is one indexed chunk with its embedding vector.
type Entry struct {
	Chunk  model.Chunk `json:"chunk"`
	Vector []float32   `json:"vector"`
}

type snapshot struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

func searchEntries(entries []Entry, query []float32, topK int) []model.SearchResult {
	if topK <= 0 {
		topK = 4
	}
	results := make([]model.SearchResult, 0, len(entries))
	for _, item := range entries {
		results = append(results, model.SearchResult{
			Chunk: item.Chunk,
			Score: cosineSimilarity(query, item.Vector),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
