package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/agent"
	"github.com/xxxsen/jainqa/internal/ai"
	"github.com/xxxsen/jainqa/internal/config"
	"github.com/xxxsen/jainqa/internal/embedcache"
	"github.com/xxxsen/jainqa/internal/index"
	"github.com/xxxsen/jainqa/internal/knowledge"
	"github.com/xxxsen/jainqa/internal/pkg/errcode"
	"github.com/xxxsen/jainqa/internal/pkg/response"
	"github.com/xxxsen/jainqa/internal/session"
)

// emptyKnowledgeBaseAnswer is returned when nothing has been uploaded
// yet; retrieval and the agent are never touched in that case.
const emptyKnowledgeBaseAnswer = "ज्ञान का आधार (Knowledge base) खाली है। कृपया पहले दस्तावेज अपलोड करें।"

type ChatHandler struct {
	aiCfg    config.AIConfig
	store    *index.Store
	sessions *session.Store
	cache    *embedcache.Cache
}

func NewChatHandler(aiCfg config.AIConfig, store *index.Store, sessions *session.Store, cache *embedcache.Cache) *ChatHandler {
	return &ChatHandler{
		aiCfg:    aiCfg,
		store:    store,
		sessions: sessions,
		cache:    cache,
	}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	key, ok := requireAPIKey(c)
	if !ok {
		return
	}
	query := strings.TrimSpace(c.Query("query"))
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if query == "" || sessionID == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "query and session_id are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.aiCfg.Timeout)*time.Second)
	defer cancel()

	count, err := h.store.Count(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("index count failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "knowledge index unavailable")
		return
	}
	if count == 0 {
		response.Success(c, gin.H{"answer": emptyKnowledgeBaseAnswer})
		return
	}

	provider, err := ai.NewProvider(h.aiCfg.Provider, map[string]interface{}{"api_key": key})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "init ai provider failed")
		return
	}
	generator := ai.NewGenerator(provider, h.aiCfg.ChatModel)
	embedder := h.cache.Wrap(ai.NewEmbedder(provider, h.aiCfg.EmbedModel))

	history := h.sessions.GetOrCreate(sessionID)
	tool := knowledge.NewScriptureSearchTool(h.store, embedder, h.aiCfg.TopK)
	executor := agent.NewExecutor(generator, []agent.Tool{tool}, history, h.aiCfg.MaxIterations)

	answer, err := executor.Run(ctx, query)
	if err != nil {
		logutil.GetLogger(ctx).Error("agent run failed", zap.String("session_id", sessionID), zap.Error(err))
		response.Error(c, http.StatusBadGateway, errcode.ErrAIUnavailable, err.Error())
		return
	}
	response.Success(c, gin.H{"answer": answer})
}
