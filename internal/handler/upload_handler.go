package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/ai"
	"github.com/xxxsen/jainqa/internal/config"
	"github.com/xxxsen/jainqa/internal/embedcache"
	"github.com/xxxsen/jainqa/internal/filestore"
	"github.com/xxxsen/jainqa/internal/index"
	"github.com/xxxsen/jainqa/internal/ingest"
	"github.com/xxxsen/jainqa/internal/model"
	"github.com/xxxsen/jainqa/internal/pkg/errcode"
	"github.com/xxxsen/jainqa/internal/pkg/response"
)

const uploadedMessage = "Knowledge updated."

type UploadHandler struct {
	aiCfg    config.AIConfig
	store    *index.Store
	files    filestore.Store
	cache    *embedcache.Cache
	splitter *ingest.Splitter
	markdown *ingest.MarkdownSplitter
}

func NewUploadHandler(aiCfg config.AIConfig, chunkSize int, store *index.Store, files filestore.Store, cache *embedcache.Cache) *UploadHandler {
	return &UploadHandler{
		aiCfg:    aiCfg,
		store:    store,
		files:    files,
		cache:    cache,
		splitter: ingest.NewSplitter(chunkSize),
		markdown: ingest.NewMarkdownSplitter(chunkSize),
	}
}

// Upload accepts raw text and/or a file, splits it into chunks and
// merges them into the shared knowledge index. Uploads are additive:
// nothing is ever replaced or deduplicated.
func (h *UploadHandler) Upload(c *gin.Context) {
	key, ok := requireAPIKey(c)
	if !ok {
		return
	}
	source, content, err := readUploadContent(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "unreadable upload: "+err.Error())
		return
	}
	if strings.TrimSpace(content) == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrNoContent, "no content")
		return
	}

	provider, err := ai.NewProvider(h.aiCfg.Provider, map[string]interface{}{"api_key": key})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "init ai provider failed")
		return
	}
	embedder := h.cache.Wrap(ai.NewEmbedder(provider, h.aiCfg.EmbedModel))

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.aiCfg.Timeout)*time.Second)
	defer cancel()

	var chunks []model.Chunk
	if strings.HasSuffix(strings.ToLower(source), ".md") {
		chunks = h.markdown.Split(ctx, source, content)
	} else {
		chunks = h.splitter.Split(source, content)
	}

	added, err := h.store.Insert(ctx, chunks, embedder)
	if err != nil {
		if errors.Is(err, index.ErrEmbed) {
			response.Error(c, http.StatusBadGateway, errcode.ErrAIUnavailable, err.Error())
			return
		}
		logutil.GetLogger(ctx).Error("index insert failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "index update failed")
		return
	}
	h.archive(ctx, source, content)
	logutil.GetLogger(ctx).Info("upload indexed",
		zap.String("source", source),
		zap.Int("chunks", added),
	)
	response.Success(c, gin.H{"message": uploadedMessage})
}

// archive keeps the raw document in the file store when one is
// configured. Failure to archive never fails the upload.
func (h *UploadHandler) archive(ctx context.Context, source, content string) {
	if h.files == nil {
		return
	}
	name := strings.TrimSpace(source)
	if name == "" || name == "inline" {
		name = "inline.txt"
	}
	key := uuid.NewString() + "-" + strings.ReplaceAll(name, "/", "_")
	reader := nopReadSeekCloser{bytes.NewReader([]byte(content))}
	if err := h.files.Save(ctx, key, reader, int64(len(content))); err != nil {
		logutil.GetLogger(ctx).Warn("archive upload failed", zap.String("key", key), zap.Error(err))
	}
}

func readUploadContent(c *gin.Context) (source string, content string, err error) {
	file, ferr := c.FormFile("file")
	if ferr != nil {
		return "inline", c.PostForm("text"), nil
	}
	opened, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		return "", "", err
	}
	return file.Filename, string(data), nil
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }
