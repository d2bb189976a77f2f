package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/jainqa/internal/pkg/errcode"
)

func decodeBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestUploadRequiresAPIKey(t *testing.T) {
	router := newTestRouter(t)

	resp := doUploadText(router, "", "कुछ पाठ")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	payload := decodeBody(t, resp.Body.Bytes())
	require.Equal(t, float64(errcode.ErrUnauthorized), payload["code"])
}

func TestChatRequiresAPIKey(t *testing.T) {
	router := newTestRouter(t)

	resp := doChat(router, "", "प्रश्न", "s1")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	payload := decodeBody(t, resp.Body.Bytes())
	require.Equal(t, float64(errcode.ErrUnauthorized), payload["code"])
}

func TestUploadRejectsEmptyContent(t *testing.T) {
	router := newTestRouter(t)

	resp := doUploadText(router, "test-key", "   \n\t ")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeBody(t, resp.Body.Bytes())
	require.Equal(t, float64(errcode.ErrNoContent), payload["code"])

	// nothing was indexed, chat still sees an empty knowledge base
	chatResp := doChat(router, "test-key", "अहिंसा क्या है?", "s1")
	require.Equal(t, http.StatusOK, chatResp.Code)
	chatPayload := decodeBody(t, chatResp.Body.Bytes())
	require.Contains(t, chatPayload["answer"], "ज्ञान का आधार")
}

func TestChatRejectsMissingParams(t *testing.T) {
	router := newTestRouter(t)

	resp := doChat(router, "test-key", "", "s1")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doChat(router, "test-key", "प्रश्न", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeBody(t, resp.Body.Bytes())
	require.Equal(t, float64(errcode.ErrInvalid), payload["code"])
}

func TestChatEmptyKnowledgeBase(t *testing.T) {
	router := newTestRouter(t)

	resp := doChat(router, "test-key", "अहिंसा क्या है?", "s1")
	require.Equal(t, http.StatusOK, resp.Code)
	payload := decodeBody(t, resp.Body.Bytes())
	require.Equal(t, "ज्ञान का आधार (Knowledge base) खाली है। कृपया पहले दस्तावेज अपलोड करें।", payload["answer"])
	// the agent never ran
	require.Empty(t, record.all())
}

func TestUploadThenChat(t *testing.T) {
	router := newTestRouter(t)

	resp := doUploadText(router, "test-key", "अहिंसा परमो धर्मः। क्षमा वीरस्य भूषणम्।")
	require.Equal(t, http.StatusOK, resp.Code)
	payload := decodeBody(t, resp.Body.Bytes())
	require.Equal(t, "Knowledge updated.", payload["message"])

	chatResp := doChat(router, "test-key", "अहिंसा क्या है?", "s1")
	require.Equal(t, http.StatusOK, chatResp.Code)
	chatPayload := decodeBody(t, chatResp.Body.Bytes())
	require.Equal(t, "शास्त्रों के अनुसार अहिंसा ही परम धर्म है।", chatPayload["answer"])

	// the agent went through one search round before answering
	prompts := record.all()
	require.Len(t, prompts, 2)
	require.Contains(t, prompts[1], "Observation: ")
	require.Contains(t, prompts[1], "अहिंसा परमो धर्मः")
}

func TestChatCarriesSessionHistory(t *testing.T) {
	router := newTestRouter(t)

	resp := doUploadText(router, "test-key", "अहिंसा परमो धर्मः।")
	require.Equal(t, http.StatusOK, resp.Code)

	first := doChat(router, "test-key", "अहिंसा क्या है?", "same-session")
	require.Equal(t, http.StatusOK, first.Code)

	record.reset()
	second := doChat(router, "test-key", "और विस्तार से बताइए।", "same-session")
	require.Equal(t, http.StatusOK, second.Code)

	prompts := record.all()
	require.NotEmpty(t, prompts)
	require.Contains(t, prompts[0], "उपयोगकर्ता: अहिंसा क्या है?")
	require.Contains(t, prompts[0], "सहायक: शास्त्रों के अनुसार अहिंसा ही परम धर्म है।")
}

func TestChatSessionsIsolated(t *testing.T) {
	router := newTestRouter(t)

	resp := doUploadText(router, "test-key", "अहिंसा परमो धर्मः।")
	require.Equal(t, http.StatusOK, resp.Code)

	first := doChat(router, "test-key", "अहिंसा क्या है?", "session-a")
	require.Equal(t, http.StatusOK, first.Code)

	record.reset()
	second := doChat(router, "test-key", "धर्म क्या है?", "session-b")
	require.Equal(t, http.StatusOK, second.Code)

	for _, prompt := range record.all() {
		require.NotContains(t, prompt, "उपयोगकर्ता: अहिंसा क्या है?")
	}
}

func TestUploadMarkdownFile(t *testing.T) {
	router := newTestRouter(t)

	resp := doUploadFile(router, "test-key", "granth.md", "# अध्याय\n\nअहिंसा परमो धर्मः।\n")
	require.Equal(t, http.StatusOK, resp.Code)
	payload := decodeBody(t, resp.Body.Bytes())
	require.Equal(t, "Knowledge updated.", payload["message"])

	chatResp := doChat(router, "test-key", "अहिंसा क्या है?", "s1")
	require.Equal(t, http.StatusOK, chatResp.Code)
	chatPayload := decodeBody(t, chatResp.Body.Bytes())
	require.NotEmpty(t, chatPayload["answer"])
	require.NotContains(t, chatPayload["answer"], "ज्ञान का आधार")
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t)

	resp := doChat(router, "test-key", "", "")
	require.NotEmpty(t, resp.Header().Get("X-Request-Id"))

	// a caller-supplied id is echoed back unchanged
	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("X-Request-Id", "req-12345")
	echoed := serve(router, req)
	require.Equal(t, "req-12345", echoed.Header().Get("X-Request-Id"))
}

func TestCORSPreflightUpload(t *testing.T) {
	router := newTestRouter(t)

	req, err := http.NewRequest(http.MethodOptions, "/upload", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := serve(router, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Contains(t, strings.ToLower(resp.Header().Get("Access-Control-Allow-Headers")), "x-api-key")
}
