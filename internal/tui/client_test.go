package tui_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/jainqa/internal/tui"
)

func TestClientChat(t *testing.T) {
	var gotKey, gotQuery, gotSession string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotQuery = r.URL.Query().Get("query")
		gotSession = r.URL.Query().Get("session_id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"अहिंसा परम धर्म है।"}`))
	}))
	defer server.Close()

	client := tui.NewClient(server.URL, "secret-key")
	answer, err := client.Chat(context.Background(), "अहिंसा क्या है?", "s1")
	require.NoError(t, err)
	require.Equal(t, "अहिंसा परम धर्म है।", answer)
	require.Equal(t, "secret-key", gotKey)
	require.Equal(t, "अहिंसा क्या है?", gotQuery)
	require.Equal(t, "s1", gotSession)
}

func TestClientChatServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":20000001,"message":"x-api-key header is required"}`))
	}))
	defer server.Close()

	client := tui.NewClient(server.URL, "")
	_, err := client.Chat(context.Background(), "प्रश्न", "s1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
	require.Contains(t, err.Error(), "x-api-key header is required")
}

func TestClientChatNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream error</html>"))
	}))
	defer server.Close()

	client := tui.NewClient(server.URL, "key")
	_, err := client.Chat(context.Background(), "प्रश्न", "s1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid response from server")
	require.Contains(t, err.Error(), "502")
}

func TestClientChatMalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := tui.NewClient(server.URL, "key")
	_, err := client.Chat(context.Background(), "प्रश्न", "s1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid response from server")
}

func TestClientUploadFile(t *testing.T) {
	var gotFilename, gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, header.Size)
		_, _ = file.Read(buf)
		gotContent = string(buf)
		_, _ = w.Write([]byte(`{"message":"Knowledge updated."}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "granth.txt")
	require.NoError(t, os.WriteFile(path, []byte("अहिंसा परमो धर्मः।"), 0o644))

	client := tui.NewClient(server.URL, "key")
	message, err := client.UploadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "Knowledge updated.", message)
	require.Equal(t, "granth.txt", gotFilename)
	require.Equal(t, "अहिंसा परमो धर्मः।", gotContent)
}

func TestClientUploadMissingFile(t *testing.T) {
	client := tui.NewClient("http://127.0.0.1:0", "key")
	_, err := client.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
