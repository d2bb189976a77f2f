package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client talks to the jainqa API. Every failure comes back as an error
// string for the chat view; malformed server output must never crash
// the client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 180 * time.Second},
	}
}

// Chat asks a question within the session and returns the answer.
func (c *Client) Chat(ctx context.Context, query, sessionID string) (string, error) {
	endpoint := fmt.Sprintf("%s/chat?query=%s&session_id=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}
	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Answer == "" {
		return "", fmt.Errorf("invalid response from server (status %d)", status)
	}
	return out.Answer, nil
}

// UploadFile indexes a local document.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Message == "" {
		return "", fmt.Errorf("invalid response from server (status %d)", status)
	}
	return out.Message, nil
}

// do sends the request with the credential attached and converts
// non-200 responses into readable errors carrying the status code.
func (c *Client) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("x-api-key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
			return nil, resp.StatusCode, fmt.Errorf("server error (status %d): %s", resp.StatusCode, payload.Message)
		}
		return nil, resp.StatusCode, fmt.Errorf("invalid response from server (status %d)", resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}
