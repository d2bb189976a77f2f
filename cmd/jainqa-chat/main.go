package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/xxxsen/jainqa/internal/tui"
)

func main() {
	_ = godotenv.Load()

	apiURL := os.Getenv("JAINQA_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	apiKey := os.Getenv("JAINQA_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "JAINQA_API_KEY (or GEMINI_API_KEY) is required")
		os.Exit(1)
	}

	client := tui.NewClient(apiURL, apiKey)
	m := tui.New(client, uuid.NewString())
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "chat client error:", err)
		os.Exit(1)
	}
}
