package main

import (
	"flag"
	"fmt"
	"os"

	"rebirth/internal/dashboard"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	baseURL := flag.String("base-url", getenv("API_BASE_URL", "http://localhost:8080"), "API server base URL")
	token := flag.String("token", os.Getenv("ADMIN_TOKEN"), "admin access token")
	limit := flag.Int("limit", 20, "orders per page")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "admin token required (-token or ADMIN_TOKEN)")
		os.Exit(2)
	}

	client := dashboard.NewClient(*baseURL, *token)
	client.Limit = *limit

	if _, err := tea.NewProgram(dashboard.NewModel(client)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
