// Package querychatctl is a terminal client for the chat API.
package querychatctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	SessionID  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type historyEntry struct {
	Text   string
	IsUser bool
}

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("querychatctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "querychat API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	sessionID := fs.String("session", defaults.SessionID, "chat session id (ask, history)")
	// Answers wait on the model and the database, so the default is generous.
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 60s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	httpClient := defaults.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: *timeout}
	}
	c := client{http: httpClient, baseURL: strings.TrimRight(*baseURL, "/"), apiKey: strings.TrimSpace(*apiKey)}

	switch command := strings.TrimSpace(fs.Arg(0)); command {
	case "ask":
		question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			return 2
		}
		return c.ask(ctx, stdout, stderr, strings.TrimSpace(*sessionID), question)
	case "history":
		if strings.TrimSpace(*sessionID) == "" {
			_, _ = fmt.Fprintln(stderr, "history requires -session or QUERYCHAT_SESSION_ID")
			return 2
		}
		return c.history(ctx, stdout, stderr, strings.TrimSpace(*sessionID))
	case "new-session":
		return c.newSession(ctx, stdout, stderr)
	case "health":
		return c.printJSON(ctx, stdout, stderr, "/v1/health")
	case "ready":
		return c.printJSON(ctx, stdout, stderr, "/v1/ready")
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}
}

func (c client) ask(ctx context.Context, stdout, stderr io.Writer, sessionID, question string) int {
	payload, err := json.Marshal(map[string]string{"message": question, "session_id": sessionID})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "encode request: %v\n", err)
		return 1
	}
	body, ok := c.call(ctx, stderr, http.MethodPost, "/api/chat", payload)
	if !ok {
		return 1
	}

	var reply struct {
		Response  string `json:"response"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		_, _ = fmt.Fprintf(stderr, "decode response: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, reply.Response)
	if reply.SessionID != sessionID {
		_, _ = fmt.Fprintf(stderr, "session: %s\n", reply.SessionID)
	}
	return 0
}

func (c client) history(ctx context.Context, stdout, stderr io.Writer, sessionID string) int {
	body, ok := c.call(ctx, stderr, http.MethodGet, "/api/get-history?session_id="+url.QueryEscape(sessionID), nil)
	if !ok {
		return 1
	}

	var raw [][2]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		_, _ = fmt.Fprintf(stderr, "decode history: %v\n", err)
		return 1
	}
	entries := make([]historyEntry, 0, len(raw))
	for _, pair := range raw {
		var entry historyEntry
		if err := json.Unmarshal(pair[0], &entry.Text); err != nil {
			_, _ = fmt.Fprintf(stderr, "decode history: %v\n", err)
			return 1
		}
		if err := json.Unmarshal(pair[1], &entry.IsUser); err != nil {
			_, _ = fmt.Fprintf(stderr, "decode history: %v\n", err)
			return 1
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(stderr, "no messages")
		return 0
	}
	for _, entry := range entries {
		speaker := "assistant"
		if entry.IsUser {
			speaker = "you"
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s\n\n", speaker, entry.Text)
	}
	return 0
}

func (c client) newSession(ctx context.Context, stdout, stderr io.Writer) int {
	body, ok := c.call(ctx, stderr, http.MethodPost, "/api/session", nil)
	if !ok {
		return 1
	}
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		_, _ = fmt.Fprintf(stderr, "decode response: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, created.SessionID)
	return 0
}

func (c client) printJSON(ctx context.Context, stdout, stderr io.Writer, path string) int {
	body, ok := c.call(ctx, stderr, http.MethodGet, path, nil)
	if !ok {
		return 1
	}
	if pretty, ok := prettyJSON(body); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(body) > 0 {
		_, _ = fmt.Fprintln(stdout, string(body))
	}
	return 0
}

// call reports request and HTTP failures on stderr.
func (c client) call(ctx context.Context, stderr io.Writer, method, path string, payload []byte) ([]byte, bool) {
	code, body, err := c.doRequest(ctx, method, c.baseURL+path, payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return nil, false
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(body)))
		return nil, false
	}
	return body, true
}

func (c client) doRequest(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: querychatctl [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  ask <question...>   POST /api/chat and print the answer")
	_, _ = fmt.Fprintln(w, "  history             GET /api/get-history for -session")
	_, _ = fmt.Fprintln(w, "  new-session         POST /api/session and print the id")
	_, _ = fmt.Fprintln(w, "  health              GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready               GET /v1/ready")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
