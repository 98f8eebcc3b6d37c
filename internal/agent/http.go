package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rcliao/tutor-memory/internal/model"
)

// HTTPAgent talks to a memory agent service over its REST API.
type HTTPAgent struct {
	baseURL string
	apiKey  string
	agentID string
	client  *http.Client
}

type httpMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type httpAnalyzeRequest struct {
	SubjectID string        `json:"subject_id"`
	TopicID   string        `json:"topic_id,omitempty"`
	DialogID  string        `json:"dialog_id,omitempty"`
	Messages  []httpMessage `json:"messages"`
}

type httpBlock struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// NewHTTPAgent creates a client for the agent agentID at baseURL.
func NewHTTPAgent(baseURL, apiKey, agentID string, timeout time.Duration) *HTTPAgent {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPAgent{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		agentID: agentID,
		client:  &http.Client{Timeout: timeout},
	}
}

// Analyze sends the instruction and the turn to the agent. A 204 response
// means the agent saw nothing worth remembering.
func (a *HTTPAgent) Analyze(ctx context.Context, c model.Context, instruction string, turn model.Turn) error {
	body, _ := json.Marshal(httpAnalyzeRequest{
		SubjectID: c.SubjectID,
		TopicID:   c.TopicID,
		DialogID:  c.DialogID,
		Messages:  []httpMessage{{Role: "user", Content: instruction + "\n\n" + FormatTurn(c, turn)}},
	})

	resp, err := a.do(ctx, http.MethodPost, a.agentURL("messages"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNoContent {
		return ErrNoUpdate
	}
	return nil
}

// Blocks fetches the agent's current memory blocks for subjectID. Labels
// that are not block kinds are ignored.
func (a *HTTPAgent) Blocks(ctx context.Context, subjectID string) (map[model.BlockKind]string, error) {
	u := a.agentURL("blocks") + "?subject_id=" + url.QueryEscape(subjectID)
	resp, err := a.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result []httpBlock
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}

	blocks := make(map[model.BlockKind]string, len(result))
	for _, b := range result {
		kind := model.BlockKind(b.Label)
		if model.ValidKinds[kind] {
			blocks[kind] = b.Value
		}
	}
	return blocks, nil
}

func (a *HTTPAgent) agentURL(path string) string {
	return a.baseURL + "/v1/agents/" + url.PathEscape(a.agentID) + "/" + path
}

// do sends the request and returns the response for any 2xx status.
func (a *HTTPAgent) do(ctx context.Context, method, u string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("memory agent request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("memory agent error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp, nil
}
