package ai

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"nimbus/internal/proxy"
)

// ErrUnreachable marks transport-level failures to the model backend. The
// dispatcher maps it to a degraded user-facing message and keeps running.
var ErrUnreachable = errors.New("model backend unreachable")

// Degraded is the reply spoken when the backend cannot be reached.
const Degraded = "I cannot connect to my local neural core."

const defaultPersona = `You are Nimbus, a highly advanced personal assistant.
Personality: composed, precise, a touch of dry wit, loyal.
Tone: professional, calm, brief.
Capabilities: you have full access to hardware metrics, camera, and terminal.
Do NOT output internal thoughts or JSON metadata. Speak ONLY natural dialogue.`

// Turn is one prior exchange replayed into the model context.
type Turn struct {
	User      string
	Assistant string
}

// HistorySource supplies recent conversation turns, oldest first.
type HistorySource interface {
	Recent(ctx context.Context, n int) ([]Turn, error)
}

type Config struct {
	BaseURL   string        // Ollama-compatible endpoint, e.g. http://localhost:11434/v1
	APIKey    string        // unused by local backends but required by the client
	Model     string        // e.g. llama3.2:1b
	ProxyAddr string        // optional SOCKS5 egress
	Timeout   time.Duration // per-request bound, default 30s
}

// Client wraps chat completions against the local model endpoint.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
	history HistorySource
}

func New(cfg Config, history HistorySource) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("model name required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.ProxyAddr != "" {
		httpClient, err := proxy.NewSocksClient(cfg.ProxyAddr)
		if err != nil {
			return nil, fmt.Errorf("dial socks proxy: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Client{
		api:     openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		history: history,
	}, nil
}

// Request describes one completion call.
type Request struct {
	System      string // system instruction; empty selects the default persona
	Prompt      string
	JSON        bool // request json_object response format, return raw content
	WithHistory bool // replay the last 4 conversation turns
}

var strayJSON = regexp.MustCompile(`(?s)\{.*?\}`)

// Ask runs one chat completion. Conversational responses get stray JSON
// blocks stripped; JSON requests return the raw content for the caller to
// parse. Transport failures come back wrapped in ErrUnreachable.
func (c *Client) Ask(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	system := req.System
	if system == "" {
		system = defaultPersona
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
	}

	if req.WithHistory && c.history != nil {
		turns, err := c.history.Recent(ctx, 4)
		if err != nil {
			log.Warn("history replay unavailable", "err", err)
		}
		for _, t := range turns {
			if t.User != "" {
				messages = append(messages, openai.UserMessage(t.User))
			}
			if t.Assistant != "" {
				messages = append(messages, openai.AssistantMessage(t.Assistant))
			}
		}
	}

	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.model),
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		if isTransport(err) {
			return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("empty message content")
	}

	if req.JSON {
		return strings.TrimSpace(content), nil
	}

	cleaned := strings.TrimSpace(strayJSON.ReplaceAllString(content, ""))
	if cleaned == "" {
		cleaned = strings.TrimSpace(content)
	}
	return cleaned, nil
}

func isTransport(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	// openai-go surfaces connection refusals through url.Error as well
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), http.StatusText(http.StatusBadGateway))
}
