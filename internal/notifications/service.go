package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"riftcap/internal/config"
)

const userAgent = "Riftcap/0.1.0"

// Service defines the notification surface exposed to the monitor and CLI.
type Service interface {
	NotifyRecordingStarted(ctx context.Context, phase, queueType string) error
	NotifyRecordingSaved(ctx context.Context, path string) error
	NotifyDodge(ctx context.Context, phase string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		recording: cfg.Notifications.Recording,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	recording bool
	errors    bool
}

func (n *ntfyService) NotifyRecordingStarted(ctx context.Context, phase, queueType string) error {
	if !n.recording {
		return nil
	}
	queueType = strings.TrimSpace(queueType)
	if queueType == "" {
		queueType = "unknown queue"
	}
	data := payload{
		title:   "Riftcap - Recording Started",
		message: fmt.Sprintf("Recording started during %s (%s)", phase, queueType),
		tags:    []string{"riftcap", "recording", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecordingSaved(ctx context.Context, path string) error {
	if !n.recording {
		return nil
	}
	data := payload{
		title:    "Riftcap - Capture Saved",
		message:  fmt.Sprintf("Capture saved: %s", strings.TrimSpace(path)),
		tags:     []string{"riftcap", "recording", "saved"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDodge(ctx context.Context, phase string) error {
	if !n.recording {
		return nil
	}
	data := payload{
		title:   "Riftcap - Game Dodged",
		message: fmt.Sprintf("Game dodged during %s, recording stopped", strings.TrimSpace(phase)),
		tags:    []string{"riftcap", "dodge"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Riftcap - Error",
		message:  builder.String(),
		tags:     []string{"riftcap", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Riftcap - Test",
		message:  "Notification system test",
		tags:     []string{"riftcap", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRecordingStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyRecordingSaved(context.Context, string) error           { return nil }
func (noopService) NotifyDodge(context.Context, string) error                    { return nil }
func (noopService) NotifyError(context.Context, error, string) error             { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
