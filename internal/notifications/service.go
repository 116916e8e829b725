package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"q7z/internal/config"
	"q7z/internal/extract"
)

const userAgent = "q7z/0.1"

// Service is the notification surface used by the job dispatcher.
type Service interface {
	NotifyJobCompleted(ctx context.Context, req extract.Request, elapsed time.Duration) error
	NotifyJobFailed(ctx context.Context, req extract.Request, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when a topic is
// configured and a noop implementation otherwise.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Notifications.Completed,
		failed:    cfg.Notifications.Failed,
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
	completed bool
	failed    bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, req extract.Request, elapsed time.Duration) error {
	if !n.completed {
		return nil
	}
	elapsed = elapsed.Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return n.send(ctx, payload{
		title:   "q7z - Extracted",
		message: fmt.Sprintf("Extracted %s to %s in %s", archiveName(req.Input), req.Output, elapsed),
		tags:    []string{"q7z", "extract", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, req extract.Request, err error) error {
	if !n.failed {
		return nil
	}
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	return n.send(ctx, payload{
		title:    "q7z - Extraction Failed",
		message:  fmt.Sprintf("Could not extract %s: %s", archiveName(req.Input), reason),
		tags:     []string{"q7z", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "q7z - Test",
		message:  "Notification system test",
		tags:     []string{"q7z", "test"},
		priority: "low",
	})
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

func archiveName(path string) string {
	if name := filepath.Base(strings.TrimSpace(path)); name != "." && name != string(filepath.Separator) {
		return name
	}
	return path
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, extract.Request, time.Duration) error {
	return nil
}
func (noopService) NotifyJobFailed(context.Context, extract.Request, error) error { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
