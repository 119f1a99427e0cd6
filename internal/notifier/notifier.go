package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/tracker"
)

var ErrNoWebhook = errors.New("webhook URL is not configured")

// Kind identifies what a webhook payload announces.
type Kind string

const (
	KindReminder  Kind = "reminder"
	KindMilestone Kind = "milestone"
	KindBroken    Kind = "streak_broken"
	KindRecovered Kind = "streak_recovered"
)

type WebhookPayload struct {
	Kind          Kind               `json:"kind"`
	UserID        string             `json:"user_id"`
	JournalType   string             `json:"journal_type"`
	Text          string             `json:"text"`
	CurrentStreak int                `json:"current_streak"`
	Milestones    []models.Milestone `json:"milestones,omitempty"`
	SentAt        time.Time          `json:"sent_at"`
}

// Notifier posts JSON payloads to a webhook, authenticated by a shared secret.
type Notifier struct {
	url        string
	secret     string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

type Option func(*Notifier)

func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.client = c }
}

func WithRetries(maxRetries int, delay time.Duration) Option {
	return func(n *Notifier) {
		n.maxRetries = maxRetries
		n.retryDelay = delay
	}
}

func New(webhookURL, secret string, opts ...Option) (*Notifier, error) {
	if webhookURL == "" {
		return nil, ErrNoWebhook
	}
	u, err := url.Parse(webhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook URL %q", webhookURL)
	}

	n := &Notifier{
		url:        webhookURL,
		secret:     secret,
		client:     &http.Client{Timeout: constants.NotifyTimeout},
		maxRetries: constants.NotifyMaxRetries,
		retryDelay: constants.NotifyRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify sends a payload, retrying network errors and 5xx responses.
func (n *Notifier) Notify(ctx context.Context, payload WebhookPayload) error {
	if payload.SentAt.IsZero() {
		payload.SentAt = n.now().UTC()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.retryDelay * time.Duration(attempt)):
			}
		}

		retry, err := n.send(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			break
		}
		logger.Debug("Webhook delivery failed, retrying", "attempt", attempt+1, "error", err)
	}
	return lastErr
}

func (n *Notifier) send(ctx context.Context, body []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set(constants.NotifySecretHeader, n.secret)
	}

	res, err := n.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return false, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return res.StatusCode >= 500, fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(msg))
}

// Publish forwards tracker events to the webhook.
func (n *Notifier) Publish(ctx context.Context, ev tracker.Event) error {
	payload := WebhookPayload{
		UserID:        ev.UserID,
		JournalType:   ev.JournalType,
		CurrentStreak: ev.Streak.CurrentStreak,
		SentAt:        ev.OccurredAt,
	}
	switch ev.Kind {
	case tracker.EventMilestone:
		if len(ev.Milestones) == 0 {
			return nil
		}
		payload.Kind = KindMilestone
		payload.Milestones = ev.Milestones
		payload.Text = ev.Milestones[0].Title
		if len(ev.Milestones) > 1 {
			payload.Text = fmt.Sprintf("%s (+%d more)", payload.Text, len(ev.Milestones)-1)
		}
	case tracker.EventBroken:
		payload.Kind = KindBroken
		payload.Text = "Your streak was reset. Every day is a fresh start."
	case tracker.EventRecovered:
		payload.Kind = KindRecovered
		payload.Text = fmt.Sprintf("Streak recovered at %d days.", ev.Streak.CurrentStreak)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return n.Notify(ctx, payload)
}
