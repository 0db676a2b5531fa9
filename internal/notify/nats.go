// Package notify publishes build results to NATS for external consumers
// (CI dashboards, chat bridges). Notification is optional and best effort
// in watch mode: a broken broker never blocks a build.
package notify

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/webforge-dev/webforge/internal/build"
	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// BuildEvent is the wire format of a published build result.
type BuildEvent struct {
	BuildID        string    `json:"build_id"`
	Project        string    `json:"project"`
	Status         string    `json:"status"`
	StartedAt      time.Time `json:"started_at"`
	DurationMS     int64     `json:"duration_ms"`
	UnbundledFiles int64     `json:"unbundled_files"`
	BundledFiles   int64     `json:"bundled_files"`
	Error          string    `json:"error,omitempty"`
}

// Publisher sends build events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
}

// NewPublisher connects to the broker. url must be non-empty; callers skip
// construction entirely when notification is not configured.
func NewPublisher(url, subject string, log *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("webforge"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "connect to broker").
			WithContext("url", url).Build()
	}

	log.Info("notification publisher connected", "url", conn.ConnectedUrl(), "subject", subject)
	return &Publisher{conn: conn, subject: subject, log: log}, nil
}

// PublishResult publishes one build outcome.
func (p *Publisher) PublishResult(project string, result *build.Result, buildErr error) error {
	event := BuildEvent{
		BuildID:        result.BuildID,
		Project:        project,
		Status:         "ok",
		StartedAt:      result.StartedAt.UTC(),
		DurationMS:     result.Duration.Milliseconds(),
		UnbundledFiles: result.UnbundledFiles,
		BundledFiles:   result.BundledFiles,
	}
	if buildErr != nil {
		event.Status = "failed"
		event.Error = buildErr.Error()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "encode build event").Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "publish build event").
			WithContext("subject", p.subject).Build()
	}

	p.log.Debug("published build event", "build_id", event.BuildID, "status", event.Status)
	return nil
}

// Close flushes pending messages and drops the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
