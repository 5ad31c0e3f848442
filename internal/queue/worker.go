package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/amishk599/talentmesh/internal/document"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/profile"
)

// Indexer re-indexes one owner.
type Indexer interface {
	IndexJob(ctx context.Context, job profile.Job) (profile.Outcome, error)
}

// Downloader fetches uploaded files by object key.
type Downloader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Publisher sends status updates.
type Publisher interface {
	PublishStatus(ctx context.Context, u StatusUpdate) error
}

// Worker processes reindex messages.
type Worker struct {
	indexer    Indexer
	downloader Downloader
	publisher  Publisher
	timeout    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewWorker creates a worker. downloader may be nil when no object storage is
// configured; messages referencing objects then fail.
func NewWorker(indexer Indexer, downloader Downloader, publisher Publisher, timeout time.Duration, logger *slog.Logger) *Worker {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Worker{
		indexer:    indexer,
		downloader: downloader,
		publisher:  publisher,
		timeout:    timeout,
		now:        time.Now,
		logger:     logger,
	}
}

// errMalformed marks messages that can never succeed.
var errMalformed = errors.New("malformed message")

// Handle processes one message body. Errors wrapping errMalformed must not be
// retried.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	msg, err := decodeMessage(body)
	if err != nil {
		if msg.OwnerID != "" {
			w.publish(ctx, msg.Owner(), StatusFailed, 0, err.Error())
		}
		return fmt.Errorf("%w: %w", errMalformed, err)
	}
	owner := msg.Owner()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	w.publish(ctx, owner, StatusProcessing, 0, "reindex started")

	sources, err := w.resolve(ctx, msg.Sources)
	if err != nil {
		w.publish(ctx, owner, StatusFailed, 0, err.Error())
		return err
	}

	out, err := w.indexer.IndexJob(ctx, profile.Job{Owner: owner, Sources: sources, Attrs: msg.Attributes})
	if err != nil {
		w.publish(ctx, owner, StatusFailed, 0, err.Error())
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %w", errMalformed, err)
		}
		return err
	}

	status, note := StatusCompleted, "reindex completed"
	switch {
	case !out.Written:
		// previous profile kept; the stale refresher retries later
		status, note = StatusFailed, "no source could be extracted"
	case out.Failed > 0:
		status, note = StatusDegraded, fmt.Sprintf("%d source(s) could not be extracted", out.Failed)
	}
	w.publish(ctx, owner, status, out.Profile.TotalKeywords, note)
	return nil
}

// resolve downloads object-backed sources and converts them to text.
func (w *Worker) resolve(ctx context.Context, refs []SourceRef) ([]model.SourceText, error) {
	out := make([]model.SourceText, 0, len(refs))
	for _, ref := range refs {
		text := ref.Text
		if ref.ObjectKey != "" {
			if w.downloader == nil {
				return nil, fmt.Errorf("%w: object storage is not configured", errMalformed)
			}
			data, err := w.downloader.Download(ctx, ref.ObjectKey)
			if err != nil {
				return nil, err
			}
			mime := ref.Mime
			if mime == "" {
				if mime, err = document.MimeFromPath(ref.ObjectKey); err != nil {
					return nil, fmt.Errorf("%w: %w", errMalformed, err)
				}
			}
			if text, err = document.ExtractText(mime, data); err != nil {
				return nil, fmt.Errorf("%w: %w", errMalformed, err)
			}
		}
		out = append(out, model.SourceText{Source: ref.SourceType, Text: text})
	}
	return out, nil
}

func (w *Worker) publish(ctx context.Context, owner model.Owner, status string, keywords int, note string) {
	if w.publisher == nil {
		return
	}
	u := StatusUpdate{Owner: owner, Status: status, Keywords: keywords, Message: note, Timestamp: w.now()}
	if err := w.publisher.PublishStatus(ctx, u); err != nil {
		w.logger.Warn("failed to publish status update", "owner", owner.Key(), "status", status, "error", err)
	}
}

// Consume runs n workers over the deliveries until ctx is cancelled or the
// channel closes. Malformed messages are rejected without requeue; other
// failures are requeued once.
func (w *Worker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery, n int) {
	if n <= 0 {
		n = 1
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			w.logger.Info("queue worker started", "worker", i+1)
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					w.settle(ctx, d, i+1)
				}
			}
		}()
	}
	wg.Wait()
	w.logger.Info("queue workers stopped")
}

func (w *Worker) settle(ctx context.Context, d amqp.Delivery, worker int) {
	err := w.Handle(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			w.logger.Error("ack failed", "worker", worker, "error", ackErr)
		}
	case errors.Is(err, errMalformed):
		w.logger.Warn("rejecting message", "worker", worker, "error", err)
		_ = d.Reject(false)
	default:
		requeue := !d.Redelivered
		w.logger.Error("reindex failed", "worker", worker, "requeue", requeue, "error", err)
		_ = d.Nack(false, requeue)
	}
}
