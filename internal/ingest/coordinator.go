// Package ingest wires the broker session output through topic parsing,
// payload validation and the staging store, and reports pipeline statistics.
package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"sites-ingestion-service/internal/model"
	"sites-ingestion-service/internal/payload"
	"sites-ingestion-service/internal/repository"
	"sites-ingestion-service/internal/topic"

	"github.com/rs/zerolog"
)

// BrokerHealth is the slice of the broker session the stats report needs.
type BrokerHealth interface {
	IsConnected() bool
}

// Coordinator runs one inbound message through parse, validate, the semantic
// site check and the staging insert. It owns the process-wide counters and
// is safe for concurrent deliveries.
type Coordinator struct {
	store     repository.StagingRepository
	validator *payload.Validator
	log       zerolog.Logger

	insertMaxRetries int
	backoffInitial   time.Duration
	backoffMax       time.Duration

	broker BrokerHealth

	messageCount atomic.Uint64
	errorCount   atomic.Uint64
}

// Options tunes the bounded retry around staging inserts.
type Options struct {
	InsertMaxRetries int
	BackoffInitial   time.Duration
	BackoffMax       time.Duration
}

// NewCoordinator builds a Coordinator. The broker health source is attached
// later via SetBroker because the session itself needs the coordinator as its
// sink.
func NewCoordinator(log zerolog.Logger, store repository.StagingRepository, validator *payload.Validator, opts Options) *Coordinator {
	if opts.InsertMaxRetries < 1 {
		opts.InsertMaxRetries = 1
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = 200 * time.Millisecond
	}
	if opts.BackoffMax < opts.BackoffInitial {
		opts.BackoffMax = opts.BackoffInitial
	}
	return &Coordinator{
		store:            store,
		validator:        validator,
		log:              log,
		insertMaxRetries: opts.InsertMaxRetries,
		backoffInitial:   opts.BackoffInitial,
		backoffMax:       opts.BackoffMax,
	}
}

// SetBroker attaches the broker session for connectivity reporting.
func (c *Coordinator) SetBroker(b BrokerHealth) {
	c.broker = b
}

// Counts returns the process-wide message and error counters.
func (c *Coordinator) Counts() (messages, errors uint64) {
	return c.messageCount.Load(), c.errorCount.Load()
}

// HandleMessage processes one inbound (topic, payload) pair. Every failure
// class is counted and logged here; nothing escapes to crash the session.
func (c *Coordinator) HandleMessage(topicStr string, data []byte) {
	start := time.Now()

	parsed := topic.Parse(topicStr)
	if parsed == nil {
		c.errorCount.Add(1)
		c.log.Warn().Str("topic", topicStr).Msg("Discarding message on unrecognized topic")
		return
	}

	msg, err := c.validator.Validate(data)
	if err != nil {
		c.errorCount.Add(1)
		var verr *payload.ValidationError
		switch {
		case errors.Is(err, payload.ErrMalformedPayload):
			c.log.Warn().Err(err).Str("topic", topicStr).Msg("Discarding undecodable payload")
		case errors.As(err, &verr):
			c.log.Warn().Str("topic", topicStr).Str("violations", verr.Error()).Msg("Discarding structurally invalid payload")
		default:
			c.log.Error().Err(err).Str("topic", topicStr).Msg("Payload validation failed")
		}
		return
	}

	// Semantic cross-check: a topic that names a real site must agree with
	// the payload. Logger topics carry the sentinel and skip this.
	if !parsed.FromPayload() && parsed.SiteID != msg.Sites.SiteID {
		c.errorCount.Add(1)
		c.log.Warn().
			Str("topic", topicStr).
			Str("topic_site", parsed.SiteID).
			Str("payload_site", msg.Sites.SiteID).
			Msg("Discarding message with site mismatch")
		return
	}

	staged := &model.StagedMessage{
		SiteID:           msg.Sites.SiteID,
		DataType:         msg.DataType,
		Payload:          msg.Raw,
		MessageTimestamp: msg.Timestamp,
		MQTTTopic:        topicStr,
		Host:             msg.Host,
	}

	id, err := c.insertWithRetry(context.Background(), staged)
	if err != nil {
		c.errorCount.Add(1)
		c.log.Error().Err(err).
			Str("topic", topicStr).
			Str("site_id", staged.SiteID).
			Msg("Dropping validated message after exhausting insert retries")
		return
	}

	c.messageCount.Add(1)
	c.log.Info().
		Int64("id", id).
		Str("site_id", staged.SiteID).
		Str("data_type", staged.DataType).
		Dur("took", time.Since(start)).
		Msg("Message staged")
}

// insertWithRetry retries transient store failures with exponential backoff.
// Losing a structurally valid message to a store hiccup is the costliest
// failure in this pipeline, so the insert gets a bounded second chance.
func (c *Coordinator) insertWithRetry(ctx context.Context, staged *model.StagedMessage) (int64, error) {
	backoff := c.backoffInitial
	var lastErr error
	for attempt := 1; attempt <= c.insertMaxRetries; attempt++ {
		id, err := c.store.Insert(ctx, staged)
		if err == nil {
			return id, nil
		}
		lastErr = err
		if attempt < c.insertMaxRetries {
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("Staging insert failed, retrying")
			time.Sleep(backoff)
			backoff *= 2
			if backoff > c.backoffMax {
				backoff = c.backoffMax
			}
		}
	}
	return 0, lastErr
}

// ReportStats logs the periodic operational snapshot: counts by status, the
// oldest pending and newest staged timestamps, broker connectivity and store
// health. Called on the stats ticker plus once at startup and shutdown.
func (c *Coordinator) ReportStats(ctx context.Context) {
	event := c.log.Info()

	for _, status := range []model.Status{model.StatusPending, model.StatusSent, model.StatusFailed} {
		count, err := c.store.CountByStatus(ctx, status)
		if err != nil {
			c.log.Error().Err(err).Str("status", string(status)).Msg("Failed to count staged rows")
			continue
		}
		event = event.Int64(string(status), count)
	}

	if oldest, err := c.store.OldestPending(ctx); err != nil {
		c.log.Error().Err(err).Msg("Failed to read oldest pending timestamp")
	} else if oldest != nil {
		event = event.Time("oldest_pending", *oldest)
	}
	if newest, err := c.store.NewestMessage(ctx); err != nil {
		c.log.Error().Err(err).Msg("Failed to read newest message timestamp")
	} else if newest != nil {
		event = event.Time("newest_message", *newest)
	}

	messages, errs := c.Counts()
	event = event.
		Uint64("messages", messages).
		Uint64("errors", errs).
		Bool("store_healthy", c.store.HealthCheck(ctx))
	if c.broker != nil {
		event = event.Bool("broker_connected", c.broker.IsConnected())
	}
	event.Msg("Ingestion statistics")
}
