package model

import (
	"encoding/json"
	"time"
)

// Status is the delivery-status lifecycle of a staged message.
// Rows are created PENDING by this service; the downstream ETL alone moves
// them to SENT or FAILED. Neither terminal state ever transitions again.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// StagedMessage is one accepted inbound telemetry message, persisted until the
// downstream ETL delivers it to long-term storage.
type StagedMessage struct {
	ID               int64           `db:"id"`
	SiteID           string          `db:"site_id"`
	DataType         string          `db:"data_type"`
	Payload          json.RawMessage `db:"payload"` // validated message body, stored as JSONB
	MessageTimestamp time.Time       `db:"message_timestamp"`
	ReceivedAt       time.Time       `db:"received_at"`
	ProcessedAt      *time.Time      `db:"processed_at"`
	Status           Status          `db:"status"`
	RetryCount       int             `db:"retry_count"`
	ErrorMessage     *string         `db:"error_message"`
	MQTTTopic        string          `db:"mqtt_topic"`
	Host             string          `db:"host"`
}

// StagedMessageSummary is the lightweight projection returned by recency reads.
type StagedMessageSummary struct {
	ID               int64     `db:"id"`
	SiteID           string    `db:"site_id"`
	DataType         string    `db:"data_type"`
	Status           Status    `db:"status"`
	ReceivedAt       time.Time `db:"received_at"`
	MessageTimestamp time.Time `db:"message_timestamp"`
}

// StagingStat is one row of the grouped operational statistics view.
type StagingStat struct {
	SiteID   string `db:"site_id"`
	DataType string `db:"data_type"`
	Status   Status `db:"status"`
	Count    int64  `db:"count"`
}
