package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/tether/store"
)

// DynamoDB Streams event names.
const (
	eventInsert = "INSERT"
	eventModify = "MODIFY"
	eventRemove = "REMOVE"
)

// Handler publishes DynamoDB stream records as store events.
type Handler struct {
	emitter    store.Emitter
	primaryKey string
	ttlAttr    string
	logger     *slog.Logger
}

// NewHandler creates a new stream handler. Empty primaryKey and ttlAttr
// default to "id" and "ttl".
func NewHandler(emitter store.Emitter, primaryKey, ttlAttr string, logger *slog.Logger) *Handler {
	if primaryKey == "" {
		primaryKey = store.DefaultPrimaryKey
	}
	if ttlAttr == "" {
		ttlAttr = "ttl"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		emitter:    emitter,
		primaryKey: primaryKey,
		ttlAttr:    ttlAttr,
		logger:     logger,
	}
}

// HandleRecords processes a batch of stream records in order.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleRecords(ctx context.Context, event events.DynamoDBEvent) error {
	published := 0
	for _, record := range event.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := h.processRecord(record)
		if err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
		if ok {
			published++
		}
	}

	h.logger.Info("stream batch processed",
		"records", len(event.Records),
		"published", published,
	)
	return nil
}

// processRecord publishes one stream record. It reports whether an event
// was emitted.
func (h *Handler) processRecord(record events.DynamoDBEventRecord) (bool, error) {
	key := getStringAttr(record.Change.Keys, h.primaryKey)
	if key == "" {
		return false, fmt.Errorf("record %s: missing %q key attribute", record.EventID, h.primaryKey)
	}

	switch record.EventName {
	case eventInsert:
		return true, h.emit(store.EventModified, key, record.Change.NewImage)

	case eventModify:
		oldTTL := getNumberAttr(record.Change.OldImage, h.ttlAttr)
		newTTL := getNumberAttr(record.Change.NewImage, h.ttlAttr)

		// TTL newly set: the item was soft deleted
		if oldTTL == 0 && newTTL != 0 {
			return true, h.emit(store.EventRemoved, key, record.Change.OldImage)
		}
		return true, h.emit(store.EventModified, key, record.Change.NewImage)

	case eventRemove:
		// Already announced when the TTL was set
		if getNumberAttr(record.Change.OldImage, h.ttlAttr) != 0 {
			h.logger.Debug("skipping TTL reap", "key", key)
			return false, nil
		}
		return true, h.emit(store.EventRemoved, key, record.Change.OldImage)
	}

	h.logger.Warn("ignoring unknown stream event",
		"eventID", record.EventID,
		"eventName", record.EventName,
	)
	return false, nil
}

func (h *Handler) emit(event, key string, image map[string]events.DynamoDBAttributeValue) error {
	value, err := ConvertImage(image)
	if err != nil {
		return fmt.Errorf("convert image for %q: %w", key, err)
	}
	delete(value, h.ttlAttr)
	return h.emitter.Emit(event, store.Change{Key: key, Value: value})
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
