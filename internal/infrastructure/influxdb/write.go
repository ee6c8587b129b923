package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordDispatch records one topic evaluation for one event.
//
// This satisfies the dispatcher's MetricsSink interface. The write is
// non-blocking; points are batched and sent asynchronously.
//
// Parameters:
//   - topic: The evaluated Kafka topic
//   - entityID: The entity the event belongs to
//   - published: Whether the topic's filter passed the event
func (c *Client) RecordDispatch(topic, entityID string, published bool) {
	if !c.IsConnected() {
		return
	}

	passed := int64(0)
	if published {
		passed = 1
	}

	point := write.NewPoint(
		"dispatch",
		map[string]string{
			"topic": topic,
		},
		map[string]interface{}{
			"evaluated": int64(1),
			"published": passed,
			"entity_id": entityID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordPublishError records one failed publish attempt for a topic.
//
// Parameters:
//   - topic: The Kafka topic whose delivery failed
func (c *Client) RecordPublishError(topic string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"dispatch",
		map[string]string{
			"topic": topic,
		},
		map[string]interface{}{
			"publish_errors": int64(1),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
