// Package mqtt provides the state-bus client for statebridge.
//
// The bridge consumes Home Assistant state-change events from an MQTT
// broker (Home Assistant's MQTT eventstream or an equivalent republisher).
// This package manages:
//   - Connection with auto-reconnect and exponential backoff
//   - The event-topic subscription, restored automatically on reconnect
//   - Last Will and Testament on statebridge/status for offline detection
//   - Connection health monitoring
//
// The bridge is a consumer: no publish API is exposed beyond the internal
// status announcements.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(cfg.MQTT.EventTopic, byte(cfg.MQTT.QoS),
//	    func(topic string, payload []byte) error {
//	        // decode and dispatch
//	        return nil
//	    })
package mqtt
