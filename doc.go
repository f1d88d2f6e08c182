// Package mqttree maps a tree of application values onto MQTT topics.
//
// A device registers its values once at startup under a root Client. Each
// value becomes a topic whose path is derived from its position in the
// tree; the client publishes changed values, subscribes to derived
// request and set sub-topics, and writes inbound payloads back into the
// values, reporting the outcome on an optional status topic.
//
// # Features
//
//   - Owned values, pointer-bound variables, references, fixed arrays,
//     getter/setter functions and JSON documents
//   - Per-topic QoS, retain, auto-publish, requestable and settable flags
//   - Change tracking and polling of externally owned storage
//   - Top-down or bottom-up paths, absolute topics, per-group patterns
//   - Fixed-capacity node arena: registration degrades to inert handles
//     instead of growing without bound
//   - Pluggable transport, logger, metrics and interceptors
//
// # Building a tree
//
//	client := mqttree.NewClient("device",
//	    mqttree.WithTransport(transport),
//	    mqttree.WithStatusTopic("status"),
//	)
//
//	count := mqttree.AddValue(client.Group, "count", 5)
//	sensors := client.AddGroup("sensors")
//	temps := mqttree.AddArray[float64](sensors, "temps", 3)
//
// With default patterns, count is published on "device/count", read on
// "device/count/get" and written on "device/count/set".
//
// Registration never fails loudly: a duplicate path, an invalid name or
// an exhausted arena returns a handle whose Valid method reports false and
// whose operations do nothing.
//
// # Running
//
// Handle runs one tick and must be called periodically from the goroutine
// that owns the tree:
//
//	for range ticker.C {
//	    client.Handle(ctx)
//	}
//
// Inbound messages delivered by the transport are queued and dispatched
// by the next tick.
//
// # Result codes
//
// Inbound payloads and SetFromPayload return a ResultCode:
//
//	code := count.SetFromPayload("7")
//	if code.IsError() {
//	    log.Println(code)
//	}
package mqttree
