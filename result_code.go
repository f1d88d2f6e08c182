package mqttree

import "strconv"

// ResultCode is the outcome of a tree operation.
// Negative values are errors.
type ResultCode int8

const (
	// OutOfMemory reports arena exhaustion or an oversized document.
	OutOfMemory ResultCode = -127
	// InvalidValue reports a value that exceeds a size or depth limit.
	InvalidValue ResultCode = -5
	// CannotSet reports a write on a read-only topic or on a group.
	CannotSet ResultCode = -4
	// UnknownTopic reports an inbound message that matched no topic.
	UnknownTopic ResultCode = -3
	// InvalidRequest is reserved for request handlers.
	InvalidRequest ResultCode = -2
	// InvalidPayload reports a payload that could not be parsed.
	InvalidPayload ResultCode = -1
	// Ok reports success.
	Ok ResultCode = 0
)

var resultCodeNames = map[ResultCode]string{
	OutOfMemory:    "Out of memory",
	InvalidValue:   "Invalid value",
	CannotSet:      "Cannot set",
	UnknownTopic:   "Unknown topic",
	InvalidRequest: "Invalid request",
	InvalidPayload: "Invalid payload",
	Ok:             "OK",
}

// String returns the fixed message text for the code.
func (r ResultCode) String() string {
	if name, ok := resultCodeNames[r]; ok {
		return name
	}
	if r < 0 {
		return "Error " + strconv.Itoa(int(r))
	}
	return ""
}

// IsError returns true if the code represents a failure.
func (r ResultCode) IsError() bool {
	return r < 0
}

// IsSuccess returns true if the code represents success.
func (r ResultCode) IsSuccess() bool {
	return r >= 0
}
