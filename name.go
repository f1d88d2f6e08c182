package mqttree

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyName is returned for an empty topic name.
	ErrEmptyName = errors.New("topic name cannot be empty")
	// ErrInvalidName is returned for a name with wildcards, spaces or an embedded separator.
	ErrInvalidName = errors.New("invalid topic name")
)

// ValidateName checks a single tree node name.
//
// A valid name is non-empty, contains no '#', '+' or space, and contains
// '/' at most as its first character, which marks the name as absolute.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	if strings.ContainsAny(name, "#+ ") {
		return ErrInvalidName
	}

	if strings.IndexByte(name[1:], topicSeparator) >= 0 {
		return ErrInvalidName
	}

	return nil
}

// IsAbsolute reports whether name starts a new topic root.
func IsAbsolute(name string) bool {
	return strings.HasPrefix(name, "/")
}
