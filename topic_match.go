package mqttree

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"
)

var (
	ErrInvalidTopicName   = errors.New("invalid topic name")
	ErrInvalidTopicFilter = errors.New("invalid topic filter")
	ErrEmptyTopic         = errors.New("topic cannot be empty")
)

const (
	topicSeparator      = '/'
	singleLevelWildcard = '+'
	multiLevelWildcard  = '#'
)

// ValidateTopicName validates a concrete topic string as sent on the wire.
// Topic names cannot contain wildcards or NUL and must be valid UTF-8.
func ValidateTopicName(topic string) error {
	if topic == "" {
		return ErrEmptyTopic
	}

	if !utf8.ValidString(topic) {
		return ErrInvalidTopicName
	}

	if strings.ContainsAny(topic, "\x00+#") {
		return ErrInvalidTopicName
	}

	return nil
}

// ValidateTopicFilter validates a subscription filter.
// Wildcards must occupy a whole level and # must be last.
func ValidateTopicFilter(filter string) error {
	if filter == "" {
		return ErrEmptyTopic
	}

	if !utf8.ValidString(filter) || strings.ContainsRune(filter, 0) {
		return ErrInvalidTopicFilter
	}

	levels := strings.Split(filter, string(topicSeparator))
	for i, level := range levels {
		if strings.ContainsRune(level, singleLevelWildcard) && level != "+" {
			return ErrInvalidTopicFilter
		}
		if strings.ContainsRune(level, multiLevelWildcard) && (level != "#" || i != len(levels)-1) {
			return ErrInvalidTopicFilter
		}
	}

	return nil
}

// TopicMatch checks if a topic name matches a topic filter.
// Topics starting with $ never match a leading wildcard.
func TopicMatch(filter, topic string) bool {
	if filter == "" || topic == "" {
		return false
	}

	if topic[0] == '$' && (filter[0] == singleLevelWildcard || filter[0] == multiLevelWildcard) {
		return false
	}

	fi, ti := 0, 0
	flen, tlen := len(filter), len(topic)

	for fi <= flen {
		fstart := fi
		for fi < flen && filter[fi] != topicSeparator {
			fi++
		}
		flevel := filter[fstart:fi]

		if flevel == "#" {
			return true
		}

		if ti > tlen {
			return false
		}

		tstart := ti
		for ti < tlen && topic[ti] != topicSeparator {
			ti++
		}
		tlevel := topic[tstart:ti]

		if flevel != "+" && flevel != tlevel {
			return false
		}

		fi++
		ti++
	}

	return ti > tlen
}

// TopicMatcher routes topics to the handlers registered for matching filters.
// It is safe for concurrent use.
type TopicMatcher struct {
	mu      sync.RWMutex
	entries []matcherEntry
}

type matcherEntry struct {
	filter  string
	handler MessageHandler
}

// NewTopicMatcher creates an empty matcher.
func NewTopicMatcher() *TopicMatcher {
	return &TopicMatcher{}
}

// Add registers handler for filter. Registering the same filter again replaces its handler.
func (m *TopicMatcher) Add(filter string, handler MessageHandler) error {
	if err := ValidateTopicFilter(filter); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].filter == filter {
			m.entries[i].handler = handler
			return nil
		}
	}
	m.entries = append(m.entries, matcherEntry{filter: filter, handler: handler})

	return nil
}

// Remove unregisters filter. It reports whether the filter was present.
func (m *TopicMatcher) Remove(filter string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].filter == filter {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Match returns the handlers of every filter matching topic, in registration order.
func (m *TopicMatcher) Match(topic string) []MessageHandler {
	if ValidateTopicName(topic) != nil {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var handlers []MessageHandler
	for _, e := range m.entries {
		if TopicMatch(e.filter, topic) {
			handlers = append(handlers, e.handler)
		}
	}
	return handlers
}

// Filters returns the registered filters in registration order.
func (m *TopicMatcher) Filters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filters := make([]string, len(m.entries))
	for i, e := range m.entries {
		filters[i] = e.filter
	}
	return filters
}

// Len returns the number of registered filters.
func (m *TopicMatcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
