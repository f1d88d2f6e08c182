package mqttree

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/mqttree/codec"
)

// ErrUnknownConfigFormat is returned for configuration files with an unsupported extension.
var ErrUnknownConfigFormat = errors.New("unknown config format")

// FileConfig describes a device in a configuration file.
//
// Flags left unset keep the package default (Requestable, Settable and
// AutoPublish on, Retained off).
type FileConfig struct {
	// Name is the root group name and the first element of every topic path.
	Name string `yaml:"name" json:"name"`

	// StatusTopic, when set, enables the status topic under the root.
	StatusTopic string `yaml:"status_topic,omitempty" json:"status_topic,omitempty"`

	// Order is "top-down" or "bottom-up".
	Order string `yaml:"order,omitempty" json:"order,omitempty"`

	TopicPattern   string `yaml:"topic_pattern,omitempty" json:"topic_pattern,omitempty"`
	RequestPattern string `yaml:"request_pattern,omitempty" json:"request_pattern,omitempty"`
	SetPattern     string `yaml:"set_pattern,omitempty" json:"set_pattern,omitempty"`

	QoS         byte  `yaml:"qos,omitempty" json:"qos,omitempty"`
	Retained    bool  `yaml:"retained,omitempty" json:"retained,omitempty"`
	Requestable *bool `yaml:"requestable,omitempty" json:"requestable,omitempty"`
	Settable    *bool `yaml:"settable,omitempty" json:"settable,omitempty"`
	AutoPublish *bool `yaml:"auto_publish,omitempty" json:"auto_publish,omitempty"`

	// Base is "oct", "dec" or "hex" (or 8, 10, 16).
	Base string `yaml:"base,omitempty" json:"base,omitempty"`
	// FloatPattern is a printf-style pattern such as "%.2f".
	FloatPattern string `yaml:"float_pattern,omitempty" json:"float_pattern,omitempty"`
	// BoolFormat is "any", "true/false", "yes/no", "on/off" or "1/0".
	BoolFormat string `yaml:"bool_format,omitempty" json:"bool_format,omitempty"`

	ArenaSize      int `yaml:"arena_size,omitempty" json:"arena_size,omitempty"`
	JSONBufferSize int `yaml:"json_buffer_size,omitempty" json:"json_buffer_size,omitempty"`
	InboxSize      int `yaml:"inbox_size,omitempty" json:"inbox_size,omitempty"`

	// PublishRate is the maximum number of publishes per second; zero disables the limit.
	PublishRate  float64 `yaml:"publish_rate,omitempty" json:"publish_rate,omitempty"`
	PublishBurst int     `yaml:"publish_burst,omitempty" json:"publish_burst,omitempty"`

	Will *WillConfig `yaml:"will,omitempty" json:"will,omitempty"`

	// Subscriptions are extra filters routed to the fallback handler.
	Subscriptions []string `yaml:"subscriptions,omitempty" json:"subscriptions,omitempty"`
}

// WillConfig describes the will topic.
type WillConfig struct {
	Name     string `yaml:"name" json:"name"`
	Message  string `yaml:"message" json:"message"`
	QoS      byte   `yaml:"qos,omitempty" json:"qos,omitempty"`
	Retained bool   `yaml:"retained,omitempty" json:"retained,omitempty"`
}

// LoadConfig reads a configuration file. The format follows the extension:
// ".yaml" and ".yml" are YAML, ".json" and ".jsonc" are JSON with comments.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := ParseConfig(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// ParseConfig parses data in the given format ("yaml", "yml", "json" or "jsonc")
// and validates the result.
func ParseConfig(data []byte, format string) (*FileConfig, error) {
	var cfg FileConfig

	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case "json", "jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConfigFormat, format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names, patterns and enum spellings.
func (c *FileConfig) Validate() error {
	if err := ValidateName(c.Name); err != nil {
		return fmt.Errorf("name %q: %w", c.Name, err)
	}
	if c.StatusTopic != "" {
		if err := ValidateName(c.StatusTopic); err != nil {
			return fmt.Errorf("status_topic %q: %w", c.StatusTopic, err)
		}
	}
	if _, err := ParseTopicOrder(c.Order); err != nil {
		return fmt.Errorf("order: %w", err)
	}

	patterns := []struct {
		key, value string
	}{
		{"topic_pattern", c.TopicPattern},
		{"request_pattern", c.RequestPattern},
		{"set_pattern", c.SetPattern},
	}
	for _, p := range patterns {
		if p.value != "" && !strings.Contains(p.value, PathPlaceholder) {
			return fmt.Errorf("%s %q: missing %s placeholder", p.key, p.value, PathPlaceholder)
		}
	}

	if c.QoS > 2 {
		return fmt.Errorf("qos %d: must be 0, 1 or 2", c.QoS)
	}
	if c.Base != "" {
		if _, err := codec.ParseIntegralBase(c.Base); err != nil {
			return fmt.Errorf("base: %w", err)
		}
	}
	if c.BoolFormat != "" {
		if _, err := codec.ParseBoolFormat(c.BoolFormat); err != nil {
			return fmt.Errorf("bool_format: %w", err)
		}
	}
	if c.ArenaSize < 0 || c.JSONBufferSize < 0 || c.InboxSize < 0 {
		return errors.New("sizes must not be negative")
	}
	if c.PublishRate < 0 || c.PublishBurst < 0 {
		return errors.New("publish rate must not be negative")
	}

	if c.Will != nil {
		if err := ValidateName(c.Will.Name); err != nil {
			return fmt.Errorf("will name %q: %w", c.Will.Name, err)
		}
		if c.Will.QoS > 2 {
			return fmt.Errorf("will qos %d: must be 0, 1 or 2", c.Will.QoS)
		}
	}

	for _, filter := range c.Subscriptions {
		if err := ValidateTopicFilter(filter); err != nil {
			return fmt.Errorf("subscription %q: %w", filter, err)
		}
	}

	return nil
}

// Defaults converts the file settings into tree defaults.
func (c *FileConfig) Defaults() (Defaults, error) {
	d := NewDefaults()

	order, err := ParseTopicOrder(c.Order)
	if err != nil {
		return d, err
	}
	if order != OrderUnspecified {
		d.Order = order
	}

	cfg := d.Config.WithQoS(c.QoS)
	if c.Retained {
		cfg = cfg.With(Retained)
	}
	cfg = applyFlag(cfg, Requestable, c.Requestable)
	cfg = applyFlag(cfg, Settable, c.Settable)
	cfg = applyFlag(cfg, AutoPublish, c.AutoPublish)
	d.Config = cfg

	if c.TopicPattern != "" {
		d.TopicPattern = c.TopicPattern
	}
	if c.RequestPattern != "" {
		d.RequestPattern = c.RequestPattern
	}
	if c.SetPattern != "" {
		d.SetPattern = c.SetPattern
	}

	if c.Base != "" {
		if d.Format.Base, err = codec.ParseIntegralBase(c.Base); err != nil {
			return d, err
		}
	}
	if c.BoolFormat != "" {
		if d.Format.Bool, err = codec.ParseBoolFormat(c.BoolFormat); err != nil {
			return d, err
		}
	}
	d.Format.Pattern = c.FloatPattern

	if c.ArenaSize > 0 {
		d.ArenaSize = c.ArenaSize
	}
	if c.JSONBufferSize > 0 {
		d.JSONBufferSize = c.JSONBufferSize
	}

	return d, nil
}

func applyFlag(cfg, flag Config, value *bool) Config {
	switch {
	case value == nil:
		return cfg
	case *value:
		return cfg.With(flag)
	default:
		return cfg.Without(flag)
	}
}

// Options converts the file settings into client options. The transport,
// logger and handlers are not part of the file and are added by the caller.
func (c *FileConfig) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	d, err := c.Defaults()
	if err != nil {
		return nil, err
	}

	opts := []Option{WithDefaults(d)}
	if c.InboxSize > 0 {
		opts = append(opts, WithInboxSize(c.InboxSize))
	}
	if c.PublishRate > 0 {
		opts = append(opts, WithPublishRate(rate.Limit(c.PublishRate), c.PublishBurst))
	}
	if c.StatusTopic != "" {
		opts = append(opts, WithStatusTopic(c.StatusTopic))
	}
	if c.Will != nil {
		opts = append(opts, WithWill(NewWill(c.Will.Name, c.Will.Message, c.Will.QoS, c.Will.Retained)))
	}
	if len(c.Subscriptions) > 0 {
		opts = append(opts, WithSubscriptions(c.Subscriptions...))
	}

	return opts, nil
}
