package mqttree

import "golang.org/x/time/rate"

// clientOptions holds configuration for a Client.
type clientOptions struct {
	transport Transport
	logger    Logger
	metrics   Metrics

	// Tree configuration
	defaults  Defaults
	inboxSize int

	// Publish throttling; a zero limit disables the limiter
	publishRate  rate.Limit
	publishBurst int

	// Status and will
	statusTopic string
	will        *Will

	// Inbound routing
	fallback      MessageHandler
	subscriptions []string

	// Event handler
	onEvent EventHandler

	// Interceptors
	producerInterceptors []ProducerInterceptor
	consumerInterceptors []ConsumerInterceptor
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *clientOptions {
	return &clientOptions{
		logger:    NewNoOpLogger(),
		metrics:   &NoOpMetrics{},
		defaults:  NewDefaults(),
		inboxSize: DefaultInboxSize,
	}
}

// Option configures a Client.
type Option func(*clientOptions)

func applyOptions(opts ...Option) *clientOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	o.defaults = o.defaults.normalize()
	if o.inboxSize <= 0 {
		o.inboxSize = DefaultInboxSize
	}
	return o
}

// WithTransport sets the protocol client used to reach the broker.
func WithTransport(t Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(logger Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. Nil keeps the no-op collector.
func WithMetrics(metrics Metrics) Option {
	return func(o *clientOptions) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithDefaults replaces the tree defaults. Unset fields take the package defaults.
func WithDefaults(d Defaults) Option {
	return func(o *clientOptions) {
		o.defaults = d
	}
}

// WithConfig sets the register of the root group, which new topics inherit.
func WithConfig(cfg Config) Option {
	return func(o *clientOptions) {
		o.defaults.Config = cfg
	}
}

// WithTopicOrder sets the path order used when no group overrides it.
func WithTopicOrder(order TopicOrder) Option {
	return func(o *clientOptions) {
		o.defaults.Order = order
	}
}

// WithArenaSize sets the capacity in bytes of the node arena.
func WithArenaSize(size int) Option {
	return func(o *clientOptions) {
		o.defaults.ArenaSize = size
	}
}

// WithJSONBufferSize sets the document buffer reserved by each JSON topic.
func WithJSONBufferSize(size int) Option {
	return func(o *clientOptions) {
		o.defaults.JSONBufferSize = size
	}
}

// WithInboxSize sets how many inbound messages are queued between ticks.
// Messages arriving while the inbox is full are dropped.
func WithInboxSize(size int) Option {
	return func(o *clientOptions) {
		o.inboxSize = size
	}
}

// WithPublishRate limits outbound publishes to r per second with the given burst.
// A topic denied by the limiter keeps its publish flag and is retried next tick.
func WithPublishRate(r rate.Limit, burst int) Option {
	return func(o *clientOptions) {
		o.publishRate = r
		o.publishBurst = burst
	}
}

// WithStatusTopic creates the status topic under the root with the given name.
func WithStatusTopic(name string) Option {
	return func(o *clientOptions) {
		o.statusTopic = name
	}
}

// WithWill attaches a will topic.
func WithWill(w *Will) Option {
	return func(o *clientOptions) {
		o.will = w
	}
}

// WithFallbackHandler sets the handler for inbound messages that match no topic.
// Without it, such messages are reported with an UnknownTopic status.
func WithFallbackHandler(handler MessageHandler) Option {
	return func(o *clientOptions) {
		o.fallback = handler
	}
}

// WithSubscriptions adds filters subscribed on connect besides the derived
// request and set topics. Messages on them reach the fallback handler.
// Multiple calls append to the existing list.
func WithSubscriptions(filters ...string) Option {
	return func(o *clientOptions) {
		o.subscriptions = append(o.subscriptions, filters...)
	}
}

// WithEventHandler sets the handler for client lifecycle events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *clientOptions) {
		o.onEvent = handler
	}
}

// WithProducerInterceptors sets the producer interceptors for outgoing messages.
// Interceptors are called in order before a message is published.
// Each interceptor can modify the message before passing it to the next.
func WithProducerInterceptors(interceptors ...ProducerInterceptor) Option {
	return func(o *clientOptions) {
		o.producerInterceptors = append(o.producerInterceptors, interceptors...)
	}
}

// WithConsumerInterceptors sets the consumer interceptors for incoming messages.
// Interceptors are called in order before a message is dispatched into the tree.
// Each interceptor can modify the message before passing it to the next.
func WithConsumerInterceptors(interceptors ...ConsumerInterceptor) Option {
	return func(o *clientOptions) {
		o.consumerInterceptors = append(o.consumerInterceptors, interceptors...)
	}
}
