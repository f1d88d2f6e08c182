package mqttree

// ProducerInterceptor allows inspection and modification of messages before
// they are handed to the transport. Interceptors are called in the order
// they are configured, and each one receives the message returned by the
// previous one. Returning nil drops the message.
type ProducerInterceptor interface {
	// OnSend is called when a message is about to be published.
	//
	// WARNING: The message is NOT a copy. Use msg.Clone() to preserve the original.
	OnSend(msg *Message) *Message
}

// ConsumerInterceptor allows inspection and modification of inbound messages
// before they are dispatched into the tree. Returning nil drops the message.
type ConsumerInterceptor interface {
	// OnConsume is called when a message is received.
	//
	// WARNING: The message is NOT a copy. Use msg.Clone() to preserve the original.
	OnConsume(msg *Message) *Message
}

// ProducerInterceptorFunc adapts a function to ProducerInterceptor.
type ProducerInterceptorFunc func(msg *Message) *Message

// OnSend calls f(msg).
func (f ProducerInterceptorFunc) OnSend(msg *Message) *Message { return f(msg) }

// ConsumerInterceptorFunc adapts a function to ConsumerInterceptor.
type ConsumerInterceptorFunc func(msg *Message) *Message

// OnConsume calls f(msg).
func (f ConsumerInterceptorFunc) OnConsume(msg *Message) *Message { return f(msg) }

// safelyApply runs one interceptor step with panic recovery.
// If the step panics, the message is passed on unchanged.
func safelyApply(logger Logger, kind string, step func(*Message) *Message, msg *Message) (result *Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(kind+" interceptor panic", LogFields{
				LogFieldTopic: msg.Topic,
				LogFieldError: r,
			})
			result = msg
		}
	}()
	return step(msg)
}

// applyProducerInterceptors applies all producer interceptors in order.
// If any interceptor returns nil, the chain is broken and nil is returned.
func applyProducerInterceptors(logger Logger, interceptors []ProducerInterceptor, msg *Message) *Message {
	current := msg
	for _, interceptor := range interceptors {
		if current == nil {
			return nil
		}
		current = safelyApply(logger, "producer", interceptor.OnSend, current)
	}
	return current
}

// applyConsumerInterceptors applies all consumer interceptors in order.
// If any interceptor returns nil, the chain is broken and nil is returned.
func applyConsumerInterceptors(logger Logger, interceptors []ConsumerInterceptor, msg *Message) *Message {
	current := msg
	for _, interceptor := range interceptors {
		if current == nil {
			return nil
		}
		current = safelyApply(logger, "consumer", interceptor.OnConsume, current)
	}
	return current
}
