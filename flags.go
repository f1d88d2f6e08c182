package mqttree

// Config is the 8-bit state register of a topic.
//
//	bit 0-1  QoS
//	bit 2    Requestable
//	bit 3    Settable
//	bit 4    AutoPublish
//	bit 5    Changed (transient)
//	bit 6    NeedsPublish (transient)
//	bit 7    Retained
type Config uint8

const (
	// QoS0 is at most once delivery.
	QoS0 Config = 0
	// QoS1 is at least once delivery.
	QoS1 Config = 1
	// QoS2 is exactly once delivery.
	QoS2 Config = 2

	// Requestable subscribes the topic to its request sub-topic.
	Requestable Config = 1 << 2
	// Settable subscribes the topic to its set sub-topic.
	Settable Config = 1 << 3
	// AutoPublish republishes the topic whenever it is mutated.
	AutoPublish Config = 1 << 4
	// Retained asks the broker to keep the last published value.
	Retained Config = 1 << 7

	// DefaultConfig is the configuration of a topic when nothing else is configured.
	DefaultConfig = AutoPublish | Settable | Requestable
)

const (
	qosMask        Config = 0x03
	changedFlag    Config = 1 << 5
	needsPublish   Config = 1 << 6
	transientFlags        = changedFlag | needsPublish
)

// QoS returns the QoS level encoded in the register.
func (c Config) QoS() byte {
	return byte(c & qosMask)
}

// Has reports whether every bit of flag is set.
func (c Config) Has(flag Config) bool {
	return c&flag == flag
}

// With returns c with the persistent bits of flag set.
func (c Config) With(flag Config) Config {
	return c | flag&^transientFlags
}

// Without returns c with the persistent bits of flag cleared.
func (c Config) Without(flag Config) Config {
	return c &^ (flag &^ transientFlags)
}

// WithQoS returns c with the QoS level replaced.
func (c Config) WithQoS(qos byte) Config {
	return c&^qosMask | Config(qos)&qosMask
}

// String renders the register as "RPCASQ" letters, '-' for clear bits,
// followed by the QoS digit.
func (c Config) String() string {
	const letters = "RPCASQ"

	buf := make([]byte, 0, len(letters)+1)
	for i := range len(letters) {
		bit := Config(1) << (7 - i)
		if c&bit != 0 {
			buf = append(buf, letters[i])
		} else {
			buf = append(buf, '-')
		}
	}
	buf = append(buf, '0'+c.QoS())

	return string(buf)
}
