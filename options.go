package multiping

import (
	"time"

	"github.com/sirupsen/logrus"
)

type options struct {
	timeout         time.Duration
	interval        time.Duration
	payloadSize     uint
	statBufferSize  uint
	receiveBuffer   int
	resolverTimeout time.Duration
	resolver        Resolver
	ignoreLookup    bool
	strictReplies   bool
	delay           time.Duration
	conn4           Transport
	conn6           Transport
	ids             *idAllocator
	logger          logrus.FieldLogger
}

var defaultOptions = options{
	timeout:         500 * time.Millisecond,
	interval:        time.Second,
	payloadSize:     timestampSize,
	statBufferSize:  10,
	receiveBuffer:   defaultReceiveBufferSize,
	resolverTimeout: time.Second,
}

// Option configures a Session, MultiPing or a Pinger.
type Option func(o *options)

// WithTransport makes the session use t for IPv4 destinations instead of
// opening its own raw socket. The session does not close it.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.conn4 = t
	}
}

// WithTransport6 is WithTransport for IPv6 destinations.
func WithTransport6(t Transport) Option {
	return func(o *options) {
		o.conn6 = t
	}
}

// WithResolver replaces DefaultResolver.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithResolverTimeout bounds each name resolution.
func WithResolverTimeout(d time.Duration) Option {
	return func(o *options) {
		o.resolverTimeout = d
	}
}

// WithIgnoreLookupErrors makes unresolvable names show up as pending
// destinations instead of failing the whole batch.
func WithIgnoreLookupErrors(ignore bool) Option {
	return func(o *options) {
		o.ignoreLookup = ignore
	}
}

// WithStrictReplies only accepts echo reply messages. By default any message
// carrying an outstanding id is taken as the answer.
func WithStrictReplies(strict bool) Option {
	return func(o *options) {
		o.strictReplies = strict
	}
}

// WithDelay waits d between two echo requests of the same Send. Some
// networks drop bursts of ICMP.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// WithPayloadSize sets the echo payload size. It is rounded up to an even
// number and never smaller than the 8 bytes timestamp.
func WithPayloadSize(n uint) Option {
	return func(o *options) {
		o.payloadSize = n
	}
}

// WithReceiveBufferSize sets the socket receive buffer of the raw sockets
// opened by the session.
func WithReceiveBufferSize(n int) Option {
	return func(o *options) {
		o.receiveBuffer = n
	}
}

// WithLogger sets the logger, logrus.StandardLogger() by default.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTimeout sets how long a Pinger waits for replies on each round.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithInterval sets the time between two Pinger rounds.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// WithStatBufferSize sets how many round trip times a Pinger keeps per
// destination.
func WithStatBufferSize(n uint) Option {
	return func(o *options) {
		o.statBufferSize = n
	}
}

func withIDs(ids *idAllocator) Option {
	return func(o *options) {
		o.ids = ids
	}
}

func newOptions(opts ...Option) options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.resolver == nil {
		o.resolver = DefaultResolver
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	if o.payloadSize < timestampSize {
		o.payloadSize = timestampSize
	}
	if o.payloadSize%2 != 0 {
		o.payloadSize++
	}
	return o
}
