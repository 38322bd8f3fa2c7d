package multiping

import (
	"net"
	"time"
)

const defaultReceiveBufferSize = 128 * 1024

var _ Transport = (*RawConn)(nil)

// Transport is a datagram handle able to send ICMP messages and read back
// whatever the kernel delivers to it. A session owns its transports and uses
// them from a single goroutine.
type Transport interface {
	// WriteTo sends b to dst. There is no delivery guarantee.
	WriteTo(b []byte, dst net.IP) error
	// ReadFrom blocks until a datagram is available or the deadline passes,
	// in which case it returns ErrTimeout.
	ReadFrom(deadline time.Time) ([]byte, error)
	// TryReadFrom returns a queued datagram or ErrWouldBlock.
	TryReadFrom() ([]byte, error)
	// HeaderLen is the number of bytes preceding the ICMP header in the
	// datagrams returned by the read methods.
	HeaderLen() int
	Close() error
}
