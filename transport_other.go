//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package multiping

import (
	"fmt"
	"net"
	"runtime"
	"time"
)

var errUnsupported = fmt.Errorf("raw ICMP sockets are not supported on %s", runtime.GOOS)

// RawConn is a raw ICMP (or ICMPv6) socket. It cannot be opened on this
// platform.
type RawConn struct{}

// Listen is not available on this platform.
func Listen(v6 bool, rcvbuf int) (*RawConn, error) {
	return nil, errUnsupported
}

func (c *RawConn) WriteTo(b []byte, dst net.IP) error {
	return errUnsupported
}

func (c *RawConn) ReadFrom(deadline time.Time) ([]byte, error) {
	return nil, errUnsupported
}

func (c *RawConn) TryReadFrom() ([]byte, error) {
	return nil, errUnsupported
}

func (c *RawConn) HeaderLen() int {
	return ipv4HeaderLen
}

func (c *RawConn) Close() error {
	return nil
}
