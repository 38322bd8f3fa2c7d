//go:build linux || darwin || freebsd || netbsd || openbsd

package multiping

import (
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// RawConn is a raw ICMP (or ICMPv6) socket.
type RawConn struct {
	fd  int
	v6  bool
	buf []byte
}

// Listen opens a raw ICMP socket, an ICMPv6 one when v6 is set, with a
// receive buffer of rcvbuf bytes (the system default when rcvbuf <= 0).
// It usually requires elevated privileges and returns an error wrapping
// ErrPermissionDenied when they are missing.
func Listen(v6 bool, rcvbuf int) (*RawConn, error) {
	family, proto := unix.AF_INET, unix.IPPROTO_ICMP
	if v6 {
		family, proto = unix.AF_INET6, unix.IPPROTO_ICMPV6
	}
	fd, err := unix.Socket(family, unix.SOCK_RAW, proto)
	if err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("open raw socket: %w", err)
	}
	unix.CloseOnExec(fd)
	if rcvbuf > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, rcvbuf); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("set receive buffer: %w", err)
		}
	}
	return &RawConn{fd: fd, v6: v6, buf: make([]byte, math.MaxUint16)}, nil
}

func (c *RawConn) WriteTo(b []byte, dst net.IP) error {
	var sa unix.Sockaddr
	if ip4 := dst.To4(); ip4 != nil && !c.v6 {
		s := &unix.SockaddrInet4{}
		copy(s.Addr[:], ip4)
		sa = s
	} else if ip6 := dst.To16(); ip6 != nil && c.v6 {
		s := &unix.SockaddrInet6{}
		copy(s.Addr[:], ip6)
		sa = s
	} else {
		return fmt.Errorf("%s: address family does not match socket", dst)
	}
	for {
		err := unix.Sendto(c.fd, b, 0, sa)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("send to %s: %w", dst, err)
		}
		return nil
	}
}

func (c *RawConn) ReadFrom(deadline time.Time) ([]byte, error) {
	for {
		wait := time.Until(deadline)
		if wait < 0 {
			wait = 0
		}
		ms := int((wait + time.Millisecond - 1) / time.Millisecond)
		fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			return nil, ErrTimeout
		}
		b, err := c.TryReadFrom()
		if errors.Is(err, ErrWouldBlock) {
			if time.Now().Before(deadline) {
				continue
			}
			return nil, ErrTimeout
		}
		return b, err
	}
}

func (c *RawConn) TryReadFrom() ([]byte, error) {
	for {
		n, _, err := unix.Recvfrom(c.fd, c.buf, unix.MSG_DONTWAIT)
		switch err {
		case nil:
			b := make([]byte, n)
			copy(b, c.buf[:n])
			return b, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return nil, ErrWouldBlock
		default:
			if err == unix.EWOULDBLOCK {
				return nil, ErrWouldBlock
			}
			return nil, fmt.Errorf("receive: %w", err)
		}
	}
}

func (c *RawConn) HeaderLen() int {
	if c.v6 {
		return 0
	}
	return ipv4HeaderLen
}

func (c *RawConn) Close() error {
	return unix.Close(c.fd)
}
