package multiping

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// loopback is an in-memory Transport answering the destinations listed in
// answer, the way a remote host would.
type loopback struct {
	mu sync.Mutex
	v6 bool
	// answer holds the destinations which reply
	answer map[string]bool
	// echoRequests queues the requests themselves instead of replies, as a
	// raw socket sees its own traffic to a local address
	echoRequests bool
	writeErr     error
	readErr      error
	// failWrite makes the n-th write (1 based) return writeErr only once
	failWrite int
	writes    int
	// wrapErrors wraps ErrTimeout and ErrWouldBlock as an OS specific
	// transport would
	wrapErrors bool

	queue  [][]byte
	sent   []sentPacket
	closed bool
}

type sentPacket struct {
	dst string
	b   []byte
	at  time.Time
}

func newLoopback(answer ...string) *loopback {
	l := &loopback{answer: make(map[string]bool)}
	for _, a := range answer {
		l.answer[a] = true
	}
	return l
}

func (l *loopback) WriteTo(b []byte, dst net.IP) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes++
	if l.failWrite > 0 {
		if l.writes == l.failWrite {
			return l.writeErr
		}
	} else if l.writeErr != nil {
		return l.writeErr
	}
	l.sent = append(l.sent, sentPacket{dst: dst.String(), b: append([]byte(nil), b...), at: time.Now()})
	if l.answer[dst.String()] {
		l.queue = append(l.queue, l.reply(b))
	}
	return nil
}

// reply turns the echo request b into what the socket would read back.
func (l *loopback) reply(b []byte) []byte {
	r := append([]byte(nil), b...)
	if !l.echoRequests {
		r[0] = byte(echoReplyType(l.v6))
		binary.BigEndian.PutUint16(r[2:4], 0)
		binary.BigEndian.PutUint16(r[2:4], Checksum(r))
	}
	if l.v6 {
		return r
	}
	h := make([]byte, ipv4HeaderLen, ipv4HeaderLen+len(r))
	h[0] = 0x45
	return append(h, r...)
}

// inject queues b as if it had been received.
func (l *loopback) inject(b []byte) {
	l.mu.Lock()
	l.queue = append(l.queue, b)
	l.mu.Unlock()
}

func (l *loopback) pop() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	b := l.queue[0]
	l.queue = l.queue[1:]
	return b, true
}

func (l *loopback) ReadFrom(deadline time.Time) ([]byte, error) {
	if l.readErr != nil {
		return nil, l.readErr
	}
	if b, ok := l.pop(); ok {
		return b, nil
	}
	time.Sleep(time.Until(deadline))
	if b, ok := l.pop(); ok {
		return b, nil
	}
	if l.wrapErrors {
		return nil, fmt.Errorf("recvfrom: %w", ErrTimeout)
	}
	return nil, ErrTimeout
}

func (l *loopback) TryReadFrom() ([]byte, error) {
	if b, ok := l.pop(); ok {
		return b, nil
	}
	if l.wrapErrors {
		return nil, fmt.Errorf("recvfrom: %w", ErrWouldBlock)
	}
	return nil, ErrWouldBlock
}

func (l *loopback) HeaderLen() int {
	if l.v6 {
		return 0
	}
	return ipv4HeaderLen
}

func (l *loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

func (l *loopback) sentTo() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, p := range l.sent {
		out = append(out, p.dst)
	}
	return out
}

// sendTimes returns when each packet was written.
func (l *loopback) sendTimes() []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []time.Time
	for _, p := range l.sent {
		out = append(out, p.at)
	}
	return out
}

func (l *loopback) sentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

var errNoSuchHost = errors.New("no such host")

// hosts is a static Resolver.
type hosts map[string]string

func (h hosts) Resolve(_ context.Context, name string) (net.IP, error) {
	if ip := net.ParseIP(name); ip != nil {
		return ip, nil
	}
	a, ok := h[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, errNoSuchHost)
	}
	return net.ParseIP(a), nil
}
