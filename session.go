package multiping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

const (
	maxDestinations = 0xffff

	// multiFamilyWait caps the blocking part of a drain pass on one socket
	// while the other address family also has requests outstanding.
	multiFamilyWait = 5 * time.Millisecond
)

// Session sends echo requests to a batch of destinations and collects the
// replies. Send and Receive may be called repeatedly: after a Receive, Send
// only targets the destinations which have not answered yet.
//
// A Session is not safe for concurrent use.
type Session struct {
	opts options
	log  logrus.FieldLogger

	dsts       []string
	ips        map[string]net.IP
	unresolved []string

	conn4 Transport
	conn6 Transport
	owned []Transport

	ids       *idAllocator
	table     map[uint16]string
	order     []uint16
	remaining map[uint16]struct{}
	attempts  map[string]int

	sent     bool
	received bool
}

type inbound struct {
	b      []byte
	at     time.Time
	offset int
	v6     bool
}

// NewSession resolves addrs and prepares a Session. Raw sockets are opened
// for the address families present, unless transports are given with
// WithTransport / WithTransport6.
func NewSession(addrs []string, opts ...Option) (*Session, error) {
	if len(addrs) > maxDestinations {
		return nil, ErrTooManyDestinations
	}
	o := newOptions(opts...)
	s := &Session{
		opts:     o,
		log:      o.logger.WithField("session", xid.New().String()),
		ips:      make(map[string]net.IP, len(addrs)),
		table:    make(map[uint16]string),
		attempts: make(map[string]int, len(addrs)),
		ids:      o.ids,
	}
	if s.ids == nil {
		s.ids = &idAllocator{}
	}

	var need4, need6 bool
	for _, a := range addrs {
		ip, err := s.resolve(a)
		if err != nil {
			if !o.ignoreLookup {
				return nil, err
			}
			s.log.Debugf("ignoring %v", err)
			s.unresolved = append(s.unresolved, a)
			continue
		}
		key := ip.String()
		if _, ok := s.ips[key]; ok {
			continue
		}
		s.ips[key] = ip
		s.dsts = append(s.dsts, key)
		if ip.To4() != nil {
			need4 = true
		} else {
			need6 = true
		}
	}

	s.conn4, s.conn6 = o.conn4, o.conn6
	if need4 && s.conn4 == nil {
		c, err := Listen(false, o.receiveBuffer)
		if err != nil {
			return nil, err
		}
		s.conn4 = c
		s.owned = append(s.owned, c)
	}
	if need6 && s.conn6 == nil {
		c, err := Listen(true, o.receiveBuffer)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.conn6 = c
		s.owned = append(s.owned, c)
	}
	s.log.Debugf("session created for %d destinations (%d unresolved)", len(s.dsts), len(s.unresolved))
	return s, nil
}

func (s *Session) resolve(name string) (net.IP, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.resolverTimeout)
	defer cancel()
	ip, err := s.opts.resolver.Resolve(ctx, name)
	if err != nil {
		return nil, &LookupError{Name: name, Err: err}
	}
	return ip, nil
}

// Destinations returns the resolved destinations in their textual form, the
// keys used in results and pending lists.
func (s *Session) Destinations() []string {
	return append([]string(nil), s.dsts...)
}

// Unresolved returns the names which could not be resolved.
func (s *Session) Unresolved() []string {
	return append([]string(nil), s.unresolved...)
}

// Attempts returns how many echo requests were sent to addr.
func (s *Session) Attempts(addr string) int {
	return s.attempts[addr]
}

// Send sends an echo request to every destination on the first call, and
// to the destinations which did not answer yet once Receive was called.
// Every request gets a fresh id: replies to earlier requests are ignored.
func (s *Session) Send() error {
	targets := s.dsts
	if s.received {
		targets = nil
		for _, id := range s.order {
			if _, ok := s.remaining[id]; ok {
				targets = append(targets, s.table[id])
			}
		}
	}

	s.table = make(map[uint16]string, len(targets))
	s.order = make([]uint16, 0, len(targets))
	s.remaining = make(map[uint16]struct{}, len(targets))
	s.sent = true

	// every target is outstanding before the first write so that a failed
	// write leaves the rest of the batch pending for the next Send
	for _, addr := range targets {
		id := s.ids.next()
		s.table[id] = addr
		s.order = append(s.order, id)
		s.remaining[id] = struct{}{}
	}

	s.log.Debugf("sending echo requests to %d destinations", len(s.order))
	for i, id := range s.order {
		if i > 0 && s.opts.delay > 0 {
			time.Sleep(s.opts.delay)
		}
		addr := s.table[id]
		s.attempts[addr]++
		if err := s.sendEcho(addr, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) sendEcho(addr string, id uint16) error {
	ip := s.ips[addr]
	v6 := ip.To4() == nil
	conn := s.conn4
	if v6 {
		conn = s.conn6
	}
	if conn == nil {
		return fmt.Errorf("%s: no transport for address family", addr)
	}
	pkt := buildEcho(echoRequestType(v6), id, timestampPayload(time.Now(), int(s.opts.payloadSize)))
	return conn.WriteTo(pkt, ip)
}

// Receive waits at most timeout for replies to the outstanding requests.
// It returns the round trip time of every destination which answered during
// this call, and the destinations still waiting for an answer, followed by
// the unresolved names when lookup errors are ignored. When no destination
// resolved, it returns the unresolved names without waiting.
func (s *Session) Receive(timeout time.Duration) (map[string]time.Duration, []string, error) {
	if !s.sent {
		return nil, nil, ErrNoRequestsSent
	}
	s.received = true
	if len(s.dsts) == 0 {
		// nothing resolved, only unresolved names can be pending
		return map[string]time.Duration{}, s.pending(), nil
	}
	if len(s.remaining) == 0 {
		return nil, nil, ErrNoResponsesPending
	}

	results := make(map[string]time.Duration)
	deadline := time.Now().Add(timeout)
	for len(s.remaining) > 0 && time.Now().Before(deadline) {
		pkts, err := s.drain(deadline)
		if err != nil {
			return results, s.pending(), err
		}
		for _, p := range pkts {
			s.match(p, results)
		}
	}
	pending := s.pending()
	s.log.Debugf("received %d responses, %d pending", len(results), len(pending))
	return results, pending, nil
}

// drain reads everything currently available: the first read blocks until
// deadline, the following ones stop as soon as nothing is queued.
func (s *Session) drain(deadline time.Time) ([]inbound, error) {
	var need4, need6 bool
	for id := range s.remaining {
		if s.ips[s.table[id]].To4() != nil {
			need4 = true
		} else {
			need6 = true
		}
	}
	wait := deadline
	if need4 && need6 {
		if d := time.Now().Add(multiFamilyWait); d.Before(wait) {
			wait = d
		}
	}

	var pkts []inbound
	var err error
	if need4 {
		if pkts, err = drainConn(pkts, s.conn4, wait, false); err != nil {
			return nil, err
		}
	}
	if need6 {
		if pkts, err = drainConn(pkts, s.conn6, wait, true); err != nil {
			return nil, err
		}
	}
	return pkts, nil
}

func drainConn(pkts []inbound, conn Transport, deadline time.Time, v6 bool) ([]inbound, error) {
	b, err := conn.ReadFrom(deadline)
	for err == nil {
		pkts = append(pkts, inbound{b: b, at: time.Now(), offset: conn.HeaderLen(), v6: v6})
		b, err = conn.TryReadFrom()
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrWouldBlock) {
		return pkts, nil
	}
	return pkts, err
}

// match records p in results if it answers an outstanding request.
func (s *Session) match(p inbound, results map[string]time.Duration) bool {
	typ, id, payload, ok := parseEcho(p.b, p.offset)
	if !ok {
		return false
	}
	if s.opts.strictReplies && typ != echoReplyType(p.v6) {
		return false
	}
	if _, ok := s.remaining[id]; !ok {
		return false
	}
	sent, ok := decodeTimestamp(payload)
	if !ok {
		return false
	}
	addr := s.table[id]
	results[addr] = time.Duration((unixSeconds(p.at) - sent) * float64(time.Second))
	delete(s.remaining, id)
	return true
}

func (s *Session) pending() []string {
	var out []string
	for _, id := range s.order {
		if _, ok := s.remaining[id]; ok {
			out = append(out, s.table[id])
		}
	}
	return append(out, s.unresolved...)
}

// Close closes the raw sockets opened by the session.
func (s *Session) Close() error {
	var err error
	for _, c := range s.owned {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.owned = nil
	return err
}
