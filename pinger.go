package multiping

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger probes a set of destinations periodically, one batch session per
// interval, and keeps statistics for each of them.
type Pinger interface {
	// Addresses returns the list of the destinations host
	Addresses() []string
	// IPAddresses returns the list of the destinations addresses
	IPAddresses() []net.IPAddr

	// AddAddress add a destination to the pinger
	AddAddress(a string) error
	// Remove Address remove a destination from the pinger
	RemoveAddress(a string) error

	// Run start the pinger and blocks until it is stopped or its context is done.
	// It returns immediately if the pinger is already running
	Run()
	// Stop stops the pinger. It fails silently if the pinger is already stopped
	Stop()

	// IsRunning returns the state of the pinger
	IsRunning() bool

	// Statistics returns the a map address ping Statistics
	Statistics() map[string]Statistics

	SetLogger(l logrus.FieldLogger)

	// Close closes the connections. It should be call deferred right after the creation of the pinger
	Close()
}

type _pinger struct {
	ctx context.Context

	opts    options
	optFns  []Option
	ids     *idAllocator
	conn4   Transport
	conn6   Transport
	owned   []Transport
	cmu     sync.Mutex
	log     logrus.FieldLogger
	logLock sync.RWMutex

	dsts map[string]*destination
	dmu  sync.RWMutex

	running bool
	rmu     sync.RWMutex

	stats map[string]Statistics
	smu   sync.RWMutex

	done chan struct{}
}

// NewPinger create a new Pinger with given addresses
func NewPinger(ctx context.Context, addrs []string, opts ...Option) (Pinger, error) {
	p := newPinger(ctx, opts...)
	for _, a := range addrs {
		if err := p.AddAddress(a); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func newPinger(ctx context.Context, opts ...Option) *_pinger {
	o := newOptions(opts...)
	return &_pinger{
		ctx:    ctx,
		opts:   o,
		optFns: opts,
		ids:    &idAllocator{},
		conn4:  o.conn4,
		conn6:  o.conn6,
		log:    o.logger,
		dsts:   make(map[string]*destination),
		stats:  make(map[string]Statistics),
	}
}

func (p *_pinger) logger() logrus.FieldLogger {
	p.logLock.RLock()
	defer p.logLock.RUnlock()
	return p.log
}

func (p *_pinger) SetLogger(l logrus.FieldLogger) {
	p.logLock.Lock()
	p.log = l
	p.logLock.Unlock()
}

func (p *_pinger) Addresses() []string {
	p.dmu.RLock()
	defer p.dmu.RUnlock()
	as := make([]string, 0, len(p.dsts))
	for k := range p.dsts {
		as = append(as, k)
	}
	return as
}

func (p *_pinger) IPAddresses() []net.IPAddr {
	p.dmu.RLock()
	defer p.dmu.RUnlock()
	ipas := make([]net.IPAddr, 0, len(p.dsts))
	for _, v := range p.dsts {
		ipas = append(ipas, *v.remote)
	}
	return ipas
}

func (p *_pinger) AddAddress(a string) error {
	p.dmu.Lock()
	defer p.dmu.Unlock()
	if _, ok := p.dsts[a]; ok {
		return fmt.Errorf("%s already exists", a)
	}
	if len(p.dsts) >= maxDestinations {
		return ErrTooManyDestinations
	}
	ctx, cancel := context.WithTimeout(p.ctx, p.opts.resolverTimeout)
	defer cancel()
	ip, err := p.opts.resolver.Resolve(ctx, a)
	if err != nil {
		return fmt.Errorf("error resolving host %s: %w", a, &LookupError{Name: a, Err: err})
	}
	p.dsts[a] = newDestination(a, ip, p.opts.statBufferSize)
	return nil
}

func (p *_pinger) RemoveAddress(a string) error {
	p.dmu.Lock()
	defer p.dmu.Unlock()
	if _, ok := p.dsts[a]; !ok {
		return fmt.Errorf("%s not found", a)
	}
	delete(p.dsts, a)
	p.smu.Lock()
	delete(p.stats, a)
	p.smu.Unlock()
	return nil
}

func (p *_pinger) Run() {
	p.rmu.Lock()
	if p.running {
		p.rmu.Unlock()
		return
	}
	p.running = true
	done := make(chan struct{})
	p.done = done
	p.rmu.Unlock()

	p.ping()
	t := time.NewTicker(p.opts.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.ping()
		case <-p.ctx.Done():
			p.logger().Debug(p.ctx.Err())
			p.Stop()
			return
		case <-done:
			p.logger().Debug("received stop signal")
			return
		}
	}
}

// ping runs one batch session over all the destinations and records the
// outcome in their history.
func (p *_pinger) ping() {
	p.dmu.RLock()
	dsts := make(map[string]*destination, len(p.dsts))
	for k, v := range p.dsts {
		dsts[k] = v
	}
	p.dmu.RUnlock()
	log := p.logger()
	log.Debugf("destinations' count: %d", len(dsts))
	if len(dsts) == 0 {
		return
	}

	rs, err := p.round(dsts, log)
	if err != nil {
		log.WithError(err).Warn("ping round failed")
		return
	}
	for a, d := range dsts {
		rtt, ok := rs[d.remote.IP.String()]
		d.addResult(rtt, ok)
		s := d.compute()
		s.Addr = a
		s.IPAddr = *d.remote
		log.WithFields(s.Fields()).Debug()
		p.smu.Lock()
		p.stats[a] = s
		p.smu.Unlock()
	}
}

func (p *_pinger) round(dsts map[string]*destination, log logrus.FieldLogger) (map[string]time.Duration, error) {
	p.cmu.Lock()
	defer p.cmu.Unlock()

	addrs := make([]string, 0, len(dsts))
	for _, d := range dsts {
		v6 := d.remote.IP.To4() == nil
		if err := p.transport(v6); err != nil {
			return nil, err
		}
		addrs = append(addrs, d.remote.IP.String())
	}
	opts := append(append([]Option(nil), p.optFns...),
		WithTransport(p.conn4),
		WithTransport6(p.conn6),
		WithResolver(DefaultResolver),
		WithLogger(log),
		withIDs(p.ids),
	)
	s, err := NewSession(addrs, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	if err := s.Send(); err != nil {
		return nil, err
	}
	rs, _, err := s.Receive(p.opts.timeout)
	return rs, err
}

// transport opens the socket of the given family on first use.
func (p *_pinger) transport(v6 bool) error {
	if (!v6 && p.conn4 != nil) || (v6 && p.conn6 != nil) {
		return nil
	}
	c, err := Listen(v6, p.opts.receiveBuffer)
	if err != nil {
		return err
	}
	if v6 {
		p.conn6 = c
	} else {
		p.conn4 = c
	}
	p.owned = append(p.owned, c)
	return nil
}

func (p *_pinger) Stop() {
	p.rmu.Lock()
	defer p.rmu.Unlock()
	if !p.running {
		return
	}
	close(p.done)
	p.running = false
}

func (p *_pinger) IsRunning() bool {
	p.rmu.RLock()
	defer p.rmu.RUnlock()
	return p.running
}

func (p *_pinger) Statistics() map[string]Statistics {
	p.dmu.RLock()
	defer p.dmu.RUnlock()
	p.smu.RLock()
	defer p.smu.RUnlock()
	out := make(map[string]Statistics, len(p.stats))
	for k, s := range p.stats {
		// Filter removed addresses
		if _, ok := p.dsts[k]; !ok {
			continue
		}
		s.Rtts = append([]time.Duration(nil), s.Rtts...)
		out[k] = s
	}
	return out
}

func (p *_pinger) Close() {
	p.Stop()
	p.cmu.Lock()
	defer p.cmu.Unlock()
	for _, c := range p.owned {
		if err := c.Close(); err != nil {
			p.logger().WithError(err).Debug("close transport")
		}
	}
	p.owned = nil
	p.conn4, p.conn6 = p.opts.conn4, p.opts.conn6
}
