package multiping

import (
	"math"
	"net"
	"sync"
	"time"
)

// history keeps the last round trip times of a destination, most recent
// first. A zero entry is a lost request.
type history struct {
	received int
	lost     int
	results  []time.Duration
	mtx      sync.RWMutex
}

type destination struct {
	host   string
	remote *net.IPAddr
	*history
}

func newDestination(host string, ip net.IP, size uint) *destination {
	return &destination{
		host:    host,
		remote:  &net.IPAddr{IP: ip},
		history: &history{results: make([]time.Duration, size)},
	}
}

func (s *history) addResult(rtt time.Duration, ok bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if ok {
		s.received++
		// coarse clocks can report a 0 rtt, which would read as a loss
		if rtt <= 0 {
			rtt = 1
		}
	} else {
		s.lost++
		rtt = 0
	}
	if len(s.results) == 0 {
		return
	}
	copy(s.results[1:], s.results[:len(s.results)-1])
	s.results[0] = rtt
}

func (s *history) compute() (st Statistics) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	st.PacketsSent = s.received + s.lost
	st.PacketsRecv = s.received
	st.Rtts = make([]time.Duration, len(s.results))
	copy(st.Rtts, s.results)
	if st.PacketsSent == 0 {
		return
	}
	st.PacketLoss = float64(s.lost) / float64(st.PacketsSent) * 100

	var total time.Duration
	count := 0
	for _, rtt := range s.results {
		if rtt == 0 {
			continue
		}
		if count == 0 || rtt < st.MinRtt {
			st.MinRtt = rtt
		}
		if rtt > st.MaxRtt {
			st.MaxRtt = rtt
		}
		total += rtt
		count++
	}
	if count == 0 {
		return
	}
	st.AvgRtt = time.Duration(float64(total) / float64(count))

	var sq float64
	for _, rtt := range s.results {
		if rtt != 0 {
			sq += math.Pow(float64(rtt-st.AvgRtt), 2)
		}
	}
	st.StdDevRtt = time.Duration(math.Sqrt(sq / float64(count)))
	return
}
