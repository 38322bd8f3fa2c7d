package multiping

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

type Statistics struct {
	// PacketsRecv is the number of packets received.
	PacketsRecv int

	// PacketsSent is the number of packets sent.
	PacketsSent int

	// PacketLoss is the percentage of packets lost.
	PacketLoss float64

	// IPAddr is the address of the host being pinged.
	IPAddr net.IPAddr

	// Addr is the string address of the host being pinged.
	Addr string

	// Rtts is the last round-trip times, most recent first.
	// 0 means timeout
	Rtts []time.Duration

	// MinRtt is the minimum of Rtts.
	MinRtt time.Duration

	// MaxRtt is the maximum of Rtts.
	MaxRtt time.Duration

	// AvgRtt is the average of Rtts.
	AvgRtt time.Duration

	// StdDevRtt is the standard deviation of Rtts.
	StdDevRtt time.Duration
}

// Fields returns s as logrus fields.
func (s Statistics) Fields() logrus.Fields {
	return logrus.Fields{
		"host":     s.Addr,
		"address":  s.IPAddr.String(),
		"sent":     s.PacketsSent,
		"lost":     s.PacketLoss,
		"received": s.PacketsRecv,
		"min":      s.MinRtt,
		"max":      s.MaxRtt,
		"mean":     s.AvgRtt,
		"rtts":     s.Rtts,
	}
}
