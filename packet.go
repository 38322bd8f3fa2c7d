package multiping

import (
	"encoding/binary"
	"math"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	icmpHeaderLen = 8
	// ipv4HeaderLen is the IP header a raw IPv4 socket hands back in front of
	// every ICMP message. IPv6 raw sockets strip it.
	ipv4HeaderLen = 20

	timestampSize = 8
)

// buildEcho returns an echo message of type typ carrying id and payload,
// with sequence 0 and a valid checksum.
func buildEcho(typ icmp.Type, id uint16, payload []byte) []byte {
	b := make([]byte, icmpHeaderLen+len(payload))
	b[0] = byte(typeNumber(typ))
	b[1] = 0
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], 0)
	copy(b[icmpHeaderLen:], payload)
	binary.BigEndian.PutUint16(b[2:4], Checksum(b))
	return b
}

// parseEcho extracts the echo id and payload of an ICMP message starting at
// offset in buf. ok is false when buf is too short to hold a header.
func parseEcho(buf []byte, offset int) (typ int, id uint16, payload []byte, ok bool) {
	if offset < 0 || len(buf) < offset+icmpHeaderLen {
		return 0, 0, nil, false
	}
	return int(buf[offset]), binary.BigEndian.Uint16(buf[offset+4 : offset+6]), buf[offset+icmpHeaderLen:], true
}

// timestampPayload encodes t as a little endian float64 of Unix seconds,
// zero padded to size bytes.
func timestampPayload(t time.Time, size int) []byte {
	if size < timestampSize {
		size = timestampSize
	}
	b := make([]byte, size)
	binary.LittleEndian.PutUint64(b, math.Float64bits(unixSeconds(t)))
	return b
}

func decodeTimestamp(payload []byte) (float64, bool) {
	if len(payload) < timestampSize {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(payload[:timestampSize])), true
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func typeNumber(t icmp.Type) int {
	switch t := t.(type) {
	case ipv4.ICMPType:
		return int(t)
	case ipv6.ICMPType:
		return int(t)
	}
	return 0
}

func echoRequestType(v6 bool) icmp.Type {
	if v6 {
		return ipv6.ICMPTypeEchoRequest
	}
	return ipv4.ICMPTypeEcho
}

func echoReplyType(v6 bool) int {
	if v6 {
		return int(ipv6.ICMPTypeEchoReply)
	}
	return int(ipv4.ICMPTypeEchoReply)
}
