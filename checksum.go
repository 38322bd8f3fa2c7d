package multiping

// Checksum returns the Internet checksum (RFC 1071) of b: the one's
// complement of the one's complement sum of its big-endian 16-bit words.
// len(b) must be even.
func Checksum(b []byte) uint16 {
	var s uint32
	for i := 0; i+1 < len(b); i += 2 {
		s += uint32(b[i])<<8 | uint32(b[i+1])
		s = s&0xffff + s>>16
	}
	return ^uint16(s)
}
