package multiping

import "time"

// idAllocator hands out echo ids. Ids are only unique among the at most
// 65535 requests outstanding at once.
type idAllocator struct {
	last   uint16
	seeded bool
	now    func() time.Time
}

func (a *idAllocator) next() uint16 {
	if !a.seeded {
		now := time.Now
		if a.now != nil {
			now = a.now
		}
		// seed from the clock so that a new run does not pick up replies
		// still in flight for the previous one
		a.last = uint16(now().Unix() & 0xffff)
		a.seeded = true
	}
	a.last++
	return a.last
}
