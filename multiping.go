package multiping

import "time"

// MinTimeout is the smallest overall and per attempt timeout MultiPing
// accepts.
const MinTimeout = 100 * time.Millisecond

// MultiPing pings addrs and waits at most timeout for their replies. The
// timeout is divided evenly between the initial attempt and up to retry
// resends to the destinations which did not answer in time.
//
// It returns the round trip time of every destination which answered and
// the list of those which did not. Destinations not answering is not an
// error.
func MultiPing(addrs []string, timeout time.Duration, retry int, opts ...Option) (map[string]time.Duration, []string, error) {
	if retry < 0 {
		retry = 0
	}
	if timeout < MinTimeout {
		return nil, nil, ErrInvalidTimeout
	}
	retryTimeout := timeout / time.Duration(retry+1)
	if retryTimeout < MinTimeout {
		return nil, nil, ErrRetryTimeoutTooSmall
	}

	s, err := NewSession(addrs, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	results := make(map[string]time.Duration)
	if len(s.dsts) == 0 {
		return results, s.Unresolved(), nil
	}

	var pending []string
	for attempt := 0; attempt <= retry; attempt++ {
		if err := s.Send(); err != nil {
			return results, nil, err
		}
		var rs map[string]time.Duration
		rs, pending, err = s.Receive(retryTimeout)
		for k, v := range rs {
			results[k] = v
		}
		if err != nil {
			return results, pending, err
		}
		if len(pending) == len(s.unresolved) {
			break
		}
		s.log.Debugf("attempt %d: %d destinations did not answer", attempt+1, len(pending)-len(s.unresolved))
	}
	return results, pending, nil
}
