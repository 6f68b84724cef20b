package mqtt

// pending is a message waiting for the broker to come back.
type pending struct {
	topic    string
	payload  []byte
	retained bool
}

// backlog holds messages while the broker is unreachable. When full, the
// oldest telemetry message goes first; lifecycle messages are only dropped
// once nothing else is left. Not safe for concurrent use.
type backlog struct {
	msgs  []pending
	limit int
	lost  int
}

func newBacklog(limit int) *backlog {
	return &backlog{msgs: make([]pending, 0, limit), limit: limit}
}

// add queues m and reports whether an older message was dropped to make room.
func (b *backlog) add(m pending) bool {
	if b.limit <= 0 {
		b.lost++
		return true
	}
	dropped := false
	if len(b.msgs) == b.limit {
		victim := 0
		for i, q := range b.msgs {
			if !q.retained {
				victim = i
				break
			}
		}
		b.msgs = append(b.msgs[:victim], b.msgs[victim+1:]...)
		b.lost++
		dropped = true
	}
	b.msgs = append(b.msgs, m)
	return dropped
}

// take empties the backlog, returning the queued messages oldest first and
// how many were dropped since the previous take.
func (b *backlog) take() ([]pending, int) {
	msgs, lost := b.msgs, b.lost
	b.msgs = make([]pending, 0, b.limit)
	b.lost = 0
	if len(msgs) == 0 {
		msgs = nil
	}
	return msgs, lost
}

func (b *backlog) size() int { return len(b.msgs) }
