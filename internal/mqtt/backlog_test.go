package mqtt

import "testing"

func telemetryMsg(n byte) pending { return pending{topic: "battery/1/telemetry", payload: []byte{n}} }
func systemMsg(n byte) pending {
	return pending{topic: "battery/1/system", payload: []byte{n}, retained: true}
}

func payloads(msgs []pending) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func TestBacklogEmptyTake(t *testing.T) {
	b := newBacklog(4)
	msgs, lost := b.take()
	if msgs != nil || lost != 0 {
		t.Errorf("empty take: got %d msgs, %d lost", len(msgs), lost)
	}
}

func TestBacklogKeepsOrder(t *testing.T) {
	b := newBacklog(4)
	b.add(systemMsg(1))
	b.add(telemetryMsg(2))
	b.add(telemetryMsg(3))

	msgs, lost := b.take()
	if got := payloads(msgs); string(got) != "\x01\x02\x03" {
		t.Errorf("order: got %v, want [1 2 3]", got)
	}
	if lost != 0 {
		t.Errorf("lost: got %d, want 0", lost)
	}
	if b.size() != 0 {
		t.Errorf("size after take: got %d, want 0", b.size())
	}
}

func TestBacklogDropsOldestTelemetryFirst(t *testing.T) {
	b := newBacklog(3)
	b.add(systemMsg(1))
	b.add(telemetryMsg(2))
	b.add(telemetryMsg(3))

	if !b.add(telemetryMsg(4)) {
		t.Error("expected a drop when full")
	}

	msgs, lost := b.take()
	if got := payloads(msgs); string(got) != "\x01\x03\x04" {
		t.Errorf("kept: got %v, want [1 3 4]", got)
	}
	if lost != 1 {
		t.Errorf("lost: got %d, want 1", lost)
	}
}

func TestBacklogDropsOldestLifecycleWhenNothingElse(t *testing.T) {
	b := newBacklog(2)
	b.add(systemMsg(1))
	b.add(systemMsg(2))
	b.add(systemMsg(3))

	msgs, _ := b.take()
	if got := payloads(msgs); string(got) != "\x02\x03" {
		t.Errorf("kept: got %v, want [2 3]", got)
	}
}

func TestBacklogLostResetsOnTake(t *testing.T) {
	b := newBacklog(1)
	b.add(telemetryMsg(1))
	b.add(telemetryMsg(2))
	b.add(telemetryMsg(3))

	if _, lost := b.take(); lost != 2 {
		t.Errorf("first take lost: got %d, want 2", lost)
	}
	b.add(telemetryMsg(4))
	if _, lost := b.take(); lost != 0 {
		t.Errorf("second take lost: got %d, want 0", lost)
	}
}

func TestBacklogZeroLimitDropsEverything(t *testing.T) {
	b := newBacklog(0)
	if !b.add(telemetryMsg(1)) {
		t.Error("expected the message to be dropped")
	}
	msgs, lost := b.take()
	if msgs != nil || lost != 1 {
		t.Errorf("got %d msgs, %d lost; want none kept, 1 lost", len(msgs), lost)
	}
}
