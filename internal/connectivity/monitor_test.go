package connectivity

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fedjobfinder/jobcache/pkg/logging"
)

type fakeProber struct {
	up atomic.Bool
}

func (f *fakeProber) Probe(_ context.Context) bool {
	return f.up.Load()
}

func TestMonitorPublishesTransitions(t *testing.T) {
	prober := &fakeProber{}
	prober.up.Store(true)

	m := NewMonitor(prober, 10*time.Millisecond, false, logging.NewNop())

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	// First probe reports connected.
	select {
	case st := <-ch:
		if !st.Connected {
			t.Errorf("expected connected, got %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification for initial probe")
	}

	if !m.Status().Connected {
		t.Error("Status() disagrees with notification")
	}

	// Network drops on a later tick.
	prober.up.Store(false)
	select {
	case st := <-ch:
		if st.Connected {
			t.Errorf("expected disconnected, got %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification for connectivity loss")
	}
}

func TestMonitorNoNotificationWithoutChange(t *testing.T) {
	prober := &fakeProber{}
	prober.up.Store(true)

	m := NewMonitor(prober, 5*time.Millisecond, false, logging.NewNop())

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	<-ch // initial transition

	select {
	case st := <-ch:
		t.Errorf("unexpected notification with stable state: %+v", st)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSetExpensive(t *testing.T) {
	m := NewMonitor(&fakeProber{}, time.Minute, false, logging.NewNop())

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.SetExpensive(true)

	select {
	case st := <-ch:
		if !st.Expensive {
			t.Errorf("expected expensive, got %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification for expensive flag change")
	}

	if !m.Status().Expensive {
		t.Error("Status() missing expensive flag")
	}
}
