package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"thermometer_alarm/internal/models"
)

var errFakeClosed = errors.New("fake conn closed")

type fakeConn struct {
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	sent []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) Send(text string) error {
	select {
	case <-c.closed:
		return errFakeClosed
	default:
	}
	c.mu.Lock()
	c.sent = append(c.sent, text)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Receive() ([]byte, error) {
	select {
	case <-c.closed:
		return nil, errFakeClosed
	case d := <-c.inbound:
		return d, nil
	}
}

func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(s string) { c.inbound <- []byte(s) }

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

// fakeDialer hands out fakeConns; onDial can script each one by dial index.
type fakeDialer struct {
	mu     sync.Mutex
	urls   []string
	conns  []*fakeConn
	err    error
	onDial func(n int, c *fakeConn)
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	if d.err != nil {
		err := d.err
		d.mu.Unlock()
		return nil, err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	n := len(d.conns) - 1
	hook := d.onDial
	d.mu.Unlock()
	if hook != nil {
		hook(n, c)
	}
	return c, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) conn(n int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[n]
}

type manualTicker struct {
	c chan time.Time
}

func newManualTicker() *manualTicker { return &manualTicker{c: make(chan time.Time)} }

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               {}

func (m *manualTicker) factory() TickerFactory {
	return func(time.Duration) Ticker { return m }
}

// tick delivers one tick, reporting false if nobody was listening.
func (m *manualTicker) tick() bool {
	select {
	case m.c <- time.Now():
		return true
	case <-time.After(time.Second):
		return false
	}
}

type staticResolver struct {
	addr string
	err  error
}

func (r staticResolver) LatestAddress(context.Context) (string, error) { return r.addr, r.err }

type countingActuator struct {
	mu     sync.Mutex
	raised int
	clears int
}

func (a *countingActuator) Raise() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.raised++
	return true
}

func (a *countingActuator) Clear() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clears++
	return true
}

func (a *countingActuator) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.raised, a.clears
}

type eventLog struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (l *eventLog) Publish(ev models.SessionEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) kinds(kind models.SessionEventKind) []models.SessionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.SessionEvent
	for _, ev := range l.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (l *eventLog) notices() []string {
	var out []string
	for _, ev := range l.kinds(models.KindNotice) {
		out = append(out, ev.Notice.Message)
	}
	return out
}

type recordingSender struct {
	mu   sync.Mutex
	cmds []string
	err  error
}

func (r *recordingSender) Send(cmd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.cmds = append(r.cmds, cmd)
	return nil
}

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.cmds))
	copy(out, r.cmds)
	return out
}

type funcBuzzer func(ctx context.Context) error

func (f funcBuzzer) Beep(ctx context.Context) error { return f(ctx) }
