package device

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"thermometer_alarm/internal/logger"
)

// Poller defaults.
const (
	DefaultRetryInterval = 3 * time.Second
	DefaultProbeTimeout  = 2 * time.Second
)

// PollerState is the retry state machine position.
type PollerState int

const (
	PollerIdle PollerState = iota
	PollerProbing
)

func (s PollerState) String() string {
	if s == PollerProbing {
		return "probing"
	}
	return "idle"
}

// Ticker delivers probe ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a ticker for the given interval.
type TickerFactory func(interval time.Duration) Ticker

type backoffTicker struct {
	t *backoff.Ticker
}

func (b backoffTicker) C() <-chan time.Time { return b.t.C }
func (b backoffTicker) Stop()               { b.t.Stop() }

// newBackoffTicker ticks at a constant interval. The backoff ticker fires
// once immediately; that tick is drained so the first probe waits one interval.
func newBackoffTicker(interval time.Duration) Ticker {
	t := backoff.NewTicker(backoff.NewConstantBackOff(interval))
	<-t.C
	return backoffTicker{t: t}
}

// Poller probes the device with disposable sockets until the single client
// slot is free, then invokes the callback given to Start exactly once.
type Poller struct {
	mu     sync.Mutex
	state  PollerState
	token  uint64
	cancel context.CancelFunc
	probe  Conn

	interval     time.Duration
	probeTimeout time.Duration
	dialer       Dialer
	newTicker    TickerFactory
	log          *logger.Logger
}

func NewPoller(dialer Dialer, interval, probeTimeout time.Duration, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{
		interval:     interval,
		probeTimeout: probeTimeout,
		dialer:       dialer,
		newTicker:    newBackoffTicker,
		log:          log,
	}
}

// Start enters Probing against url. It is a no-op returning false while
// already probing.
func (p *Poller) Start(url string, onFree func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PollerProbing {
		return false
	}
	p.token++
	ctx, cancel := context.WithCancel(context.Background())
	p.state, p.cancel = PollerProbing, cancel
	go p.run(ctx, p.token, url, onFree)
	return true
}

// Cancel leaves Probing without invoking the callback. Any open probe socket
// is closed and late replies are discarded. Returns false when idle.
func (p *Poller) Cancel() bool {
	p.mu.Lock()
	if p.state != PollerProbing {
		p.mu.Unlock()
		return false
	}
	p.token++
	p.cancel()
	p.state, p.cancel = PollerIdle, nil
	probe := p.probe
	p.probe = nil
	p.mu.Unlock()

	if probe != nil {
		_ = probe.Close()
	}
	return true
}

func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) Probing() bool { return p.State() == PollerProbing }

func (p *Poller) run(ctx context.Context, token uint64, url string, onFree func()) {
	ticker := p.newTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticker.C():
			if !ok || ctx.Err() != nil {
				return
			}
			p.log.Debugw("retry_probe", "url", url)
			free, err := p.check(ctx, token, url)
			if err != nil {
				p.log.Debugw("retry_probe_failed", "url", url, "err", err)
				continue
			}
			if !free {
				continue
			}
			if p.finish(token) {
				p.log.Infow("retry_slot_free", "url", url)
				onFree()
			}
			return
		}
	}
}

// finish moves Probing → Idle if token is still the live one.
func (p *Poller) finish(token uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if token != p.token || p.state != PollerProbing {
		return false
	}
	p.cancel()
	p.state, p.cancel = PollerIdle, nil
	return true
}

// check opens one probe socket, sends the probe token and waits for a verdict.
func (p *Poller) check(ctx context.Context, token uint64, url string) (bool, error) {
	dctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	conn, err := p.dialer.Dial(dctx, url)
	if err != nil {
		return false, err
	}
	if !p.track(token, conn) {
		_ = conn.Close()
		return false, ErrConnectCancelled
	}
	defer p.untrack(conn)

	if err := conn.Send(CmdProbe); err != nil {
		return false, err
	}
	_ = conn.SetReadDeadline(time.Now().Add(p.probeTimeout))
	for {
		data, err := conn.Receive()
		if err != nil {
			return false, err
		}
		msg, err := ParseMessage(data)
		if err != nil {
			continue
		}
		switch {
		case msg.SlotFree():
			return true, nil
		case msg.Denied():
			return false, nil
		}
	}
}

func (p *Poller) track(token uint64, conn Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if token != p.token {
		return false
	}
	p.probe = conn
	return true
}

func (p *Poller) untrack(conn Conn) {
	p.mu.Lock()
	if p.probe == conn {
		p.probe = nil
	}
	p.mu.Unlock()
	_ = conn.Close()
}
