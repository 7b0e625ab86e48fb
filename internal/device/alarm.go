package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"thermometer_alarm/internal/logger"
)

// DefaultBuzzerInterval is the repeat period of the audible cue.
const DefaultBuzzerInterval = time.Second

// CommandSender writes a command on the active device socket.
type CommandSender interface {
	Send(cmd string) error
}

// Alarm drives the local audible cue and mirrors the alert to the device.
type Alarm struct {
	mu       sync.Mutex
	stop     context.CancelFunc
	done     chan struct{}
	interval time.Duration

	buzzer Buzzer
	sender CommandSender
	log    *logger.Logger
}

func NewAlarm(interval time.Duration, buzzer Buzzer, sender CommandSender, log *logger.Logger) *Alarm {
	if interval <= 0 {
		interval = DefaultBuzzerInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Alarm{interval: interval, buzzer: buzzer, sender: sender, log: log}
}

// Raise starts the cue and sends threshold_alert_on. A second Raise while
// raised does nothing and returns false.
func (a *Alarm) Raise() bool {
	a.mu.Lock()
	if a.stop != nil {
		a.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.stop, a.done = cancel, done
	a.mu.Unlock()

	go a.cue(ctx, done)
	a.send(CmdAlertOn)
	return true
}

// Clear stops the cue and sends threshold_alert_off. Returns false when not raised.
func (a *Alarm) Clear() bool {
	if !a.halt() {
		return false
	}
	a.send(CmdAlertOff)
	return true
}

// Active reports whether the cue is running.
func (a *Alarm) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stop != nil
}

// Close stops the cue without telling the device; used on shutdown.
func (a *Alarm) Close() {
	a.halt()
}

// halt cancels the cue goroutine and waits for it to exit.
func (a *Alarm) halt() bool {
	a.mu.Lock()
	stop, done := a.stop, a.done
	a.stop, a.done = nil, nil
	a.mu.Unlock()
	if stop == nil {
		return false
	}
	stop()
	<-done
	return true
}

func (a *Alarm) send(cmd string) {
	if a.sender == nil {
		return
	}
	if err := a.sender.Send(cmd); err != nil && !errors.Is(err, ErrNotConnected) {
		a.log.Warnw("alarm_command_failed", "cmd", cmd, "err", err)
	}
}

func (a *Alarm) cue(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(a.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.beep(ctx)
		}
	}
}

// beep never propagates buzzer failures, panics included.
func (a *Alarm) beep(ctx context.Context) {
	if a.buzzer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Warnw("buzzer_panic", "recovered", r)
		}
	}()
	if err := a.buzzer.Beep(ctx); err != nil {
		a.log.Warnw("buzzer_failed", "err", err)
	}
}
