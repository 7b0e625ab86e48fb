package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"thermometer_alarm/internal/logger"
	"thermometer_alarm/internal/models"
)

const defaultDialTimeout = 5 * time.Second

// AddressResolver looks up the device's current network address.
type AddressResolver interface {
	LatestAddress(ctx context.Context) (string, error)
}

// Options tunes a Session. Zero values fall back to package defaults.
type Options struct {
	Path           string
	DialTimeout    time.Duration
	RetryInterval  time.Duration
	ProbeTimeout   time.Duration
	BuzzerInterval time.Duration
	WindowSize     int
	Threshold      float64
}

// Session owns the single device socket and the state derived from it.
//
// Every socket gets a generation number. Reader callbacks and retry
// callbacks carry the generation they were started with and are dropped
// once the session has moved on, so nothing stale can revive a session
// the operator closed.
type Session struct {
	mu      sync.Mutex
	status  models.SessionStatus
	conn    Conn
	address string
	gen     uint64
	lastErr error

	opts      Options
	resolver  AddressResolver
	dialer    Dialer
	poller    *Poller
	telemetry *Telemetry
	alarm     *Alarm
	publisher Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewSession(opts Options, resolver AddressResolver, dialer Dialer, buzzer Buzzer, pub Publisher, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if pub == nil {
		pub = Fanout(nil)
	}
	s := &Session{
		status:    models.StatusDisconnected,
		opts:      opts,
		resolver:  resolver,
		dialer:    dialer,
		publisher: pub,
		log:       log,
		now:       time.Now,
	}
	s.alarm = NewAlarm(opts.BuzzerInterval, buzzer, s, log)
	s.telemetry = NewTelemetry(opts.WindowSize, opts.Threshold, s.alarm)
	s.poller = NewPoller(dialer, opts.RetryInterval, opts.ProbeTimeout, log)
	return s
}

// Connect resolves the device address and opens one socket. It does not
// retry; an admission refusal arriving on the socket starts the poller.
func (s *Session) Connect(ctx context.Context) error {
	return s.connect(ctx, nil)
}

// connect with expect set only proceeds while the session generation still
// equals *expect.
func (s *Session) connect(ctx context.Context, expect *uint64) error {
	s.mu.Lock()
	if expect != nil && s.gen != *expect {
		s.mu.Unlock()
		return ErrConnectCancelled
	}
	if s.status != models.StatusDisconnected {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.status = models.StatusConnecting
	s.gen++
	gen := s.gen
	// a manual attempt supersedes a pending retry
	cancelled := s.poller.Cancel()
	s.mu.Unlock()

	if cancelled {
		s.publish(models.SessionEvent{Kind: models.KindRetry, Active: false, Reason: models.RetryCancelled})
	}
	s.publishStatus(models.StatusConnecting, "")

	addr, err := s.resolver.LatestAddress(ctx)
	if err == nil && addr == "" {
		err = errors.New("empty address")
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		s.abort(gen, err)
		s.Notify(models.NoticeError, "No device address found in directory")
		s.log.Warnw("device_address_lookup_failed", "err", err)
		return err
	}

	url := DeviceURL(addr, s.opts.Path)
	dctx, cancel := context.WithTimeout(ctx, s.opts.DialTimeout)
	defer cancel()
	conn, err := s.dialer.Dial(dctx, url)
	if err != nil {
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %v", ErrTransport, err)
		}
		s.abort(gen, err)
		s.Notify(models.NoticeError, "WebSocket connection failed")
		s.log.Warnw("device_dial_failed", "url", url, "err", err)
		return err
	}

	s.mu.Lock()
	if s.gen != gen || s.status != models.StatusConnecting {
		s.mu.Unlock()
		_ = conn.Close()
		return ErrConnectCancelled
	}
	s.conn, s.address, s.status, s.lastErr = conn, addr, models.StatusConnected, nil
	s.mu.Unlock()

	s.publishStatus(models.StatusConnected, addr)
	s.log.Infow("device_connected", "url", url)
	if err := conn.Send(CmdWebConnected); err != nil {
		s.log.Warnw("device_hello_failed", "err", err)
	}
	go s.readLoop(conn, gen)

	// bring the device indicators in line with local state
	if s.telemetry.Recording() {
		s.sendBestEffort(CmdStartRecord)
	}
	if s.alarm.Active() {
		s.sendBestEffort(CmdAlertOn)
	}
	s.Notify(models.NoticeSuccess, "Connected to device")
	return nil
}

// abort returns a Connecting session to Disconnected if gen is still current.
func (s *Session) abort(gen uint64, cause error) {
	s.mu.Lock()
	if s.gen != gen || s.status != models.StatusConnecting {
		s.mu.Unlock()
		return
	}
	s.status, s.lastErr = models.StatusDisconnected, cause
	s.mu.Unlock()
	s.publishStatus(models.StatusDisconnected, "")
}

// Disconnect closes the socket, cancels any retry and invalidates every
// callback still in flight. It is safe to call in any state.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.gen++
	cancelled := s.poller.Cancel()
	conn, was, addr := s.conn, s.status, s.address
	s.conn, s.status = nil, models.StatusDisconnected
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if was != models.StatusDisconnected {
		s.publishStatus(models.StatusDisconnected, addr)
	}
	if cancelled {
		s.publish(models.SessionEvent{Kind: models.KindRetry, Active: false, Reason: models.RetryCancelled})
	}
	if was != models.StatusDisconnected || cancelled {
		s.Notify(models.NoticeInfo, "Disconnected from device")
		s.log.Infow("device_disconnected", "address", addr, "retry_cancelled", cancelled)
	}
}

// Close disconnects and silences the local cue.
func (s *Session) Close() {
	s.Disconnect()
	s.alarm.Close()
}

// Send writes a command on the live socket.
func (s *Session) Send(cmd string) error {
	s.mu.Lock()
	if s.status != models.StatusConnected || s.conn == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	conn := s.conn
	s.mu.Unlock()

	if err := conn.Send(cmd); err != nil {
		return fmt.Errorf("%w: send %s: %v", ErrTransport, cmd, err)
	}
	return nil
}

func (s *Session) sendBestEffort(cmd string) {
	if err := s.Send(cmd); err != nil && !errors.Is(err, ErrNotConnected) {
		s.log.Warnw("device_command_failed", "cmd", cmd, "err", err)
	}
}

func (s *Session) readLoop(conn Conn, gen uint64) {
	for {
		data, err := conn.Receive()
		if err != nil {
			s.handleClosed(gen, err)
			return
		}
		if !s.handleMessage(gen, data) {
			return
		}
	}
}

// handleMessage dispatches one frame; false stops the reader.
func (s *Session) handleMessage(gen uint64, data []byte) bool {
	msg, err := ParseMessage(data)
	if err != nil {
		s.log.Debugw("device_message_dropped", "err", err, "raw", truncate(data, 128))
		return true
	}
	switch {
	case msg.Denied():
		s.handleDenied(gen)
		return false
	case msg.IsTelemetry():
		s.handleTelemetry(gen, *msg.Temperature)
	default:
		s.log.Debugw("device_message_ignored", "error", msg.Error, "status", msg.Status)
	}
	return true
}

func (s *Session) handleDenied(gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.gen++
	retryGen := s.gen
	conn, addr := s.conn, s.address
	s.conn, s.status, s.lastErr = nil, models.StatusDisconnected, ErrAdmissionDenied
	// Start and Cancel both run under s.mu, so a Disconnect or Connect
	// after this point always finds the poller it has to stop.
	started := s.poller.Start(DeviceURL(addr, s.opts.Path), func() { s.onSlotFree(retryGen) })
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	s.publishStatus(models.StatusDisconnected, addr)
	s.Notify(models.NoticeWarning, "Another user is already connected; waiting for the device to become free")
	s.log.Warnw("device_admission_denied", "address", addr)

	if started && s.current(retryGen) {
		s.publish(models.SessionEvent{Kind: models.KindRetry, Active: true, Address: addr, Reason: models.RetryAdmissionDenied})
	}
}

// current reports whether gen is still the live session generation.
func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *Session) onSlotFree(retryGen uint64) {
	if !s.current(retryGen) {
		s.log.Debugw("device_slot_free_stale")
		return
	}
	s.publish(models.SessionEvent{Kind: models.KindRetry, Active: false, Reason: models.RetrySlotFree})
	s.Notify(models.NoticeInfo, "Connection slot available; reconnecting")
	if err := s.connect(context.Background(), &retryGen); err != nil {
		s.log.Warnw("device_reconnect_failed", "err", err)
	}
}

func (s *Session) handleClosed(gen uint64, cause error) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.gen++
	conn, addr := s.conn, s.address
	s.conn, s.status, s.lastErr = nil, models.StatusDisconnected, fmt.Errorf("%w: %v", ErrTransport, cause)
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	s.publishStatus(models.StatusDisconnected, addr)
	s.Notify(models.NoticeWarning, "Connection closed")
	s.log.Infow("device_connection_closed", "address", addr, "err", cause)
}

func (s *Session) handleTelemetry(gen uint64, value float64) {
	if !s.current(gen) {
		return
	}

	obs := s.telemetry.Observe(value)
	r := obs.Reading
	s.publish(models.SessionEvent{Kind: models.KindReading, Reading: &r, Recorded: obs.Recorded})

	switch obs.Edge {
	case EdgeRising:
		s.publish(models.SessionEvent{Kind: models.KindAlert, Armed: true, Reading: &r})
		s.Notify(models.NoticeError, "Temperature threshold reached!")
	case EdgeFalling:
		s.publish(models.SessionEvent{Kind: models.KindAlert, Armed: false, Reading: &r})
		s.Notify(models.NoticeSuccess, "Temperature back to normal")
	}
}

// StartRecording turns recording on and tells the device. False if already on.
func (s *Session) StartRecording() bool {
	if !s.telemetry.SetRecording(true) {
		return false
	}
	s.sendBestEffort(CmdStartRecord)
	s.publish(models.SessionEvent{Kind: models.KindRecord, Active: true})
	return true
}

// StopRecording turns recording off and tells the device. False if already off.
func (s *Session) StopRecording() bool {
	if !s.telemetry.SetRecording(false) {
		return false
	}
	s.sendBestEffort(CmdEndRecord)
	s.publish(models.SessionEvent{Kind: models.KindRecord, Active: false})
	return true
}

func (s *Session) SetThreshold(v float64) error {
	if err := s.telemetry.SetThreshold(v); err != nil {
		return err
	}
	s.publish(models.SessionEvent{Kind: models.KindSettings, ThresholdC: v})
	return nil
}

func (s *Session) Threshold() float64 { return s.telemetry.Threshold() }

// ClearReadings empties the chart window and the export log.
func (s *Session) ClearReadings() { s.telemetry.Clear() }

// Readings returns the export log.
func (s *Session) Readings() []models.Reading { return s.telemetry.Export() }

func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot is the presentation view of the session.
func (s *Session) Snapshot() models.DashboardSnapshot {
	s.mu.Lock()
	snap := models.DashboardSnapshot{Status: s.status, DeviceAddress: s.address}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	s.mu.Unlock()

	snap.Retrying = s.poller.Probing()
	snap.Recording = s.telemetry.Recording()
	snap.ThresholdC = s.telemetry.Threshold()
	snap.Armed = s.telemetry.Armed()
	if v, ok := s.telemetry.Latest(); ok {
		snap.LatestC = &v
	}
	snap.Window = s.telemetry.Window()
	snap.LoggedCount = s.telemetry.Len()
	return snap
}

// Notify publishes a user-facing notice.
func (s *Session) Notify(level, message string) {
	s.publish(models.SessionEvent{Kind: models.KindNotice, Notice: &models.Notice{Level: level, Message: message}})
}

func (s *Session) publishStatus(st models.SessionStatus, addr string) {
	s.publish(models.SessionEvent{Kind: models.KindStatus, Status: st, Address: addr})
}

func (s *Session) publish(ev models.SessionEvent) {
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	s.publisher.Publish(ev)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
