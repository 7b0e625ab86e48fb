package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"thermometer_alarm/internal/logger"
	"thermometer_alarm/internal/models"
	"thermometer_alarm/internal/repository"
)

const (
	recorderQueueSize    = 64
	recorderWriteTimeout = 5 * time.Second
)

// Recorder turns session events into persisted log entries. It is a session
// publisher: Publish never blocks, one worker appends in arrival order.
type Recorder struct {
	eventRepo repository.EventRepo
	log       *logger.Logger

	mu     sync.Mutex
	closed bool
	queue  chan models.SessionEvent
	done   chan struct{}

	// owned by the worker
	lastStatus models.SessionStatus
}

func NewRecorder(eventRepo repository.EventRepo, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	r := &Recorder{
		eventRepo:  eventRepo,
		log:        log,
		queue:      make(chan models.SessionEvent, recorderQueueSize),
		done:       make(chan struct{}),
		lastStatus: models.StatusDisconnected,
	}
	go r.run()
	return r
}

func (r *Recorder) Publish(ev models.SessionEvent) {
	switch ev.Kind {
	case models.KindReading, models.KindNotice:
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.log.Warnw("event_recorder_queue_full", "kind", ev.Kind)
	}
}

// Close writes whatever is queued and stops the worker.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for ev := range r.queue {
		e, ok := r.toEvent(ev)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), recorderWriteTimeout)
		if err := r.eventRepo.Append(ctx, e); err != nil {
			r.log.Errorw("event_append_failed", "type", e.Type, "err", err)
		}
		cancel()
	}
}

// toEvent maps a session event onto a log entry; false means nothing to log.
func (r *Recorder) toEvent(ev models.SessionEvent) (models.DashboardEvent, bool) {
	e := models.DashboardEvent{EventID: uuid.NewString(), OccurredAt: ev.At.UTC()}
	if ev.At.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	switch ev.Kind {
	case models.KindStatus:
		prev := r.lastStatus
		r.lastStatus = ev.Status
		switch {
		case ev.Status == models.StatusConnected:
			e.Type, e.Description = models.EventConnected, "Connected to device at "+ev.Address
			e.Metadata = map[string]any{"address": ev.Address}
		case ev.Status == models.StatusDisconnected && prev == models.StatusConnected:
			e.Type, e.Description = models.EventDisconnected, "Disconnected from device"
			e.Metadata = map[string]any{"address": ev.Address}
		default:
			return e, false
		}

	case models.KindRetry:
		switch ev.Reason {
		case models.RetryAdmissionDenied:
			e.Type, e.Description = models.EventAdmissionDenied, "Another user is connected; retrying"
			e.Metadata = map[string]any{"address": ev.Address}
		case models.RetrySlotFree:
			e.Type, e.Description = models.EventSlotFree, "Connection slot became free"
		default:
			return e, false
		}

	case models.KindAlert:
		if ev.Armed {
			e.Type, e.Description = models.EventAlertOn, "Temperature threshold reached"
		} else {
			e.Type, e.Description = models.EventAlertOff, "Temperature back to normal"
		}
		if ev.Reading != nil {
			e.Metadata = map[string]any{
				"temperature_c": ev.Reading.TemperatureC,
				"threshold_c":   ev.Reading.ThresholdC,
			}
		}

	case models.KindRecord:
		if ev.Active {
			e.Type, e.Description = models.EventRecordStart, "Recording started"
		} else {
			e.Type, e.Description = models.EventRecordStop, "Recording stopped"
		}

	case models.KindSettings:
		e.Type = models.EventThreshold
		e.Description = fmt.Sprintf("Threshold set to %.2f °C", ev.ThresholdC)
		e.Metadata = map[string]any{"threshold_c": ev.ThresholdC}

	default:
		return e, false
	}
	return e, true
}
