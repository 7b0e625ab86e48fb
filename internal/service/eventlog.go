package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"thermometer_alarm/internal/models"
	"thermometer_alarm/internal/repository"
)

// ErrInvalidFilter is returned for history queries that cannot match anything.
var ErrInvalidFilter = errors.New("invalid filter")

var (
	errInvalidTimeRange = fmt.Errorf("%w: from must not be after to", ErrInvalidFilter)
	errUnknownEventType = fmt.Errorf("%w: unknown event type", ErrInvalidFilter)
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// utcRange converts both bounds to UTC. Zero bounds stay zero (open-ended).
func utcRange(from, to time.Time) (time.Time, time.Time, error) {
	if !from.IsZero() {
		from = from.UTC()
	}
	if !to.IsZero() {
		to = to.UTC()
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, errInvalidTimeRange
	}
	return from, to, nil
}

// eventType canonicalizes a type filter; "" selects every type.
func eventType(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s != "" && !models.IsEventType(s) {
		return "", fmt.Errorf("%w %q", errUnknownEventType, s)
	}
	return s, nil
}

// List returns logged dashboard events in chronological order.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DashboardEvent, error) {
	from, to, err := utcRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	typ, err := eventType(f.Type)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
