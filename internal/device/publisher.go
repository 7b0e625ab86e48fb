package device

import "thermometer_alarm/internal/models"

// Publisher receives session events. Implementations must not block.
type Publisher interface {
	Publish(ev models.SessionEvent)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev models.SessionEvent)

func (f PublisherFunc) Publish(ev models.SessionEvent) { f(ev) }

// Fanout delivers each event to every publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ev models.SessionEvent) {
	for _, p := range f {
		if p != nil {
			p.Publish(ev)
		}
	}
}
