package device

import (
	"context"
	"io"

	"thermometer_alarm/internal/logger"
)

// Buzzer produces one audible beep.
type Buzzer interface {
	Beep(ctx context.Context) error
}

// BellBuzzer rings the terminal bell on the dashboard host.
type BellBuzzer struct {
	w io.Writer
}

func NewBellBuzzer(w io.Writer) *BellBuzzer {
	return &BellBuzzer{w: w}
}

func (b *BellBuzzer) Beep(context.Context) error {
	_, err := b.w.Write([]byte{'\a'})
	return err
}

// LogBuzzer only records the beep; for headless hosts.
type LogBuzzer struct {
	log *logger.Logger
}

func NewLogBuzzer(log *logger.Logger) *LogBuzzer {
	return &LogBuzzer{log: log}
}

func (b *LogBuzzer) Beep(context.Context) error {
	b.log.Warnw("threshold_buzzer_beep")
	return nil
}
