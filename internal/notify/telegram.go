package notify

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"thermometer_alarm/internal/logger"
	"thermometer_alarm/internal/models"
)

const telegramQueueSize = 16

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends alert transitions to a chat. Messages are queued and sent by
// one worker; when the queue is full new messages are dropped.
type Telegram struct {
	bot    botSender
	chatID int64
	log    *logger.Logger

	mu     sync.Mutex
	closed bool
	queue  chan string
	done   chan struct{}
}

// NewTelegram authorizes the bot token and starts the sender.
func NewTelegram(token string, chatID int64, log *logger.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	if log != nil {
		log.Infow("telegram_authorized", "username", bot.Self.UserName)
	}
	return newTelegram(bot, chatID, log), nil
}

func newTelegram(bot botSender, chatID int64, log *logger.Logger) *Telegram {
	if log == nil {
		log = logger.Nop()
	}
	t := &Telegram{
		bot:    bot,
		chatID: chatID,
		log:    log,
		queue:  make(chan string, telegramQueueSize),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Telegram) Publish(ev models.SessionEvent) {
	if ev.Kind != models.KindAlert {
		return
	}
	t.enqueue(alertText(ev))
}

func alertText(ev models.SessionEvent) string {
	var temp, threshold float64
	if ev.Reading != nil {
		temp, threshold = ev.Reading.TemperatureC, ev.Reading.ThresholdC
	}
	at := ev.At.Local().Format("2006-01-02 15:04:05")
	if ev.Armed {
		return fmt.Sprintf("🚨 <b>Temperature threshold reached</b>\n🌡 %.2f °C (threshold %.2f °C)\n🕐 %s", temp, threshold, at)
	}
	return fmt.Sprintf("✅ <b>Temperature back to normal</b>\n🌡 %.2f °C (threshold %.2f °C)\n🕐 %s", temp, threshold, at)
}

func (t *Telegram) enqueue(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- text:
	default:
		t.log.Warnw("telegram_queue_full")
	}
}

func (t *Telegram) run() {
	defer close(t.done)
	for text := range t.queue {
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			t.log.Warnw("telegram_send_failed", "err", err)
		}
	}
}

// Close flushes queued messages and stops the sender.
func (t *Telegram) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()
	<-t.done
}
