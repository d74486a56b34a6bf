package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"coupon-marketplace/internal/config"
	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/adapter"
	"coupon-marketplace/internal/infra/metrics"
)

var _ adapter.Notifier = (*Bot)(nil)

// botAPI is the part of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// DashboardSource is what /stats reads from.
type DashboardSource interface {
	Dashboard(ctx context.Context, actor model.Actor) (*model.Dashboard, error)
}

// Bot pushes operator alerts to the configured admin chats and answers their /stats command.
type Bot struct {
	api        botAPI
	adminChats []int64
	admins     map[int64]struct{}
	stats      DashboardSource
	workers    int
	log        *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewBot(cfg config.NotifyConfig, stats DashboardSource, logger *zerolog.Logger) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, errors.New("telegram token is empty")
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return newBot(api, cfg, stats, logger), nil
}

func newBot(api botAPI, cfg config.NotifyConfig, stats DashboardSource, logger *zerolog.Logger) *Bot {
	l := logger.With().Str("component", "telegram").Logger()
	admins := make(map[int64]struct{}, len(cfg.AdminChatIDs))
	for _, id := range cfg.AdminChatIDs {
		admins[id] = struct{}{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	return &Bot{api: api, adminChats: cfg.AdminChatIDs, admins: admins, stats: stats, workers: workers, log: &l}
}

// Notify sends text to every admin chat. One failing chat does not stop the others.
func (b *Bot) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, chatID := range b.adminChats {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			metrics.IncNotification("error")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		metrics.IncNotification("sent")
	}
	return errors.Join(errs...)
}

// StartPolling processes updates until ctx is cancelled.
func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updates:
					if !ok {
						return
					}
					if err := b.handleUpdate(ctx, update); err != nil {
						b.log.Warn().Err(err).Int("worker", workerID).Msg("handle update")
					}
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	<-ctx.Done()
	b.api.StopReceivingUpdates()
	wg.Wait()
	return nil
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}
	chatID := msg.Chat.ID
	if !b.isAdmin(chatID) {
		return b.reply(chatID, "This bot only serves marketplace operators.")
	}

	switch msg.Command() {
	case "start", "help":
		return b.reply(chatID, "Commands:\n/stats - marketplace dashboard\n/help - this message")
	case "stats":
		actor := model.Actor{UserID: "telegram:" + strconv.FormatInt(chatID, 10), Role: model.RoleAdmin}
		d, err := b.stats.Dashboard(ctx, actor)
		if err != nil {
			b.log.Error().Err(err).Msg("load dashboard")
			return b.reply(chatID, "Failed to load stats. Please try again later.")
		}
		return b.reply(chatID, FormatDashboard(d))
	default:
		return b.reply(chatID, "Unknown command. Send /help for the list of commands.")
	}
}

func (b *Bot) reply(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) isAdmin(chatID int64) bool {
	_, ok := b.admins[chatID]
	return ok
}

// FormatDashboard renders the dashboard as a short plain-text report.
func FormatDashboard(d *model.Dashboard) string {
	var sb strings.Builder
	sb.WriteString("Coupons by status:\n")
	statuses := make([]string, 0, len(d.Counts))
	for st := range d.Counts {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		fmt.Fprintf(&sb, "  %s: %d\n", st, d.Counts[model.CouponStatus(st)])
	}
	fmt.Fprintf(&sb, "Platform revenue: %d.%02d\n", d.TotalRevenue/100, d.TotalRevenue%100)
	if len(d.RecentSubmissions) > 0 {
		sb.WriteString("Awaiting review:\n")
		for _, c := range d.RecentSubmissions {
			fmt.Fprintf(&sb, "  - %s (%s)\n", c.Title, c.Category)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
