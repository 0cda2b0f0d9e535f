package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"carkeeper/internal/auth"
	"carkeeper/internal/config"
	"carkeeper/internal/model"
	"carkeeper/internal/repository"
	"carkeeper/internal/service"
)

const (
	cbDonePrefix    = "done:"
	cbSnoozePrefix  = "snooze:"
	cbDismissPrefix = "dismiss:"
)

const defaultSnoozeDays = 7

const (
	menuLabelCars      = "🚗 車一覧"
	menuLabelReminders = "🔔 リマインダー"
	menuLabelDigest    = "📋 今日の通知"
	menuLabelHelp      = "ℹ️ ヘルプ"
)

// Services groups the collaborators the bot drives.
type Services struct {
	Users       *repository.UserRepository
	Vehicles    *service.VehicleService
	Maintenance *service.MaintenanceService
	Reminders   *service.ReminderService
	Digest      *service.DigestService
	Categories  *service.CategoryService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api      *tgbotapi.BotAPI
	services Services
	loc      *time.Location
}

func New(token string, services Services, cfg config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Bot{api: api, services: services, loc: loc}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) now() time.Time {
	return time.Now().In(b.loc)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "メッセージを理解できませんでした。/help でコマンド一覧を確認できます。")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	p, err := b.principal(ctx, msg.From)
	if err != nil {
		return err
	}
	args := parseArgs(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return b.handleStart(chatID, msg.From)
	case "help":
		return b.handleHelp(chatID)
	case "cars":
		return b.handleCars(ctx, chatID, p)
	case "addcar":
		return b.handleAddCar(ctx, chatID, p, args)
	case "odo":
		return b.handleOdometer(ctx, chatID, p, args)
	case "service":
		return b.handleService(ctx, chatID, p, args)
	case "history":
		return b.handleHistory(ctx, chatID, p, args)
	case "unservice":
		return b.handleUnservice(ctx, chatID, p, args)
	case "reminders":
		return b.handleReminders(ctx, chatID, p, args)
	case "remind":
		return b.handleRemind(ctx, chatID, p, args)
	case "done":
		return b.handleTransition(ctx, chatID, p, cbDonePrefix, args)
	case "snooze":
		return b.handleTransition(ctx, chatID, p, cbSnoozePrefix, args)
	case "dismiss":
		return b.handleTransition(ctx, chatID, p, cbDismissPrefix, args)
	case "digest":
		return b.handleDigest(ctx, chatID, p)
	case "categories":
		return b.handleCategories(chatID)
	default:
		return b.sendText(chatID, "このコマンドには対応していません。/help を確認してください。")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(msg.Text)
	switch text {
	case menuLabelCars, menuLabelReminders, menuLabelDigest, menuLabelHelp:
	default:
		return false, nil
	}

	p, err := b.principal(ctx, msg.From)
	if err != nil {
		return true, err
	}
	switch text {
	case menuLabelCars:
		return true, b.handleCars(ctx, msg.Chat.ID, p)
	case menuLabelReminders:
		return true, b.handleReminders(ctx, msg.Chat.ID, p, commandArgs{})
	case menuLabelDigest:
		return true, b.handleDigest(ctx, msg.Chat.ID, p)
	default:
		return true, b.handleHelp(msg.Chat.ID)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	var prefix string
	for _, candidate := range []string{cbDonePrefix, cbSnoozePrefix, cbDismissPrefix} {
		if strings.HasPrefix(cb.Data, candidate) {
			prefix = candidate
			break
		}
	}
	if prefix == "" {
		b.ackCallback(cb.ID, "")
		return nil
	}

	id := strings.TrimPrefix(cb.Data, prefix)
	log.Printf("[info] callback %s user=%d reminder=%s", strings.TrimSuffix(prefix, ":"), cb.From.ID, id)

	p, err := b.principal(ctx, cb.From)
	if err != nil {
		b.ackCallback(cb.ID, "")
		return err
	}
	r, err := b.transition(ctx, p, prefix, id, defaultSnoozeDays)
	if err != nil {
		b.ackCallback(cb.ID, "失敗しました")
		return b.sendText(cb.Message.Chat.ID, userMessage(err))
	}
	b.ackCallback(cb.ID, "更新しました")
	return b.sendText(cb.Message.Chat.ID, transitionReply(r))
}

func (b *Bot) ackCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Printf("callback ack: %v", err)
	}
}

// SendDailyReports delivers the digest to every vehicle owner with something
// due.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.services.Users.ListDigestRecipients(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for i := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		user := users[i]
		digest, err := b.services.Digest.Build(ctx, auth.FromUser(&user), now)
		if err != nil {
			log.Printf("build digest for user %d: %v", user.TelegramID, err)
			continue
		}
		if digest.Empty() {
			continue
		}
		if err := b.sendText(user.TelegramID, digest.Render(now)); err != nil {
			log.Printf("send digest to %d: %v", user.TelegramID, err)
			continue
		}
		if err := b.services.Users.MarkDigestSent(ctx, user.ID, now); err != nil {
			log.Printf("[warn] mark digest sent user=%d: %v", user.ID, err)
		}
	}
	return nil
}

// principal resolves the Telegram sender into the identity every service
// call is scoped to.
func (b *Bot) principal(ctx context.Context, from *tgbotapi.User) (auth.Principal, error) {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.FromUser(user), nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.services.Users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCars),
			tgbotapi.NewKeyboardButton(menuLabelReminders),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelDigest),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

// reminderButtons renders done/snooze/dismiss actions for one reminder.
func reminderButtons(r model.Reminder) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(r.Title, 14), cbDonePrefix+r.ID),
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("💤 %d日", defaultSnoozeDays), cbSnoozePrefix+r.ID),
		tgbotapi.NewInlineKeyboardButtonData("🚫", cbDismissPrefix+r.ID),
	)
}
