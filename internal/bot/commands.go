package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"carkeeper/internal/auth"
	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
	"carkeeper/internal/service"
)

const helpText = "ℹ️ <b>コマンド一覧</b>\n" +
	"• /addcar &lt;名前&gt; [odo=km] [avg=km/月] [shaken=YYYY-MM-DD] [oil=規格] — 車を登録\n" +
	"• /cars — 登録済みの車\n" +
	"• /odo [車番号] &lt;km&gt; — 走行距離を更新\n" +
	"• /service [車番号] &lt;内容&gt; [km=距離] [date=YYYY-MM-DD] — 整備を記録\n" +
	"• /history [車番号] — 整備履歴\n" +
	"• /unservice [車番号] — 最新の整備記録を取り消す\n" +
	"• /reminders [車番号] — リマインダー一覧\n" +
	"• /remind [車番号] &lt;内容&gt; [date=YYYY-MM-DD] [km=距離] — リマインダーを追加\n" +
	"• /done &lt;id&gt; · /snooze &lt;id&gt; [日数] · /dismiss &lt;id&gt;\n" +
	"• /digest — 今日の通知\n" +
	"• /categories — 整備カテゴリーと周期"

func (b *Bot) handleStart(chatID int64, from *tgbotapi.User) error {
	name := strings.TrimSpace(from.FirstName)
	if name == "" {
		name = "ドライバー"
	}
	text := fmt.Sprintf("👋 こんにちは、%sさん！\n<b>車のメンテナンス時期をお知らせします。</b>\n\n", escape(name)) + helpText
	return b.sendText(chatID, text)
}

func (b *Bot) handleHelp(chatID int64) error {
	return b.sendText(chatID, helpText)
}

func (b *Bot) handleCars(ctx context.Context, chatID int64, p auth.Principal) error {
	cars, err := b.services.Vehicles.List(ctx, p)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(cars) == 0 {
		return b.sendText(chatID, "車が登録されていません。/addcar で登録してください。")
	}

	var builder strings.Builder
	builder.WriteString("🚗 <b>登録済みの車</b>\n")
	for i, car := range cars {
		builder.WriteString(fmt.Sprintf("%d. <b>%s</b>", i+1, escape(car.Name)))
		if car.CurrentOdometerKm != nil {
			builder.WriteString(fmt.Sprintf(" · %d km", *car.CurrentOdometerKm))
		}
		if car.NextInspectionDate != nil {
			builder.WriteString(" · 車検 " + car.NextInspectionDate.In(b.loc).Format(dateLayout))
		}
		if car.OilSpec != "" {
			builder.WriteString(" · " + escape(car.OilSpec))
		}
		builder.WriteByte('\n')
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleAddCar(ctx context.Context, chatID int64, p auth.Principal, args commandArgs) error {
	in := service.VehicleInput{Name: args.text(0), OilSpec: args.options["oil"]}
	var err error
	if in.CurrentOdometerKm, err = args.km("odo"); err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	if in.AverageKmPerMonth, err = args.km("avg"); err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	if in.NextInspectionDate, err = args.date("shaken", b.loc); err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}

	car, provisioned, err := b.services.Vehicles.Register(ctx, p, in)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("✅ <b>%s</b> を登録しました。\n", escape(car.Name)))
	if len(provisioned) > 0 {
		builder.WriteString("\n🔔 <b>初期リマインダー</b>\n")
	}
	for _, item := range provisioned {
		builder.WriteString(fmt.Sprintf("%s %s", priorityMark(item.Priority), escape(item.Reminder.Title)))
		if item.Reminder.DueDate != nil {
			builder.WriteString(" · " + item.Reminder.DueDate.In(b.loc).Format(dateLayout))
		}
		if item.Reminder.DueOdometerKm != nil {
			builder.WriteString(fmt.Sprintf(" · %d km", *item.Reminder.DueOdometerKm))
		}
		builder.WriteByte('\n')
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleOdometer(ctx context.Context, chatID int64, p auth.Principal, args commandArgs) error {
	if len(args.words) == 0 {
		return b.sendText(chatID, "走行距離を指定してください。例: /odo 1 52000")
	}
	kmWord := args.words[len(args.words)-1]
	km, err := parseKm(kmWord)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	car, _, err := b.pickCar(ctx, p, commandArgs{words: args.words[:len(args.words)-1]})
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	car, err = b.services.Vehicles.UpdateOdometer(ctx, p, car.ID, km)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("📏 <b>%s</b> の走行距離を %d km に更新しました。", escape(car.Name), km))
}

func (b *Bot) handleService(ctx context.Context, chatID int64, p auth.Principal, args commandArgs) error {
	car, rest, err := b.pickCar(ctx, p, args)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	in := service.MaintenanceInput{CarID: car.ID, Title: args.text(rest), Notes: args.options["note"]}
	if in.OdometerKm, err = args.km("km"); err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	date, err := args.date("date", b.loc)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	if date != nil {
		in.PerformedAt = *date
	}

	event, next, err := b.services.Maintenance.Log(ctx, p, in)
	if err != nil && event == nil {
		return b.sendText(chatID, userMessage(err))
	}

	text := fmt.Sprintf("🔧 <b>%s</b>: %s を記録しました。", escape(car.Name), escape(event.Title))
	switch {
	case err != nil:
		text += "\n⚠️ 次回リマインダーを作成できませんでした: " + userMessage(err)
	case next != nil:
		odometer := car.CurrentOdometerKm
		if in.OdometerKm != nil && (odometer == nil || *in.OdometerKm > *odometer) {
			odometer = in.OdometerKm
		}
		st := reminder.Evaluate(*next, b.now(), odometer)
		text += "\n\n🔔 次回\n" + service.FormatStatus(st, car.Name, b.now())
	}
	return b.sendText(chatID, strings.TrimSpace(text))
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, p auth.Principal, args commandArgs) error {
	car, _, err := b.pickCar(ctx, p, args)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	events, err := b.services.Maintenance.ListForCar(ctx, p, car.ID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(events) == 0 {
		return b.sendText(chatID, fmt.Sprintf("<b>%s</b> の整備記録はまだありません。", escape(car.Name)))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📜 <b>%s</b> の整備履歴\n", escape(car.Name)))
	for _, e := range events {
		builder.WriteString(fmt.Sprintf("• %s %s", e.PerformedAt.In(b.loc).Format(dateLayout), escape(e.Title)))
		if e.OdometerKm != nil {
			builder.WriteString(fmt.Sprintf(" · %d km", *e.OdometerKm))
		}
		builder.WriteString(fmt.Sprintf(" <code>%s</code>\n", shortID(e.ID)))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleUnservice(ctx context.Context, chatID int64, p auth.Principal, args commandArgs) error {
	car, _, err := b.pickCar(ctx, p, args)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	events, err := b.services.Maintenance.ListForCar(ctx, p, car.ID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(events) == 0 {
		return b.sendText(chatID, "取り消せる整備記録がありません。")
	}
	latest := events[0]
	if err := b.services.Maintenance.Delete(ctx, p, latest.ID); err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, fmt.Sprintf("↩️ %s %s の記録と関連するリマインダーを削除しました。",
		latest.PerformedAt.In(b.loc).Format(dateLayout), escape(latest.Title)))
}

func (b *Bot) handleReminders(ctx context.Context, chatID int64, p auth.Principal, args commandArgs) error {
	cars, err := b.services.Vehicles.List(ctx, p)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if len(cars) == 0 {
		return b.sendText(chatID, "車が登録されていません。/addcar で登録してください。")
	}
	if len(args.words) > 0 {
		idx, err := parseCarIndex(args.words[0], len(cars))
		if err != nil {
			return b.sendText(chatID, escape(err.Error()))
		}
		cars = cars[idx : idx+1]
	}

	now := b.now()
	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton
	builder.WriteString("🔔 <b>リマインダー</b>\n\n")
	for _, car := range cars {
		list, err := b.services.Reminders.ListForCar(ctx, p, car.ID, false)
		if err != nil {
			return b.sendText(chatID, userMessage(err))
		}
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", escape(car.Name)))
		if len(list) == 0 {
			builder.WriteString("なし\n\n")
			continue
		}
		for _, st := range list {
			builder.WriteString(service.FormatStatus(st, "", now))
			if len(buttons) < maxReminderButtons {
				buttons = append(buttons, reminderButtons(st.Reminder))
			}
		}
		builder.WriteByte('\n')
	}

	text := strings.TrimSpace(builder.String())
	if len(buttons) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(buttons...))
}

const maxReminderButtons = 20

func (b *Bot) handleRemind(ctx context.Context, chatID int64, p auth.Principal, args commandArgs) error {
	car, rest, err := b.pickCar(ctx, p, args)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	in := service.ManualInput{CarID: car.ID, Title: args.text(rest), Notes: args.options["note"]}
	if in.DueDate, err = args.date("date", b.loc); err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	if in.DueOdometerKm, err = args.km("km"); err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	if in.DueDate == nil && in.DueOdometerKm == nil {
		return b.sendText(chatID, "date=YYYY-MM-DD か km=距離 のどちらかを指定してください。")
	}
	in.Kind = manualKind(in.DueDate, in.DueOdometerKm)

	r, err := b.services.Reminders.CreateManual(ctx, p, in)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	st := reminder.Evaluate(*r, b.now(), car.CurrentOdometerKm)
	text := "🆕 リマインダーを追加しました\n" + service.FormatStatus(st, car.Name, b.now()) +
		fmt.Sprintf("<code>%s</code>", r.ID)
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(reminderButtons(*r)))
}

func (b *Bot) handleTransition(ctx context.Context, chatID int64, p auth.Principal, action string, args commandArgs) error {
	if len(args.words) == 0 {
		return b.sendText(chatID, "リマインダーIDを指定してください。")
	}
	days := defaultSnoozeDays
	if action == cbSnoozePrefix {
		var err error
		if days, err = parseSnoozeDays(args.text(1)); err != nil {
			return b.sendText(chatID, escape(err.Error()))
		}
	}
	r, err := b.transition(ctx, p, action, args.words[0], days)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, transitionReply(r))
}

func (b *Bot) transition(ctx context.Context, p auth.Principal, action, id string, days int) (*model.Reminder, error) {
	switch action {
	case cbDonePrefix:
		return b.services.Reminders.MarkDone(ctx, p, id)
	case cbSnoozePrefix:
		return b.services.Reminders.Snooze(ctx, p, id, days)
	default:
		return b.services.Reminders.Dismiss(ctx, p, id)
	}
}

func transitionReply(r *model.Reminder) string {
	title := escape(r.Title)
	switch r.Status {
	case model.StatusDone:
		return fmt.Sprintf("✅ 「%s」を完了にしました。", title)
	case model.StatusDismissed:
		return fmt.Sprintf("🚫 「%s」を却下しました。", title)
	default:
		if r.DueDate != nil {
			return fmt.Sprintf("💤 「%s」を %s まで延期しました。", title, r.DueDate.Format(dateLayout))
		}
		return fmt.Sprintf("💤 「%s」を延期しました。", title)
	}
}

func (b *Bot) handleDigest(ctx context.Context, chatID int64, p auth.Principal) error {
	now := b.now()
	digest, err := b.services.Digest.Build(ctx, p, now)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, digest.Render(now))
}

func (b *Bot) handleCategories(chatID int64) error {
	var builder strings.Builder
	builder.WriteString("📂 <b>整備カテゴリー</b>\n")
	for _, rule := range b.services.Categories.List() {
		builder.WriteString(formatRule(rule) + "\n")
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

// pickCar resolves the leading car number, or the only car when the user
// has one. It returns the index of the first word after the car reference.
func (b *Bot) pickCar(ctx context.Context, p auth.Principal, args commandArgs) (*model.Vehicle, int, error) {
	cars, err := b.services.Vehicles.List(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	if len(cars) == 0 {
		return nil, 0, fmt.Errorf("%w: 先に /addcar で車を登録してください", service.ErrInvalidInput)
	}
	if len(args.words) > 0 {
		if idx, err := parseCarIndex(args.words[0], len(cars)); err == nil {
			return &cars[idx], 1, nil
		}
	}
	if len(cars) == 1 {
		return &cars[0], 0, nil
	}
	return nil, 0, fmt.Errorf("%w: 車の番号を指定してください (/cars で確認)", service.ErrInvalidInput)
}

func priorityMark(p reminder.Priority) string {
	switch p {
	case reminder.PriorityUrgent:
		return "🔴"
	case reminder.PriorityHigh:
		return "🟠"
	case reminder.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}
