package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"carkeeper/internal/auth"
	"carkeeper/internal/reminder"
)

// DigestItem is one reminder in a digest, tagged with its vehicle name.
type DigestItem struct {
	Vehicle string
	Status  reminder.Status
}

// Digest groups a user's open reminders by urgency.
type Digest struct {
	Overdue  []DigestItem
	ThisWeek []DigestItem
	Upcoming []DigestItem
}

func (d Digest) Empty() bool {
	return len(d.Overdue) == 0 && len(d.ThisWeek) == 0 && len(d.Upcoming) == 0
}

// DigestService builds human-readable summaries for daily notifications.
type DigestService struct {
	reminders ReminderStore
	vehicles  VehicleStore
}

func NewDigestService(reminders ReminderStore, vehicles VehicleStore) *DigestService {
	return &DigestService{reminders: reminders, vehicles: vehicles}
}

// Build evaluates every open reminder of the user at now. Low-priority
// reminders are left out.
func (s *DigestService) Build(ctx context.Context, p auth.Principal, now time.Time) (Digest, error) {
	if err := auth.Require(p); err != nil {
		return Digest{}, err
	}
	vehicles, err := s.vehicles.ListByUser(ctx, p.UserID)
	if err != nil {
		return Digest{}, fmt.Errorf("list vehicles: %w", err)
	}
	odometer := make(map[string]*int, len(vehicles))
	names := make(map[string]string, len(vehicles))
	for _, v := range vehicles {
		odometer[v.ID] = v.CurrentOdometerKm
		names[v.ID] = v.Name
	}

	open, err := s.reminders.ListOpenByUser(ctx, p.UserID)
	if err != nil {
		return Digest{}, fmt.Errorf("list reminders: %w", err)
	}

	var overdue, week, upcoming []reminder.Status
	for _, r := range open {
		if _, ok := names[r.CarID]; !ok {
			continue
		}
		st := reminder.Evaluate(r, now, odometer[r.CarID])
		switch {
		case st.Due || st.Priority == reminder.PriorityUrgent:
			overdue = append(overdue, st)
		case st.Priority == reminder.PriorityHigh:
			week = append(week, st)
		case st.Priority == reminder.PriorityMedium:
			upcoming = append(upcoming, st)
		}
	}

	return Digest{
		Overdue:  tagItems(overdue, names),
		ThisWeek: tagItems(week, names),
		Upcoming: tagItems(upcoming, names),
	}, nil
}

func tagItems(list []reminder.Status, names map[string]string) []DigestItem {
	sortStatuses(list)
	out := make([]DigestItem, 0, len(list))
	for _, st := range list {
		out = append(out, DigestItem{Vehicle: names[st.Reminder.CarID], Status: st})
	}
	return out
}

// Render formats the digest as Telegram HTML.
func (d Digest) Render(now time.Time) string {
	var builder strings.Builder
	builder.WriteString("🚗 <b>メンテナンス通知</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	if d.Empty() {
		builder.WriteString("✅ 期限が近いリマインダーはありません\n")
		return strings.TrimSpace(builder.String())
	}

	section := func(title string, items []DigestItem) {
		if len(items) == 0 {
			return
		}
		builder.WriteString(title + "\n")
		for _, item := range items {
			builder.WriteString(FormatStatus(item.Status, item.Vehicle, now))
		}
		builder.WriteByte('\n')
	}
	section("⚠️ <b>期限切れ</b>", d.Overdue)
	section("⏳ <b>今週</b>", d.ThisWeek)
	section("🗓 <b>今月</b>", d.Upcoming)

	return strings.TrimSpace(builder.String())
}

// FormatStatus renders a single evaluated reminder line.
func FormatStatus(st reminder.Status, vehicle string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s", priorityIcon(st), html.EscapeString(strings.TrimSpace(st.Reminder.Title))))
	if trimmed := strings.TrimSpace(vehicle); trimmed != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(trimmed)))
	}

	r := st.Reminder
	if st.DaysLeft != nil && r.DueDate != nil {
		d := r.DueDate.In(now.Location())
		if *st.DaysLeft < 0 {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s — <b>%d日超過</b>", d.Format("2006-01-02"), -*st.DaysLeft))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s · あと%d日", d.Format("2006-01-02"), *st.DaysLeft))
		}
	}
	if r.DueOdometerKm != nil && r.Kind.UsesDistance() {
		if st.DistanceLeft != nil {
			sb.WriteString(fmt.Sprintf("\n   📏 %d km · あと%d km", *r.DueOdometerKm, *st.DistanceLeft))
		} else {
			sb.WriteString(fmt.Sprintf("\n   📏 %d km", *r.DueOdometerKm))
		}
	}
	if r.Enrichment != nil && r.Enrichment.ReservationURL != "" {
		sb.WriteString(fmt.Sprintf("\n   🔧 <a href=\"%s\">予約</a>", html.EscapeString(r.Enrichment.ReservationURL)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func priorityIcon(st reminder.Status) string {
	if st.Due {
		return "🔴"
	}
	switch st.Priority {
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
