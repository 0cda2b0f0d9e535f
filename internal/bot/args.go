package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"carkeeper/internal/auth"
	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
	"carkeeper/internal/service"
)

const dateLayout = "2006-01-02"

// commandArgs is a command line split into free words and key=value options.
type commandArgs struct {
	words   []string
	options map[string]string
}

func parseArgs(raw string) commandArgs {
	out := commandArgs{options: make(map[string]string)}
	for _, field := range strings.Fields(raw) {
		if key, value, ok := strings.Cut(field, "="); ok && key != "" {
			out.options[strings.ToLower(key)] = value
			continue
		}
		out.words = append(out.words, field)
	}
	return out
}

// text joins the free words from index i on.
func (a commandArgs) text(i int) string {
	if i >= len(a.words) {
		return ""
	}
	return strings.Join(a.words[i:], " ")
}

func (a commandArgs) km(key string) (*int, error) {
	raw, ok := a.options[key]
	if !ok {
		return nil, nil
	}
	v, err := parseKm(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (a commandArgs) date(key string, loc *time.Location) (*time.Time, error) {
	raw, ok := a.options[key]
	if !ok {
		return nil, nil
	}
	v, err := parseDate(raw, loc)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseKm accepts "50000", "50,000" and "50000km".
func parseKm(s string) (int, error) {
	clean := strings.ToLower(strings.TrimSpace(s))
	clean = strings.TrimSuffix(clean, "km")
	clean = strings.ReplaceAll(clean, ",", "")
	v, err := strconv.Atoi(clean)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("距離は0以上の整数で指定してください: %q", s)
	}
	return v, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	clean := strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	t, err := time.ParseInLocation(dateLayout, clean, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("日付は YYYY-MM-DD で指定してください: %q", s)
	}
	return t, nil
}

// parseCarIndex maps a 1-based position from /cars onto a slice index.
func parseCarIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("車の番号は 1〜%d で指定してください", count)
	}
	return n - 1, nil
}

func parseSnoozeDays(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return defaultSnoozeDays, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("日数は正の整数で指定してください")
	}
	return n, nil
}

// manualKind derives the trigger kind from the supplied due points.
func manualKind(date *time.Time, km *int) model.ReminderKind {
	switch {
	case date != nil && km != nil:
		return model.KindBoth
	case km != nil:
		return model.KindDistance
	default:
		return model.KindTime
	}
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func escape(s string) string {
	return html.EscapeString(s)
}

// userMessage turns a service error into a reply.
func userMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return "ユーザーを確認できませんでした。/start からやり直してください。"
	case errors.Is(err, service.ErrNotFound):
		return "見つかりませんでした。"
	case errors.Is(err, reminder.ErrTerminal):
		return "このリマインダーは既に完了または却下されています。"
	case errors.Is(err, reminder.ErrInvalidSnooze):
		return "延期する日数は1日以上にしてください。"
	case errors.Is(err, service.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
		return "入力を確認してください: " + escape(msg)
	default:
		return "エラーが発生しました: " + escape(err.Error())
	}
}

func kindLabel(k model.ReminderKind) string {
	switch k {
	case model.KindDistance:
		return "距離"
	case model.KindBoth:
		return "期間+距離"
	default:
		return "期間"
	}
}

func formatRule(r reminder.Rule) string {
	var parts []string
	if r.MonthsOffset != nil {
		parts = append(parts, fmt.Sprintf("%dヶ月", *r.MonthsOffset))
	}
	if r.KmOffset != nil {
		parts = append(parts, fmt.Sprintf("%d km", *r.KmOffset))
	}
	interval := strings.Join(parts, " / ")
	if interval == "" {
		interval = "-"
	}
	alias := ""
	if len(r.Aliases) > 0 {
		alias = r.Aliases[0]
	}
	return fmt.Sprintf("• <b>%s</b> (%s): %s", escape(alias), kindLabel(r.Kind()), interval)
}
