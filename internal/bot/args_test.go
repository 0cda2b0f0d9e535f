package bot

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carkeeper/internal/auth"
	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
	"carkeeper/internal/service"
)

func TestParseArgsSplitsOptions(t *testing.T) {
	args := parseArgs("2 エンジン オイル交換 km=50,000 DATE=2024-01-10")

	assert.Equal(t, []string{"2", "エンジン", "オイル交換"}, args.words)
	assert.Equal(t, "エンジン オイル交換", args.text(1))
	assert.Empty(t, args.text(5))

	km, err := args.km("km")
	require.NoError(t, err)
	assert.Equal(t, 50000, *km)

	date, err := args.date("date", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), *date)

	missing, err := args.km("odo")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParseKm(t *testing.T) {
	for in, want := range map[string]int{"50000": 50000, "50,000": 50000, "1200km": 1200, " 0 ": 0} {
		got, err := parseKm(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "-5", "abc", "1.5"} {
		_, err := parseKm(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDateAcceptsSlashes(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	got, err := parseDate("2025/03/01", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, loc), got)

	_, err = parseDate("01.03.2025", loc)
	assert.Error(t, err)
}

func TestParseCarIndex(t *testing.T) {
	idx, err := parseCarIndex("#2", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = parseCarIndex("0", 3)
	assert.Error(t, err)
	_, err = parseCarIndex("4", 3)
	assert.Error(t, err)
}

func TestParseSnoozeDays(t *testing.T) {
	days, err := parseSnoozeDays("")
	require.NoError(t, err)
	assert.Equal(t, defaultSnoozeDays, days)

	days, err = parseSnoozeDays("3")
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	_, err = parseSnoozeDays("0")
	assert.Error(t, err)
}

func TestManualKind(t *testing.T) {
	d := time.Now()
	km := 1000
	assert.Equal(t, model.KindBoth, manualKind(&d, &km))
	assert.Equal(t, model.KindDistance, manualKind(nil, &km))
	assert.Equal(t, model.KindTime, manualKind(&d, nil))
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "オイル 交換", shortTitle(" オイル\n交換 ", 10))
	assert.Equal(t, "ブレーキ…", shortTitle("ブレーキフルード", 5))
	assert.Equal(t, "abc", shortTitle("abc", 3))
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, userMessage(fmt.Errorf("reminder: %w", service.ErrNotFound)), "見つかりません")
	assert.Contains(t, userMessage(reminder.ErrTerminal), "既に完了")
	assert.Contains(t, userMessage(auth.ErrUnauthenticated), "/start")
	assert.Equal(t, "入力を確認してください: title is required",
		userMessage(fmt.Errorf("%w: %s", service.ErrInvalidInput, "title is required")))
}

func TestReminderButtonsFitCallbackLimit(t *testing.T) {
	r := model.Reminder{ID: "0f8fad5b-d9cb-469f-a165-70867728950e", Title: "次回オイル交換"}
	row := reminderButtons(r)
	require.Len(t, row, 3)
	for _, btn := range row {
		require.NotNil(t, btn.CallbackData)
		assert.LessOrEqual(t, len(*btn.CallbackData), 64)
	}
	assert.Equal(t, cbDonePrefix+r.ID, *row[0].CallbackData)
}
