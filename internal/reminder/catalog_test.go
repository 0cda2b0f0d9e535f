package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carkeeper/internal/model"
)

func TestSuggestNextOilChange(t *testing.T) {
	c := DefaultCatalog()
	s, ok := c.SuggestNext("oil change", date(2024, 1, 10), ptr(50000))
	require.True(t, ok)

	assert.Equal(t, CategoryOilChange, s.Category)
	assert.Equal(t, model.KindBoth, s.Kind)
	assert.Equal(t, "次回オイル交換", s.Title)
	require.NotNil(t, s.DueDate)
	assert.Equal(t, date(2024, 7, 10), *s.DueDate)
	require.NotNil(t, s.DueOdometerKm)
	assert.Equal(t, 55000, *s.DueOdometerKm)
	assert.True(t, s.Special)
	assert.Equal(t, "auto-generated: oil change", s.Notes)
	require.NotNil(t, s.Threshold.MonthsOffset)
	assert.Equal(t, 6, *s.Threshold.MonthsOffset)
}

func TestLookupNormalizesTitles(t *testing.T) {
	c := DefaultCatalog()
	cases := []struct {
		title string
		want  string
	}{
		{"オイル交換", CategoryOilChange},
		{"  Engine   OIL ", CategoryOilChange},
		{"ＯＩＬ ＣＨＡＮＧＥ", CategoryOilChange},
		{"ｵｲﾙ交換", CategoryOilChange},
		{"エンジンオイル交換", CategoryOilChange},
		{"エンジンオイルフィルター交換", CategoryOilFilter},
		{"Brake Fluid flush", CategoryBrakeFluid},
		{"タイヤローテーション", CategoryTireRotation},
		{"車検", CategoryInspection},
		{"tire_rotation", CategoryTireRotation},
	}
	for _, tc := range cases {
		rule, ok := c.Lookup(tc.title)
		if assert.True(t, ok, tc.title) {
			assert.Equal(t, tc.want, rule.Key, tc.title)
		}
	}
}

func TestLookupPrefersHeadNoun(t *testing.T) {
	c := DefaultCatalog()
	cases := map[string]string{
		"engine oil filter":         CategoryOilFilter,
		"Engine Oil Filter swap":    CategoryOilFilter,
		"oil change":                CategoryOilChange,
		"inspection":                CategoryInspection,
		"annual vehicle inspection": CategoryInspection,
		"battery":                   CategoryBattery,
		"battery replacement":       CategoryBattery,
		"バッテリー交換":                   CategoryBattery,
	}
	for title, want := range cases {
		rule, ok := c.Lookup(title)
		if assert.True(t, ok, title) {
			assert.Equal(t, want, rule.Key, title)
		}
	}
}

func TestLookupRejectsGenericAndAmbiguousTitles(t *testing.T) {
	c := DefaultCatalog()
	for _, title := range []string{
		"tire inspection",
		"brake inspection",
		"battery inspection",
		"coolant check",
		"oil change and air filter",
	} {
		rule, ok := c.Lookup(title)
		assert.False(t, ok, "%s resolved to %s", title, rule.Key)
	}
}

func TestUnknownCategoryYieldsNoSuggestion(t *testing.T) {
	c := DefaultCatalog()
	for _, title := range []string{"", "洗車", "car wash", "   "} {
		_, ok := c.SuggestNext(title, date(2024, 1, 1), ptr(1000))
		assert.False(t, ok, title)
	}
}

func TestRuleKinds(t *testing.T) {
	c := DefaultCatalog()
	kinds := map[string]model.ReminderKind{
		CategoryOilChange:    model.KindBoth,
		CategoryBrakeFluid:   model.KindTime,
		CategoryTireRotation: model.KindDistance,
	}
	for key, want := range kinds {
		rule, ok := c.Rule(key)
		require.True(t, ok)
		assert.Equal(t, want, rule.Kind(), key)
	}

	s, ok := c.SuggestNext("tire rotation", date(2024, 1, 1), ptr(30000))
	require.True(t, ok)
	assert.Nil(t, s.DueDate)
	require.NotNil(t, s.DueOdometerKm)
	assert.Equal(t, 35000, *s.DueOdometerKm)
}

func TestNormalizedAliases(t *testing.T) {
	c := DefaultCatalog()
	aliases := c.NormalizedAliases(CategoryOilChange)
	assert.Contains(t, aliases, "オイル交換")
	assert.Contains(t, aliases, "エンジンオイル")
	assert.Contains(t, aliases, "engine oil")
	assert.NotContains(t, aliases, "oil filter")
}

func TestNewCatalogRejectsConflicts(t *testing.T) {
	_, err := NewCatalog([]Rule{
		{Key: "a", Aliases: []string{"x"}, MonthsOffset: intPtr(1)},
		{Key: "b", Aliases: []string{"X"}, MonthsOffset: intPtr(1)},
	})
	assert.Error(t, err)

	_, err = NewCatalog([]Rule{{Key: "a"}})
	assert.Error(t, err)
}

func TestWithOverrides(t *testing.T) {
	c, err := DefaultCatalog().WithOverrides(map[string]Override{
		CategoryOilChange: {Months: intPtr(3), Km: intPtr(0), Aliases: []string{"オイル換え"}},
	})
	require.NoError(t, err)

	rule, ok := c.Lookup("オイル換え")
	require.True(t, ok)
	assert.Equal(t, CategoryOilChange, rule.Key)
	assert.Equal(t, model.KindTime, rule.Kind())
	assert.Equal(t, 3, *rule.MonthsOffset)

	_, err = DefaultCatalog().WithOverrides(map[string]Override{"nope": {}})
	assert.Error(t, err)
}
