package reminder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"carkeeper/internal/model"
)

// Category keys. A reminder's category is fixed at creation and is what
// dedup and cascade queries key on.
const (
	CategoryOilChange    = "oil_change"
	CategoryOilFilter    = "oil_filter"
	CategoryBrakeFluid   = "brake_fluid"
	CategoryTireRotation = "tire_rotation"
	CategoryAirFilter    = "air_filter"
	CategoryCoolant      = "coolant"
	CategoryBattery      = "battery"
	CategoryWiper        = "wiper"
	CategorySparkPlug    = "spark_plug"
	CategoryTireCheck    = "tire_check"
	CategoryInspection   = "inspection"
	CategoryAnnualTax    = "annual_tax"
)

// Rule maps a maintenance category to its next due point.
type Rule struct {
	Key     string
	Aliases []string
	// ExactAliases match only a whole title. Generic words such as
	// "inspection" go here so "tire inspection" is not read as 車検.
	ExactAliases []string
	Title        string
	MonthsOffset *int
	KmOffset     *int
	// Special marks rules whose reminders are handed to the enrichment
	// collaborator after creation.
	Special bool
}

// Kind derives the trigger kind from the offsets the rule defines.
func (r Rule) Kind() model.ReminderKind {
	switch {
	case r.MonthsOffset != nil && r.KmOffset != nil:
		return model.KindBoth
	case r.KmOffset != nil:
		return model.KindDistance
	default:
		return model.KindTime
	}
}

func (r Rule) Threshold() model.Threshold {
	return model.Threshold{MonthsOffset: copyInt(r.MonthsOffset), KmOffset: copyInt(r.KmOffset)}
}

// Suggestion is a reminder the engine proposes. It is not persisted as is.
type Suggestion struct {
	Category      string
	Kind          model.ReminderKind
	Title         string
	DueDate       *time.Time
	DueOdometerKm *int
	Threshold     model.Threshold
	Special       bool
	Priority      Priority
	Notes         string
}

// Reminder turns the suggestion into an active reminder for carID.
func (s Suggestion) Reminder(userID uint, carID string) model.Reminder {
	return model.Reminder{
		UserID:        userID,
		CarID:         carID,
		Category:      s.Category,
		Kind:          s.Kind,
		Title:         s.Title,
		DueDate:       s.DueDate,
		DueOdometerKm: s.DueOdometerKm,
		Threshold:     s.Threshold,
		Status:        model.StatusActive,
		Notes:         s.Notes,
	}
}

// Catalog is an immutable set of rules indexed by normalized alias.
type Catalog struct {
	rules   []Rule
	byKey   map[string]Rule
	byAlias map[string]string
	// contained holds the aliases that may match inside a longer title.
	contained []string
}

// NewCatalog indexes rules. Keys and aliases must be unique.
func NewCatalog(rules []Rule) (*Catalog, error) {
	c := &Catalog{
		byKey:   make(map[string]Rule, len(rules)),
		byAlias: make(map[string]string),
	}
	for _, rule := range rules {
		if rule.Key == "" {
			return nil, fmt.Errorf("catalog rule without key")
		}
		if rule.MonthsOffset == nil && rule.KmOffset == nil {
			return nil, fmt.Errorf("catalog rule %q has no offset", rule.Key)
		}
		if _, dup := c.byKey[rule.Key]; dup {
			return nil, fmt.Errorf("duplicate catalog rule %q", rule.Key)
		}
		c.byKey[rule.Key] = rule
		c.rules = append(c.rules, rule)
		exact := append([]string{rule.Key}, rule.ExactAliases...)
		for i, alias := range append(exact, rule.Aliases...) {
			norm := Normalize(strings.ReplaceAll(alias, "_", " "))
			if norm == "" {
				continue
			}
			if owner, dup := c.byAlias[norm]; dup && owner != rule.Key {
				return nil, fmt.Errorf("alias %q claimed by %q and %q", alias, owner, rule.Key)
			}
			c.byAlias[norm] = rule.Key
			if i >= len(exact) && !contains(c.contained, norm) {
				c.contained = append(c.contained, norm)
			}
		}
	}
	sort.Strings(c.contained)
	return c, nil
}

// Rules returns the catalog entries in declaration order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Rule returns the entry for an exact category key.
func (c *Catalog) Rule(key string) (Rule, bool) {
	r, ok := c.byKey[key]
	return r, ok
}

// Lookup resolves a free-text title to a rule. An exact alias wins.
// Otherwise every contained alias is located in the title; where matches of
// different rules overlap, the one ending later wins, since the head noun
// comes last ("engine oil filter" is a filter). Titles that match nothing, or
// that still name more than one rule, yield false.
func (c *Catalog) Lookup(title string) (Rule, bool) {
	norm := Normalize(strings.ReplaceAll(title, "_", " "))
	if norm == "" {
		return Rule{}, false
	}
	if key, ok := c.byAlias[norm]; ok {
		return c.byKey[key], true
	}

	var found []aliasMatch
	for _, alias := range c.contained {
		if i := strings.Index(norm, alias); i >= 0 {
			found = append(found, aliasMatch{key: c.byAlias[alias], start: i, end: i + len(alias)})
		}
	}

	key := ""
	for _, m := range found {
		if m.beaten(found) {
			continue
		}
		if key != "" && key != m.key {
			return Rule{}, false
		}
		key = m.key
	}
	if key == "" {
		return Rule{}, false
	}
	return c.byKey[key], true
}

type aliasMatch struct {
	key        string
	start, end int
}

// beaten reports whether an overlapping match of another rule ends later, or
// ends at the same place and covers more of the title.
func (m aliasMatch) beaten(all []aliasMatch) bool {
	for _, o := range all {
		if o.key == m.key || o.start >= m.end || m.start >= o.end {
			continue
		}
		if o.end > m.end || (o.end == m.end && o.start < m.start) {
			return true
		}
	}
	return false
}

// NormalizedAliases lists every normalized alias of key, the key included.
func (c *Catalog) NormalizedAliases(key string) []string {
	var out []string
	for alias, owner := range c.byAlias {
		if owner == key {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// SuggestNext maps a performed maintenance to the next due point. Unknown
// categories return false; that is a normal outcome, not an error.
func (c *Catalog) SuggestNext(category string, performedAt time.Time, odometerAtService *int) (Suggestion, bool) {
	rule, ok := c.Lookup(category)
	if !ok {
		return Suggestion{}, false
	}
	s := Suggestion{
		Category:  rule.Key,
		Kind:      rule.Kind(),
		Title:     rule.Title,
		Threshold: rule.Threshold(),
		Special:   rule.Special,
		Notes:     "auto-generated: " + strings.ReplaceAll(rule.Key, "_", " "),
	}
	if rule.MonthsOffset != nil {
		due := performedAt.AddDate(0, *rule.MonthsOffset, 0)
		s.DueDate = &due
	}
	if rule.KmOffset != nil && odometerAtService != nil {
		km := *odometerAtService + *rule.KmOffset
		s.DueOdometerKm = &km
	}
	return s, true
}

// WithOverrides returns a copy of the catalog with offsets replaced for the
// given keys. Unknown keys are rejected.
func (c *Catalog) WithOverrides(overrides map[string]Override) (*Catalog, error) {
	rules := c.Rules()
	for key := range overrides {
		if _, ok := c.byKey[key]; !ok {
			return nil, fmt.Errorf("override for unknown category %q", key)
		}
	}
	for i, rule := range rules {
		o, ok := overrides[rule.Key]
		if !ok {
			continue
		}
		if o.Months != nil {
			rule.MonthsOffset = positiveOrNil(*o.Months)
		}
		if o.Km != nil {
			rule.KmOffset = positiveOrNil(*o.Km)
		}
		if o.Title != "" {
			rule.Title = o.Title
		}
		rule.Aliases = append(append([]string(nil), rule.Aliases...), o.Aliases...)
		rule.ExactAliases = append([]string(nil), rule.ExactAliases...)
		rules[i] = rule
	}
	return NewCatalog(rules)
}

// Override adjusts one catalog rule. A zero offset removes that trigger.
type Override struct {
	Months  *int     `yaml:"months"`
	Km      *int     `yaml:"km"`
	Title   string   `yaml:"title"`
	Aliases []string `yaml:"aliases"`
}

func positiveOrNil(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func intPtr(v int) *int { return &v }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultRules is the built-in catalog.
func DefaultRules() []Rule {
	return []Rule{
		{
			Key:          CategoryOilChange,
			Aliases:      []string{"オイル交換", "エンジンオイル", "oil change", "engine oil"},
			Title:        "次回オイル交換",
			MonthsOffset: intPtr(6),
			KmOffset:     intPtr(5000),
			Special:      true,
		},
		{
			Key:          CategoryOilFilter,
			Aliases:      []string{"オイルフィルター", "オイルエレメント", "oil filter", "oil element"},
			Title:        "次回オイルフィルター交換",
			MonthsOffset: intPtr(12),
			KmOffset:     intPtr(10000),
		},
		{
			Key:          CategoryBrakeFluid,
			Aliases:      []string{"ブレーキフルード", "ブレーキオイル", "brake fluid"},
			Title:        "次回ブレーキフルード交換",
			MonthsOffset: intPtr(24),
		},
		{
			Key:      CategoryTireRotation,
			Aliases:  []string{"タイヤローテーション", "tire rotation", "tyre rotation"},
			Title:    "次回タイヤローテーション",
			KmOffset: intPtr(5000),
		},
		{
			Key:          CategoryAirFilter,
			Aliases:      []string{"エアフィルター", "エアクリーナー", "エアエレメント", "air filter"},
			Title:        "次回エアフィルター交換",
			MonthsOffset: intPtr(24),
			KmOffset:     intPtr(20000),
		},
		{
			Key:          CategoryCoolant,
			Aliases:      []string{"クーラント交換", "冷却水交換", "coolant change", "coolant flush"},
			ExactAliases: []string{"クーラント", "冷却水", "coolant", "antifreeze"},
			Title:        "次回クーラント交換",
			MonthsOffset: intPtr(24),
		},
		{
			Key:          CategoryBattery,
			Aliases:      []string{"バッテリー交換", "battery replacement", "battery change"},
			ExactAliases: []string{"バッテリー", "battery"},
			Title:        "次回バッテリー交換",
			MonthsOffset: intPtr(36),
		},
		{
			Key:          CategoryWiper,
			Aliases:      []string{"ワイパー", "wiper blade"},
			ExactAliases: []string{"wiper"},
			Title:        "次回ワイパー交換",
			MonthsOffset: intPtr(12),
		},
		{
			Key:      CategorySparkPlug,
			Aliases:  []string{"スパークプラグ", "プラグ交換", "spark plug"},
			Title:    "次回スパークプラグ交換",
			KmOffset: intPtr(100000),
		},
		{
			Key:          CategoryTireCheck,
			Aliases:      []string{"タイヤ点検", "タイヤチェック", "tire check", "tyre check"},
			Title:        "タイヤ点検",
			MonthsOffset: intPtr(12),
		},
		{
			Key:          CategoryInspection,
			Aliases:      []string{"車検", "vehicle inspection"},
			ExactAliases: []string{"inspection", "shaken"},
			Title:        "次回車検",
			MonthsOffset: intPtr(24),
		},
	}
}

// DefaultCatalog builds the built-in catalog. It panics only if the literal
// rules above are inconsistent.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}
