package booking

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/chachabrian/hall-booking/internal/models"
)

// Settings keys read from the settings store.
const (
	KeyHourlyRate = "hourly_rate"
	KeyStartHour  = "start_hour"
	KeyEndHour    = "end_hour"
	KeySplitHour  = "split_hour"
)

// Settings is the resolved pricing and operating-hours snapshot used by one
// operation.
type Settings struct {
	HourlyRate float64 `json:"hourlyRate"`
	StartHour  int     `json:"startHour"`
	EndHour    int     `json:"endHour"`
	SplitHour  int     `json:"splitHour"`
}

// DefaultSettings applies when the store has no value for a key.
var DefaultSettings = Settings{
	HourlyRate: 1000,
	StartHour:  9,
	EndHour:    23,
}

// SettingsProvider resolves the settings snapshot. Implementations must be
// read-only.
type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}

// SettingsInvalidator is implemented by providers that cache the snapshot.
type SettingsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ParseSettings builds a Settings value from raw key/value pairs, falling back
// to DefaultSettings for missing keys.
func ParseSettings(kv map[string]string) (Settings, error) {
	s := DefaultSettings
	if v, ok := kv[KeyHourlyRate]; ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 {
			return Settings{}, fmt.Errorf("invalid %s %q", KeyHourlyRate, v)
		}
		s.HourlyRate = rate
	}
	for key, dst := range map[string]*int{KeyStartHour: &s.StartHour, KeyEndHour: &s.EndHour, KeySplitHour: &s.SplitHour} {
		v, ok := kv[key]
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s %q", key, v)
		}
		*dst = n
	}
	if s.StartHour < 0 || s.EndHour > 24 || s.StartHour >= s.EndHour {
		return Settings{}, fmt.Errorf("invalid operating hours [%d, %d)", s.StartHour, s.EndHour)
	}
	if s.SplitHour <= s.StartHour || s.SplitHour >= s.EndHour {
		s.SplitHour = (s.StartHour + s.EndHour) / 2
	}
	return s, nil
}

// Hours returns every bookable hour in [StartHour, EndHour).
func (s Settings) Hours() []int {
	hours := make([]int, 0, s.EndHour-s.StartHour)
	for h := s.StartHour; h < s.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// FixedSlotHours translates a legacy slot into its hour range.
func (s Settings) FixedSlotHours(slot models.FixedSlot) []int {
	from, to := s.StartHour, s.EndHour
	switch slot {
	case models.FixedSlotMorning:
		to = s.SplitHour
	case models.FixedSlotEvening:
		from = s.SplitHour
	case models.FixedSlotFullDay:
	default:
		return nil
	}
	hours := make([]int, 0, to-from)
	for h := from; h < to; h++ {
		hours = append(hours, h)
	}
	return hours
}

// StoreSettings reads the settings table.
type StoreSettings struct {
	db *gorm.DB
}

func NewStoreSettings(db *gorm.DB) *StoreSettings {
	return &StoreSettings{db: db}
}

func (p *StoreSettings) Settings(ctx context.Context) (Settings, error) {
	var rows []models.Setting
	if err := p.db.WithContext(ctx).
		Where("key IN ?", []string{KeyHourlyRate, KeyStartHour, KeyEndHour, KeySplitHour}).
		Find(&rows).Error; err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	kv := make(map[string]string, len(rows))
	for _, r := range rows {
		kv[r.Key] = r.Value
	}
	return ParseSettings(kv)
}

// StaticSettings always returns the same snapshot.
type StaticSettings Settings

func (s StaticSettings) Settings(context.Context) (Settings, error) {
	return ParseSettings(map[string]string{
		KeyHourlyRate: strconv.FormatFloat(s.HourlyRate, 'f', -1, 64),
		KeyStartHour:  strconv.Itoa(s.StartHour),
		KeyEndHour:    strconv.Itoa(s.EndHour),
		KeySplitHour:  strconv.Itoa(s.SplitHour),
	})
}
