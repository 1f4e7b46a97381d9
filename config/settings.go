package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var ErrInvalidDuration = errors.New(
	"interval durations must be greater than zero minutes",
)

const (
	defaultWorkMinutes  = 25
	defaultBreakMinutes = 5
)

const (
	keyWorkMinutes   = "work_mins"
	keyBreakMinutes  = "break_mins"
	keyAutoStartNext = "auto_start_next"
	keySoundEnabled  = "sound_enabled"
	keyNotify        = "notifications_enabled"
	keyAlertSound    = "alert_sound"
	keySessionCmd    = "session_cmd"
	keyDarkTheme     = "dark_theme"
)

// Settings is the durable per-user timer configuration. It is read once at
// startup and written whenever the user changes a value.
type Settings struct {
	WorkMinutes   int    `json:"work_mins"`
	BreakMinutes  int    `json:"break_mins"`
	AutoStartNext bool   `json:"auto_start_next"`
	SoundEnabled  bool   `json:"sound_enabled"`
	// Notify gates system notifications. It is toggled only from the
	// settings surface; the engine itself never requests permission.
	Notify     bool   `json:"notifications_enabled"`
	AlertSound string `json:"alert_sound"`
	SessionCmd string `json:"session_cmd"`
	DarkTheme  bool   `json:"dark_theme"`
}

// Patch is a partial settings update. Nil fields are left unchanged.
type Patch struct {
	WorkMinutes   *int
	BreakMinutes  *int
	AutoStartNext *bool
	SoundEnabled  *bool
	Notify        *bool
	AlertSound    *string
	SessionCmd    *string
}

// Merge applies the non-nil fields of p and reports whether anything
// changed.
func (s *Settings) Merge(p Patch) bool {
	changed := false

	set := func(dst *int, src *int) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setStr := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}

	set(&s.WorkMinutes, p.WorkMinutes)
	set(&s.BreakMinutes, p.BreakMinutes)
	setBool(&s.AutoStartNext, p.AutoStartNext)
	setBool(&s.SoundEnabled, p.SoundEnabled)
	setBool(&s.Notify, p.Notify)
	setStr(&s.AlertSound, p.AlertSound)
	setStr(&s.SessionCmd, p.SessionCmd)

	return changed
}

// Validate rejects zero or negative durations. The state machine itself
// assumes durations are always positive; this boundary is where that
// invariant is enforced.
func (s *Settings) Validate() error {
	if s.WorkMinutes <= 0 || s.BreakMinutes <= 0 {
		return ErrInvalidDuration
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyWorkMinutes, defaultWorkMinutes)
	v.SetDefault(keyBreakMinutes, defaultBreakMinutes)
	v.SetDefault(keyAutoStartNext, false)
	v.SetDefault(keySoundEnabled, true)
	v.SetDefault(keyNotify, false)
	v.SetDefault(keyAlertSound, "bell")
	v.SetDefault(keySessionCmd, "")
	v.SetDefault(keyDarkTheme, true)
}

func fromViper(v *viper.Viper) *Settings {
	return &Settings{
		WorkMinutes:   v.GetInt(keyWorkMinutes),
		BreakMinutes:  v.GetInt(keyBreakMinutes),
		AutoStartNext: v.GetBool(keyAutoStartNext),
		SoundEnabled:  v.GetBool(keySoundEnabled),
		Notify:        v.GetBool(keyNotify),
		AlertSound:    v.GetString(keyAlertSound),
		SessionCmd:    v.GetString(keySessionCmd),
		DarkTheme:     v.GetBool(keyDarkTheme),
	}
}

// LoadSettings reads the settings file for the current user, creating it
// with defaults on first use.
func LoadSettings() (*Settings, error) {
	v := viper.New()

	v.SetConfigFile(ConfigFilePath())
	v.SetConfigType("yaml")

	setDefaults(v)

	err := v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading settings failed: %w", err)
			}
		}

		if err := v.WriteConfigAs(ConfigFilePath()); err != nil {
			return nil, fmt.Errorf("writing default settings failed: %w", err)
		}
	}

	s := fromViper(v)

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// SaveSettings persists the full settings record for the current user.
func SaveSettings(s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	v := viper.New()

	v.SetConfigFile(ConfigFilePath())
	v.SetConfigType("yaml")

	v.Set(keyWorkMinutes, s.WorkMinutes)
	v.Set(keyBreakMinutes, s.BreakMinutes)
	v.Set(keyAutoStartNext, s.AutoStartNext)
	v.Set(keySoundEnabled, s.SoundEnabled)
	v.Set(keyNotify, s.Notify)
	v.Set(keyAlertSound, s.AlertSound)
	v.Set(keySessionCmd, s.SessionCmd)
	v.Set(keyDarkTheme, s.DarkTheme)

	if err := v.WriteConfigAs(ConfigFilePath()); err != nil {
		return fmt.Errorf("saving settings failed: %w", err)
	}

	return nil
}
