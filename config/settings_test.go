package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/google/go-cmp/cmp"
)

func initTestPaths(t *testing.T) {
	t.Helper()

	dir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("POMO_USER", "user-1")
	t.Setenv("POMO_ENV", "test")

	xdg.Reload()

	InitializePaths()
}

func TestPathsAreNamespacedByUserAndEnv(t *testing.T) {
	initTestPaths(t)

	if UserID() != "user-1" {
		t.Fatalf("user id = %q, want %q", UserID(), "user-1")
	}

	paths := map[string]string{
		"config":   ConfigFilePath(),
		"db":       DBFilePath(),
		"snapshot": SnapshotFilePath(),
		"log":      LogFilePath(),
	}

	for name, p := range paths {
		if !strings.Contains(p, "user-1") {
			t.Fatalf("%s path %q is not namespaced by user", name, p)
		}

		if !strings.Contains(filepath.Base(p), "test") {
			t.Fatalf("%s path %q ignores the environment suffix", name, p)
		}
	}
}

func TestLoadSettingsFirstUseWritesDefaults(t *testing.T) {
	initTestPaths(t)

	s, err := LoadSettings()
	if err != nil {
		t.Fatal(err)
	}

	want := &Settings{
		WorkMinutes:  25,
		BreakMinutes: 5,
		SoundEnabled: true,
		AlertSound:   "bell",
		DarkTheme:    true,
	}

	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("unexpected defaults (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(ConfigFilePath()); err != nil {
		t.Fatalf("settings file was not created: %v", err)
	}
}

func TestSaveThenLoadSettings(t *testing.T) {
	initTestPaths(t)

	want := &Settings{
		WorkMinutes:   50,
		BreakMinutes:  10,
		AutoStartNext: true,
		SoundEnabled:  false,
		Notify:        true,
		AlertSound:    "loud_bell",
		SessionCmd:    "task-sheet sync",
		DarkTheme:     false,
	}

	if err := SaveSettings(want); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSettings()
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("settings changed across save/load (-want +got):\n%s", diff)
	}
}

func TestSaveSettingsRejectsInvalid(t *testing.T) {
	initTestPaths(t)

	err := SaveSettings(&Settings{WorkMinutes: 25, BreakMinutes: 0})
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("got %v, want ErrInvalidDuration", err)
	}
}

func TestMerge(t *testing.T) {
	intp := func(v int) *int { return &v }
	boolp := func(v bool) *bool { return &v }
	strp := func(v string) *string { return &v }

	base := Settings{
		WorkMinutes:  25,
		BreakMinutes: 5,
		SoundEnabled: true,
		AlertSound:   "bell",
	}

	cases := []struct {
		name        string
		patch       Patch
		want        Settings
		wantChanged bool
	}{
		{
			name:        "empty patch",
			patch:       Patch{},
			want:        base,
			wantChanged: false,
		},
		{
			name:        "same values",
			patch:       Patch{WorkMinutes: intp(25), SoundEnabled: boolp(true)},
			want:        base,
			wantChanged: false,
		},
		{
			name:  "durations",
			patch: Patch{WorkMinutes: intp(50), BreakMinutes: intp(10)},
			want: Settings{
				WorkMinutes:  50,
				BreakMinutes: 10,
				SoundEnabled: true,
				AlertSound:   "bell",
			},
			wantChanged: true,
		},
		{
			name: "toggles and strings",
			patch: Patch{
				AutoStartNext: boolp(true),
				SoundEnabled:  boolp(false),
				Notify:        boolp(true),
				AlertSound:    strp("chime"),
				SessionCmd:    strp("notify-send done"),
			},
			want: Settings{
				WorkMinutes:   25,
				BreakMinutes:  5,
				AutoStartNext: true,
				SoundEnabled:  false,
				Notify:        true,
				AlertSound:    "chime",
				SessionCmd:    "notify-send done",
			},
			wantChanged: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := base

			changed := got.Merge(tc.patch)

			if changed != tc.wantChanged {
				t.Fatalf("changed = %t, want %t", changed, tc.wantChanged)
			}

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("merge result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{
			name:     "valid",
			settings: Settings{WorkMinutes: 25, BreakMinutes: 5},
		},
		{
			name:     "zero work",
			settings: Settings{WorkMinutes: 0, BreakMinutes: 5},
			wantErr:  true,
		},
		{
			name:     "negative break",
			settings: Settings{WorkMinutes: 25, BreakMinutes: -1},
			wantErr:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.settings.Validate()

			if tc.wantErr && !errors.Is(err, ErrInvalidDuration) {
				t.Fatalf("got %v, want ErrInvalidDuration", err)
			}

			if !tc.wantErr && err != nil {
				t.Fatal(err)
			}
		})
	}
}
