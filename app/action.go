package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/abstudio/pomo/config"
	"github.com/abstudio/pomo/internal/logutil"
	"github.com/abstudio/pomo/internal/models"
	"github.com/abstudio/pomo/internal/timeutil"
	"github.com/abstudio/pomo/internal/ui"
	"github.com/abstudio/pomo/relay"
	"github.com/abstudio/pomo/store"
	"github.com/abstudio/pomo/timer"
	"github.com/abstudio/pomo/tui"
)

var errExpectedOnOff = errors.New("expected 'on' or 'off'")

// newEngine restores the timer for the current user with the full effect
// and recording pipeline attached.
func newEngine(settings *config.Settings) *timer.Timer {
	return timer.New(timer.Options{
		Snapshots: store.NewSnapshotStore(config.SnapshotFilePath()),
		Settings:  *settings,
		UserID:    config.UserID(),
		Effects:   timer.Dispatcher{},
		Recorder: &timer.LogRecorder{
			DBPath: config.DBFilePath(),
			UserID: config.UserID(),
		},
	})
}

// defaultAction mounts a timer surface. Several invocations may run at
// once, in separate terminals, over the same logical timer.
func defaultAction(ctx *cli.Context) error {
	logutil.Init(config.LogFilePath())

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	ui.DarkTheme = settings.DarkTheme

	engine := newEngine(settings)

	// command-line overrides reach the restored state but are not saved
	work, brk := int(ctx.Uint("work")), int(ctx.Uint("break"))
	if work > 0 || brk > 0 {
		engine.OverrideDurations(work, brk)
	}

	if ctx.Bool("auto-start") {
		engine.SetAutoStart(true)
	}

	if taskID := ctx.String("task"); taskID != "" {
		engine.SetLinkedTask(taskID, ctx.String("task-title"))
	}

	snaps := store.NewSnapshotStore(config.SnapshotFilePath())

	watcher, err := relay.NewWatcher(snaps, engine.Snapshot().Seq)
	if err != nil {
		// surfaces in other processes fall back to the next startup read
		slog.Warn("snapshot watch unavailable", slog.Any("error", err))

		watcher = nil
	}

	tickCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()

	go engine.Run(tickCtx)

	p := tea.NewProgram(tui.New(engine, watcher, ctx.Bool("mini")))

	_, err = p.Run()

	cancel()

	if watcher != nil {
		_ = watcher.Close()
	}

	return err
}

// statusAction prints the state of the timer without mounting a surface.
func statusAction(_ *cli.Context) error {
	snaps := store.NewSnapshotStore(config.SnapshotFilePath())

	snap, err := snaps.Load()
	if err != nil {
		// no state means no status to report
		return nil
	}

	remaining := snap.Remaining
	if snap.Running {
		remaining = timeutil.RemainingSeconds(time.Now(), snap.EndTime)
	}

	label := ui.Green(fmt.Sprintf("[Work %d/%d]", snap.Cycle, models.CycleLength))
	if snap.Mode == models.Break {
		label = ui.Blue("[Break]")
	}

	state := "running"
	if !snap.Running {
		state = "paused"
	}

	pterm.Printfln(
		"%s: %s (%s)",
		label,
		ui.Highlight(fmt.Sprintf("%02d:%02d", remaining/60, remaining%60)),
		state,
	)

	return nil
}

// sessionsAction lists the completed work sessions for a period.
func sessionsAction(ctx *cli.Context) error {
	db, err := store.NewClient(config.DBFilePath(), config.UserID())
	if err != nil {
		return err
	}

	defer func() {
		_ = db.Close()
	}()

	end := time.Now()
	start := end.AddDate(0, 0, -int(ctx.Uint("days")))

	sessions, err := db.Sessions(start, end)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		b, err := json.Marshal(sessions)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	tableBody := make([][]string, 0, len(sessions)+1)
	tableBody = append(tableBody, []string{"#", "DATE", "DURATION", "TASK"})

	for i, sess := range sessions {
		task := sess.TaskID
		if task == "" {
			task = "-"
		}

		tableBody = append(tableBody, []string{
			fmt.Sprintf("%d", i+1),
			sess.StartTime.Format("Jan 02, 2006 03:04:05 PM"),
			fmt.Sprintf("%d mins", sess.Duration/60),
			task,
		})
	}

	ui.PrintTable(tableBody, ctx.App.Writer)

	return nil
}

func onOff(val string) (*bool, error) {
	switch val {
	case "":
		return nil, nil
	case "on":
		v := true
		return &v, nil
	case "off":
		v := false
		return &v, nil
	default:
		return nil, errExpectedOnOff
	}
}

// settingsPatch builds a patch from the provided flags.
func settingsPatch(ctx *cli.Context) (config.Patch, bool, error) {
	var p config.Patch

	changed := false

	if ctx.Uint("work") > 0 {
		v := int(ctx.Uint("work"))
		p.WorkMinutes = &v
		changed = true
	}

	if ctx.Uint("break") > 0 {
		v := int(ctx.Uint("break"))
		p.BreakMinutes = &v
		changed = true
	}

	if ctx.IsSet("auto-start") {
		v := ctx.Bool("auto-start")
		p.AutoStartNext = &v
		changed = true
	}

	sound, err := onOff(ctx.String("sound"))
	if err != nil {
		return p, false, err
	}

	if sound != nil {
		p.SoundEnabled = sound
		changed = true
	}

	notify, err := onOff(ctx.String("notify"))
	if err != nil {
		return p, false, err
	}

	if notify != nil {
		p.Notify = notify
		changed = true
	}

	if ctx.IsSet("alert-sound") {
		v := ctx.String("alert-sound")
		p.AlertSound = &v
		changed = true
	}

	if ctx.IsSet("session-cmd") {
		v := ctx.String("session-cmd")
		p.SessionCmd = &v
		changed = true
	}

	return p, changed, nil
}

// settingsForm collects a full settings patch interactively.
func settingsForm(s *config.Settings) (config.Patch, error) {
	workStr := strconv.Itoa(s.WorkMinutes)
	breakStr := strconv.Itoa(s.BreakMinutes)
	autoStart := s.AutoStartNext
	sound := s.SoundEnabled
	notify := s.Notify

	validateMins := func(val string) error {
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return config.ErrInvalidDuration
		}

		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Work minutes").
				Value(&workStr).
				Validate(validateMins),
			huh.NewInput().
				Title("Break minutes").
				Value(&breakStr).
				Validate(validateMins),
			huh.NewConfirm().
				Title("Auto-start the next interval?").
				Value(&autoStart),
			huh.NewConfirm().
				Title("Play a sound on completion?").
				Value(&sound),
			huh.NewConfirm().
				Title("Show system notifications?").
				Value(&notify),
		),
	)

	if err := form.Run(); err != nil {
		return config.Patch{}, err
	}

	workMins, _ := strconv.Atoi(workStr)
	breakMins, _ := strconv.Atoi(breakStr)

	return config.Patch{
		WorkMinutes:   &workMins,
		BreakMinutes:  &breakMins,
		AutoStartNext: &autoStart,
		SoundEnabled:  &sound,
		Notify:        &notify,
	}, nil
}

// settingsAction changes settings through the engine so that the durable
// snapshot picks up the recomputed durations immediately and open surfaces
// observe the change.
func settingsAction(ctx *cli.Context) error {
	logutil.Init(config.LogFilePath())

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	patch, changed, err := settingsPatch(ctx)
	if err != nil {
		return err
	}

	if !changed {
		patch, err = settingsForm(settings)
		if err != nil {
			return err
		}
	}

	engine := newEngine(settings)

	if err := engine.UpdateSettings(patch); err != nil {
		return err
	}

	updated := engine.Settings()

	pterm.Success.Printfln(
		"Settings saved: work %dm, break %dm, auto-start %t, sound %t, notifications %t",
		updated.WorkMinutes,
		updated.BreakMinutes,
		updated.AutoStartNext,
		updated.SoundEnabled,
		updated.Notify,
	)

	return nil
}
