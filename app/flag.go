package app

import "github.com/urfave/cli/v2"

var (
	workFlag = &cli.UintFlag{
		Name:    "work",
		Aliases: []string{"w"},
		Usage:   "Work interval duration in minutes for this run (default: 25)",
	}

	breakFlag = &cli.UintFlag{
		Name:    "break",
		Aliases: []string{"b"},
		Usage:   "Break interval duration in minutes for this run (default: 5)",
	}

	autoStartFlag = &cli.BoolFlag{
		Name:  "auto-start",
		Usage: "Start the next interval automatically when one completes",
	}

	miniFlag = &cli.BoolFlag{
		Name:  "mini",
		Usage: "Render a compact single-line surface, for a detached corner terminal",
	}

	taskFlag = &cli.StringFlag{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Link the session to a task id from the task sheet",
	}

	taskTitleFlag = &cli.StringFlag{
		Name:  "task-title",
		Usage: "Display title for the linked task",
	}

	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Output as JSON",
	}

	daysFlag = &cli.UintFlag{
		Name:  "days",
		Usage: "Reporting period in days",
		Value: 7,
	}

	soundFlag = &cli.StringFlag{
		Name:  "sound",
		Usage: "Enable or disable the completion sound (on/off)",
	}

	notifyFlag = &cli.StringFlag{
		Name:  "notify",
		Usage: "Enable or disable system notifications (on/off)",
	}

	alertSoundFlag = &cli.StringFlag{
		Name:  "alert-sound",
		Usage: "Sound to play when an interval completes",
	}

	sessionCmdFlag = &cli.StringFlag{
		Name:    "session-cmd",
		Aliases: []string{"cmd"},
		Usage:   "Execute an arbitrary command after each completed interval",
	}
)
