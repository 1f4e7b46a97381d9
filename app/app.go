// Package app defines the pomo command-line application.
package app

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/abstudio/pomo/config"
)

const envNoColor = "NO_COLOR"

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the pomo app instance.
func Get() *cli.App {
	pomoApp := &cli.App{
		Name: "pomo",
		Usage: `
		Pomo is an interval timer for focused work. It alternates work and
		break intervals, survives reloads and suspended terminals, and keeps
		every open surface for the same user in sync.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Print the current state of the timer",
				Action: statusAction,
			},
			{
				Name:   "sessions",
				Usage:  "List completed work sessions within a period",
				Flags:  []cli.Flag{daysFlag, jsonFlag},
				Action: sessionsAction,
			},
			{
				Name: "settings",
				Usage: `
				Show or change the timer settings. With flags, applies the given
				values; without flags, opens an interactive form`,
				Flags: []cli.Flag{
					workFlag,
					breakFlag,
					autoStartFlag,
					soundFlag,
					notifyFlag,
					alertSoundFlag,
					sessionCmdFlag,
				},
				Action: settingsAction,
			},
		},
		Flags: []cli.Flag{
			workFlag,
			breakFlag,
			autoStartFlag,
			miniFlag,
			taskFlag,
			taskTitleFlag,
			noColorFlag,
		},
		Action: defaultAction,
		Before: beforeAction,
	}

	return pomoApp
}

func beforeAction(ctx *cli.Context) error {
	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	config.InitializePaths()

	return nil
}
