package timer

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/gen2brain/beeep"
	"github.com/kballard/go-shellquote"

	"github.com/abstudio/pomo/config"
	"github.com/abstudio/pomo/internal/models"
)

var errInvalidSoundFormat = errors.New(
	"sound file must be in mp3, ogg, flac, or wav format",
)

var completionMessage = map[models.Mode]string{
	models.Work:  "Time to focus on your task",
	models.Break: "Time to take a breather",
}

// Dispatcher fires the completion side effects. Each effect is gated
// independently by the settings passed at fire time and is best-effort:
// failures are logged and never reach the state machine.
type Dispatcher struct{}

func (Dispatcher) Completed(
	finished, next models.Mode,
	s config.Settings,
) {
	if s.Notify {
		go notify(finished, next)
	}

	if s.SoundEnabled && s.AlertSound != "" {
		go playSound(s.AlertSound)
	}

	if s.SessionCmd != "" {
		go runSessionCmd(s.SessionCmd)
	}
}

func title(m models.Mode) string {
	if m == models.Work {
		return "Work interval"
	}

	return "Break"
}

// notify sends a desktop notification announcing which phase completed.
func notify(finished, next models.Mode) {
	// pathToIcon will be an empty string if the file is not found
	pathToIcon, _ := xdg.SearchDataFile(
		filepath.Join(config.Dir(), "static", "icon.png"),
	)

	err := beeep.Notify(
		title(finished)+" is finished",
		completionMessage[next],
		pathToIcon,
	)
	if err != nil {
		slog.Warn("unable to display notification", slog.Any("error", err))
	}
}

// prepSoundStream returns an audio stream for the specified sound. A bare
// name resolves to an OGG file under the user's data directory.
func prepSoundStream(sound string) (beep.StreamSeekCloser, error) {
	var (
		f      fs.File
		err    error
		stream beep.StreamSeekCloser
		format beep.Format
	)

	ext := filepath.Ext(sound)
	if ext == "" {
		sound += ".ogg"
		ext = ".ogg"

		var pathToFile string

		pathToFile, err = xdg.SearchDataFile(
			filepath.Join(config.Dir(), "static", sound),
		)
		if err != nil {
			return nil, err
		}

		f, err = os.Open(pathToFile)
	} else {
		f, err = os.Open(sound)
	}

	if err != nil {
		return nil, err
	}

	defer func() {
		_ = f.Close()
	}()

	switch ext {
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		return nil, errInvalidSoundFormat
	}

	if err != nil {
		return nil, err
	}

	bufferSize := 10

	err = speaker.Init(
		format.SampleRate,
		format.SampleRate.N(time.Duration(int(time.Second)/bufferSize)),
	)
	if err != nil {
		return nil, err
	}

	err = stream.Seek(0)
	if err != nil {
		return nil, err
	}

	return stream, nil
}

// playSound plays the alert cue once and releases the speaker.
func playSound(sound string) {
	stream, err := prepSoundStream(sound)
	if err != nil {
		slog.Warn("unable to play sound", slog.Any("error", err))
		return
	}

	done := make(chan bool)

	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		done <- true
	})))

	<-done

	_ = stream.Close()

	speaker.Clear()
	speaker.Close()
}

// runSessionCmd executes the configured completion hook.
func runSessionCmd(sessionCmd string) {
	cmdSlice, err := shellquote.Split(sessionCmd)
	if err != nil {
		slog.Warn("unable to parse session_cmd option", slog.Any("error", err))
		return
	}

	if len(cmdSlice) == 0 {
		return
	}

	cmd := exec.Command(cmdSlice[0], cmdSlice[1:]...)

	if err := cmd.Run(); err != nil {
		slog.Warn("session_cmd failed", slog.Any("error", err))
	}
}
