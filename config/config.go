// Package config resolves file paths and manages the durable per-user
// timer settings.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pterm/pterm"
)

const Version = "v1.0.0"

var (
	configDir      = "pomo"
	configFileName = "settings.yml"
	dbFileName     = "pomo.db"
	snapshotPrefix = "snapshot"
	logFileName    = "pomo.log"

	userID           string
	dbFilePath       string
	configFilePath   string
	snapshotFilePath string
	logFilePath      string
)

func Dir() string {
	return configDir
}

// UserID identifies the user every durable key is namespaced by.
func UserID() string {
	return userID
}

func DBFilePath() string {
	return dbFilePath
}

// SnapshotFilePath is the durable location of the serialized timer state
// for the current user. All surfaces for that user read and watch this one
// file.
func SnapshotFilePath() string {
	return snapshotFilePath
}

func LogFilePath() string {
	return logFilePath
}

func ConfigFilePath() string {
	return configFilePath
}

// resolveUser prefers the POMO_USER environment variable so that tests and
// multi-account setups can pin the namespace explicitly.
func resolveUser() string {
	if u := strings.TrimSpace(os.Getenv("POMO_USER")); u != "" {
		return u
	}

	u, err := user.Current()
	if err != nil {
		return "default"
	}

	return u.Username
}

// InitializePaths computes all durable file locations. It must run before
// any store or settings access.
func InitializePaths() {
	pomoEnv := strings.TrimSpace(os.Getenv("POMO_ENV"))
	if pomoEnv != "" {
		configFileName = fmt.Sprintf("settings_%s.yml", pomoEnv)
		dbFileName = fmt.Sprintf("pomo_%s.db", pomoEnv)
		snapshotPrefix = fmt.Sprintf("snapshot_%s", pomoEnv)
		logFileName = fmt.Sprintf("pomo_%s.log", pomoEnv)
	}

	userID = resolveUser()

	var err error

	relPath := filepath.Join(configDir, userID, configFileName)

	configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dataDir, err := xdg.DataFile(filepath.Join(configDir, userID))
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dbFilePath = filepath.Join(dataDir, dbFileName)

	snapshotFilePath = filepath.Join(
		dataDir,
		fmt.Sprintf("%s_%s.json", snapshotPrefix, userID),
	)

	logFilePath = filepath.Join(dataDir, "log", logFileName)
}
