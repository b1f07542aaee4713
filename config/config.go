package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries everything the client needs to reach the backend and to
// find its state directory. It is built once in main and passed down
// explicitly; nothing in this repo reads the environment after Load.
type Config struct {
	// ServerURL is the base URL of the board backend, e.g. "http://localhost:8990".
	ServerURL string
	// StateDir holds the session file and the log file.
	StateDir string
}

const (
	defaultServerURL = "http://localhost:8990"
	stateDirName     = "retroboard"
)

// Load reads RETRO_SERVER_URL and RETRO_STATE_DIR, honoring a .env file in
// the working directory when present. Missing values fall back to defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env file")
	}

	cfg := Config{
		ServerURL: os.Getenv("RETRO_SERVER_URL"),
		StateDir:  os.Getenv("RETRO_STATE_DIR"),
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = "."
		}
		cfg.StateDir = filepath.Join(base, stateDirName)
	}
	return cfg
}

// SessionFile is the path of the single-slot session record.
func (c Config) SessionFile() string {
	return filepath.Join(c.StateDir, "session.json")
}

// LogFile is where the client writes its log; the terminal itself belongs
// to the UI while the program runs.
func (c Config) LogFile() string {
	return filepath.Join(c.StateDir, "client.log")
}
