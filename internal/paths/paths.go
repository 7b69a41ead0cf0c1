// Package paths resolves where jellybridge keeps its config, settings
// database and logs.
//
// Under sudo the paths point at the invoking user's directories (SUDO_USER),
// not root's.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
)

// EnvDir overrides the data directory entirely when set.
const EnvDir = "JELLYBRIDGE_HOME"

// UserHomeDir returns the home directory of the actual user.
func UserHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		u, err := user.Lookup(sudoUser)
		if err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// Dir returns ~/.config/jellybridge, or $JELLYBRIDGE_HOME when set.
func Dir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jellybridge"), nil
}

// ConfigPath returns the TOML config file path.
func ConfigPath() (string, error) {
	return join("config.toml")
}

// SettingsPath returns the SQLite database holding settings saved through the API.
func SettingsPath() (string, error) {
	return join("settings.db")
}

// LogPath returns the default log file path.
func LogPath() (string, error) {
	return join("logs", "jellybridge.log")
}

func join(elem ...string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}
