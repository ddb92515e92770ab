// Package paths provides sudo-aware path resolution for vidmeta.
//
// When running with sudo, these functions resolve to the original user's
// directories (via SUDO_USER) instead of root's. VIDMETA_HOME overrides
// the application directory entirely.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
)

// HomeEnv names the environment variable that relocates the app directory.
const HomeEnv = "VIDMETA_HOME"

// UserHomeDir returns the home directory of the actual user.
// If running with sudo, returns the SUDO_USER's home directory, not root's.
func UserHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		u, err := user.Lookup(sudoUser)
		if err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// UserConfigDir returns the config directory of the actual user.
// On Linux this is typically ~/.config
func UserConfigDir() (string, error) {
	homeDir, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config"), nil
}

// AppDir returns ~/.config/vidmeta for the actual user, or $VIDMETA_HOME.
func AppDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "vidmeta"), nil
}

// DatabasePath returns the default catalog database location.
func DatabasePath() (string, error) {
	return inAppDir("catalog.db")
}

// ConfigPath returns the default config file location.
func ConfigPath() (string, error) {
	return inAppDir("config.toml")
}

// LogPath returns the default log file location.
func LogPath() (string, error) {
	return inAppDir(filepath.Join("logs", "vidmeta.log"))
}

func inAppDir(name string) (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
