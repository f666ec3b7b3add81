package file

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the application home directory.
const HomeEnv = "ESGMON_HOME"

// HomeDir returns $ESGMON_HOME, or ~/.esgmon when unset.
func HomeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".esgmon"), nil
}
