package launch

import (
	"os"
	"runtime"
)

// OpenerCommand returns the command that opens path in the desktop's file
// manager or default application.
func OpenerCommand(goos, path string) Command {
	switch goos {
	case "darwin":
		return Command{Path: "open", Args: []string{path}}
	case "windows":
		return Command{Path: "explorer", Args: []string{path}}
	default:
		return Command{Path: "xdg-open", Args: []string{path}}
	}
}

// OpenPath opens a file or folder with the platform opener.
func OpenPath(s Spawner, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	_, err := s.Spawn(OpenerCommand(runtime.GOOS, path))
	return err
}
