package datapath

import (
	"os"
	"path/filepath"

	"cvwidgets/config"
)

// EnvDataDir overrides the configured sample data directory.
const EnvDataDir = "CVWIDGETS_DATA"

// Get returns the absolute path of paths under the sample data directory.
// The directory is taken from $CVWIDGETS_DATA, then config.GlobalConfig.DataDir;
// relative directories are resolved against the executable's directory when
// they do not exist under the working directory.
func Get(paths ...string) string {
	dir := os.Getenv(EnvDataDir)
	if dir == "" && config.GlobalConfig != nil {
		dir = config.GlobalConfig.DataDir
	}
	if dir == "" {
		dir = "data"
	}
	dir = resolve(dir)
	return filepath.Clean(filepath.Join(append([]string{dir}, paths...)...))
}

func resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), dir)
	}
	abs, _ := filepath.Abs(dir)
	return abs
}

// Exists reports whether the sample file is present.
func Exists(paths ...string) bool {
	_, err := os.Stat(Get(paths...))
	return err == nil
}
