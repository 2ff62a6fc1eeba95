package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

func decodeFile(path string, out any) (bool, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return true, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return true, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads a configuration file, `name` should come with a file extension,
// it will automatically be lopped off to produce the other extensions.
// the following files are decoded on top of `defaults`, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// a field keeps its default only when neither file mentions it, so an explicit zero value
// is kept. if neither file exists the error is os.ErrNotExist.
func ReadConfig[T any](name string, defaults T) (T, error) {
	out := defaults

	dirname := filepath.Dir(name)
	basename := filepath.Base(name)
	prefixname, ext := splitExt(basename)

	foundDefault, err := decodeFile(name, &out)
	if err != nil {
		return defaults, err
	}

	localFilepath := filepath.Join(
		dirname,
		fmt.Sprintf("%s.local.%s", prefixname, ext),
	)
	foundLocal, err := decodeFile(localFilepath, &out)
	if err != nil {
		return defaults, err
	}
	if foundLocal {
		slog.Info("merging config with local overrides", "local", localFilepath)
	}

	if !foundDefault && !foundLocal {
		return defaults, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it recursively goes up the filesystem from the working
// directory until the root to find a configuration file matching the name.
// It returns the path of the file it read.
func ReadRecursively[T any](name string, defaults T) (T, string, error) {
	current, err := os.Getwd()
	if err != nil {
		return defaults, "", err
	}

	for {
		path := filepath.Join(current, name)
		config, err := ReadConfig(path, defaults)
		if err == nil {
			return config, path, nil
		}
		if !os.IsNotExist(err) {
			return defaults, "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return defaults, "", os.ErrNotExist
		}
		current = parent
	}
}
