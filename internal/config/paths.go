package config

import (
	"os"
	"path/filepath"
	"strings"
)

const fileName = "taxocard.toml"

// findProjectConfigFile returns the config file in the working directory.
// The visible name wins over the dotfile.
func findProjectConfigFile() string {
	return firstExisting(fileName, "."+fileName)
}

// findUserConfigFile returns ~/.taxocard/taxocard.toml, or the file under the
// OS config directory ($XDG_CONFIG_HOME, Application Support, %AppData%).
func findUserConfigFile() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".taxocard", fileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "taxocard", fileName))
	}
	return firstExisting(candidates...)
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// expandPath expands environment variables and a leading ~ in p.
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	rest, ok := strings.CutPrefix(p, "~")
	if !ok || (rest != "" && rest[0] != '/' && rest[0] != filepath.Separator) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
