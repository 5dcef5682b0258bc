package engine

import (
	"errors"
	"os"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
)

// LoadConfig reads the application configuration at path. A missing file gives
// the defaults.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogInfo("no configuration at '%s', using defaults", path)
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
