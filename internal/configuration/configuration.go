// Package configuration reads the optional configuration file.
package configuration

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// KeyRoot is the configuration key for the scan root.
	KeyRoot = "ROOT"

	// KeyWorkers is the configuration key for the maximum concurrent checks.
	KeyWorkers = "WORKERS"

	// KeyFailFast is the configuration key for halting on traversal errors.
	KeyFailFast = "FAIL_FAST"

	// KeyUI is the configuration key for enabling the user interface.
	KeyUI = "UI"
)

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

// Config holds the values read from a configuration file. Nil fields were
// not present in the file and leave the respective default untouched.
type Config struct {
	Root     *string
	Workers  *int
	FailFast *bool
	UI       *bool
}

// Handler is the principal implementation of the configuration reader.
type Handler struct {
	genericConfigReader genericConfigProvider
}

// NewHandler returns a pointer to a new configuration [Handler].
func NewHandler(genericConfigReader genericConfigProvider) *Handler {
	return &Handler{
		genericConfigReader: genericConfigReader,
	}
}

// ReadFile reads and validates the configuration file at path.
func (c *Handler) ReadFile(path string) (*Config, error) {
	envMap, err := c.genericConfigReader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("(config) %w", err)
	}

	config := &Config{}

	if value, exists := envMap[KeyRoot]; exists && value != "" {
		config.Root = &value
	}

	if workers, exists, err := MapKeyToInt(envMap, KeyWorkers); err != nil {
		return nil, fmt.Errorf("(config) %s: %w", KeyWorkers, err)
	} else if exists {
		if workers < 1 {
			return nil, fmt.Errorf("(config) %s=%d: %w", KeyWorkers, workers, ErrInvalidWorkers)
		}
		config.Workers = &workers
	}

	if failFast, exists, err := MapKeyToBool(envMap, KeyFailFast); err != nil {
		return nil, fmt.Errorf("(config) %s: %w", KeyFailFast, err)
	} else if exists {
		config.FailFast = &failFast
	}

	if ui, exists, err := MapKeyToBool(envMap, KeyUI); err != nil {
		return nil, fmt.Errorf("(config) %s: %w", KeyUI, err)
	} else if exists {
		config.UI = &ui
	}

	return config, nil
}

// MapKeyToString returns the value for key, if it exists and is not empty.
func MapKeyToString(envMap map[string]string, key string) (string, bool) {
	value, exists := envMap[key]
	if !exists || value == "" {
		return "", false
	}

	return value, true
}

// MapKeyToInt returns the integer value for key, if it exists and is not
// empty.
func MapKeyToInt(envMap map[string]string, key string) (int, bool, error) {
	value, exists := MapKeyToString(envMap, key)
	if !exists {
		return 0, false, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, true, fmt.Errorf("%q: %w", value, ErrInvalidInt)
	}

	return intValue, true, nil
}

// MapKeyToBool returns the boolean value for key, if it exists and is not
// empty. Accepted are "yes", "no", "true", "false", "1" and "0".
func MapKeyToBool(envMap map[string]string, key string) (bool, bool, error) {
	value, exists := MapKeyToString(envMap, key)
	if !exists {
		return false, false, nil
	}

	switch strings.ToLower(value) {
	case "yes", "true", "1":
		return true, true, nil
	case "no", "false", "0":
		return false, true, nil
	default:
		return false, true, fmt.Errorf("%q: %w", value, ErrInvalidBool)
	}
}
