package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-ini/ini"
)

// A File is a representation of an ini file with some custom convenience
// methods.
type File struct {
	instance *ini.File
	Path     string
}

// NewIni reads the file in configPath and returns a corresponding *File
// or an error if encountered.
func NewIni(configPath string) (*File, error) {
	instance, err := ini.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &File{instance: instance, Path: configPath}, nil
}

// Get returns a value from the section/name pair, or an error if it can't be found.
func (c *File) Get(section, name string) (string, error) {
	if !c.instance.Section(section).HasKey(name) {
		return "", fmt.Errorf("missing `%s` value in [%s] section", name, section)
	}
	return c.instance.Section(section).Key(name).String(), nil
}

// GetDefault attempts to get the value in section/name, but returns the
// default if one is not found.
func (c *File) GetDefault(section, name string, defaultVal string) string {
	return c.instance.Section(section).Key(name).MustString(defaultVal)
}

// GetInt gets an integer value from section/name, or the default if it is
// missing or cannot be converted to an integer.
func (c *File) GetInt(section, name string, defaultVal int) int {
	value, err := c.Get(section, name)
	if err != nil {
		return defaultVal
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// GetFloat gets a float value from section/name, or the default if it is
// missing or cannot be converted to a float.
func (c *File) GetFloat(section, name string, defaultVal float64) float64 {
	value, err := c.Get(section, name)
	if err != nil {
		return defaultVal
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// GetDuration gets a duration value ("1s", "500ms", ...) from
// section/name, or the default if missing or unparsable.
func (c *File) GetDuration(section, name string, defaultVal time.Duration) time.Duration {
	value, err := c.Get(section, name)
	if err != nil {
		return defaultVal
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultVal
	}
	return parsed
}
