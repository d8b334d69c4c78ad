package config

import (
	"errors"
	"fmt"
)

var validWhisperModels = map[string]struct{}{
	"tiny":   {},
	"base":   {},
	"small":  {},
	"medium": {},
	"large":  {},
}

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.TempDir == c.Paths.TranscriptsDir {
		return errors.New("paths.temp_dir and paths.transcripts_dir must differ: staging files are deleted after every run")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.TimeoutSeconds <= 0 {
		return errors.New("download.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWhisper() error {
	if _, ok := validWhisperModels[c.Whisper.Model]; !ok {
		return fmt.Errorf("whisper.model: unknown model %q (expected tiny, base, small, medium, or large)", c.Whisper.Model)
	}
	if c.Whisper.TimeoutSeconds <= 0 {
		return errors.New("whisper.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	return nil
}
