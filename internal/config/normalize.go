package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeWhisper()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TranscriptsDir) == "" {
		c.Paths.TranscriptsDir = defaultTranscriptsDir
	}
	if c.Paths.TranscriptsDir, err = expandPath(c.Paths.TranscriptsDir); err != nil {
		return fmt.Errorf("paths.transcripts_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.Binary = strings.TrimSpace(c.Download.Binary)
	if c.Download.Binary == "" {
		c.Download.Binary = defaultDownloadBinary
	}
	c.Download.AudioFormat = strings.ToLower(strings.TrimSpace(c.Download.AudioFormat))
	if c.Download.AudioFormat == "" {
		c.Download.AudioFormat = defaultAudioFormat
	}
	c.Download.AudioQuality = strings.TrimSpace(c.Download.AudioQuality)
	if c.Download.AudioQuality == "" {
		c.Download.AudioQuality = defaultAudioQuality
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
}

func (c *Config) normalizeWhisper() {
	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	if c.Whisper.Binary == "" {
		c.Whisper.Binary = defaultWhisperBinary
	}
	c.Whisper.Model = strings.ToLower(strings.TrimSpace(c.Whisper.Model))
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	c.Whisper.Language = strings.TrimSpace(c.Whisper.Language)
	if c.Whisper.TimeoutSeconds <= 0 {
		c.Whisper.TimeoutSeconds = defaultWhisperTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
