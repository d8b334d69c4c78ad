package config

const (
	defaultTempDir         = "~/.local/share/scribe/staging"
	defaultDataDir         = "~/.local/share/scribe"
	defaultTranscriptsDir  = "~/.local/share/scribe/transcripts"
	defaultLogDir          = "~/.local/share/scribe/logs"
	defaultDownloadBinary  = "yt-dlp"
	defaultAudioFormat     = "mp3"
	defaultAudioQuality    = "192K"
	defaultDownloadTimeout = 1800
	defaultWhisperBinary   = "whisper"
	defaultWhisperModel    = "base"
	defaultWhisperTimeout  = 7200
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TempDir:        defaultTempDir,
			DataDir:        defaultDataDir,
			TranscriptsDir: defaultTranscriptsDir,
			LogDir:         defaultLogDir,
		},
		Download: Download{
			Binary:         defaultDownloadBinary,
			AudioFormat:    defaultAudioFormat,
			AudioQuality:   defaultAudioQuality,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Whisper: Whisper{
			Binary:         defaultWhisperBinary,
			Model:          defaultWhisperModel,
			TimeoutSeconds: defaultWhisperTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
