package config

const (
	defaultConfigPath       = "~/.config/q7z/config.toml"
	projectConfigName       = "q7z.toml"
	defaultLogDir           = "~/.local/share/q7z/logs"
	defaultStateDir         = "~/.local/share/q7z"
	defaultAppID            = "dev.yakex.q7z"
	defaultConnectTimeoutMS = 500
	defaultReadTimeoutMS    = 5000
	defaultWriteTimeoutMS   = 5000
	defaultClaimAttempts    = 3
	defaultArchiverBinary   = "7z"
	defaultProgressBuffer   = 256
	defaultOverflowPolicy   = "drop_oldest"
	defaultQueueSize        = 16
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultNotifyTimeout    = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		IPC: IPC{
			AppID:            defaultAppID,
			ConnectTimeoutMS: defaultConnectTimeoutMS,
			ReadTimeoutMS:    defaultReadTimeoutMS,
			WriteTimeoutMS:   defaultWriteTimeoutMS,
			ClaimAttempts:    defaultClaimAttempts,
		},
		Archiver: Archiver{
			Binary:     defaultArchiverBinary,
			SniffInput: true,
		},
		Progress: Progress{
			BufferSize: defaultProgressBuffer,
			Overflow:   defaultOverflowPolicy,
		},
		Jobs: Jobs{
			QueueSize: defaultQueueSize,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Failed:         true,
		},
	}
}
