package config

const (
	defaultTopic                 = "lol-gameflow_v1_session"
	defaultConnectAttempts       = 3
	defaultConnectBackoffSeconds = 5
	defaultOBSHost               = "localhost"
	defaultOBSPort               = 4455
	defaultOBSProfile            = "League of Legends"
	defaultOBSRequestTimeout     = 3
	defaultFilenamePrefix        = "league"
	defaultReadyTimeoutSeconds   = 5
	defaultStartSettleSeconds    = 1
	defaultStopSettleSeconds     = 2
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogDir                = "~/.local/share/riftcap/logs"
	defaultDataDir               = "~/.local/share/riftcap"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		League: League{
			Topic:                 defaultTopic,
			ConnectAttempts:       defaultConnectAttempts,
			ConnectBackoffSeconds: defaultConnectBackoffSeconds,
		},
		OBS: OBS{
			Host:                  defaultOBSHost,
			Port:                  defaultOBSPort,
			ProfileName:           defaultOBSProfile,
			RequestTimeoutSeconds: defaultOBSRequestTimeout,
		},
		Recording: Recording{
			IgnoredQueueTypes: []string{
				"TUTORIAL_MODULE_1",
				"TUTORIAL_MODULE_2",
				"TUTORIAL_MODULE_3",
				"PRACTICE_TOOL",
			},
			FilenamePrefix:      defaultFilenamePrefix,
			ReadyTimeoutSeconds: defaultReadyTimeoutSeconds,
			StartSettleSeconds:  defaultStartSettleSeconds,
			StopSettleSeconds:   defaultStopSettleSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Recording:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Paths: Paths{
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
		},
	}
}
