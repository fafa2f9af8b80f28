package config

const (
	defaultStagingDir                = "~/.local/share/lightbox/staging"
	defaultLibraryDir                = "~/photos"
	defaultLogDir                    = "~/.local/share/lightbox/logs"
	defaultLogRetentionDays          = 60
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultExiftoolBinary            = "exiftool"
	defaultExiftoolBatchSize         = 100
	defaultExtractTimeout            = 120
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultNotifyRequestTimeout      = 10
	defaultNotifyQueueMinItems       = 1
	defaultNotifyDedupWindowSeconds  = 600

	defaultGapFloorSeconds      = 3.0
	defaultGapBaseSeconds       = 1.2
	defaultGapShutterFactor     = 2.5
	defaultApertureTolerance    = 0.2
	defaultFocalToleranceMM     = 2.0
	defaultMaxStackSize         = 7
	defaultDirectionThresholdEV = 0.4
	defaultReversalThresholdEV  = 0.6
	defaultRestartThresholdEV   = 0.4
	defaultHDREVRange           = 0.6
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Exiftool: Exiftool{
			Binary:         defaultExiftoolBinary,
			BatchSize:      defaultExiftoolBatchSize,
			ExtractTimeout: defaultExtractTimeout,
		},
		Grouping: Grouping{
			GapFloorSeconds:      defaultGapFloorSeconds,
			GapBaseSeconds:       defaultGapBaseSeconds,
			GapShutterFactor:     defaultGapShutterFactor,
			ApertureTolerance:    defaultApertureTolerance,
			FocalToleranceMM:     defaultFocalToleranceMM,
			MaxStackSize:         defaultMaxStackSize,
			DirectionThresholdEV: defaultDirectionThresholdEV,
			ReversalThresholdEV:  defaultReversalThresholdEV,
			RestartThresholdEV:   defaultRestartThresholdEV,
		},
		Confidence: Confidence{
			HDREVRange: defaultHDREVRange,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			Scan:               true,
			Grouping:           true,
			Organization:       true,
			Queue:              true,
			Review:             true,
			Errors:             true,
			QueueMinItems:      defaultNotifyQueueMinItems,
			DedupWindowSeconds: defaultNotifyDedupWindowSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
			CardSettleSeconds:  5,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
