package config

const (
	defaultDropRoot            = "~/hopper/drop"
	defaultVideoRoot           = "~/library/video"
	defaultMusicRoot           = "~/library/music"
	defaultImageRoot           = "~/library/images"
	defaultMiscRoot            = "~/library/misc"
	defaultQueueDirName        = ".hopper-queue"
	defaultPolicy              = PolicyDoubleSample
	defaultThresholdSeconds    = 45
	defaultSampleWindowSeconds = 5
	defaultBigFileBytes        = int64(1) << 30
	defaultFFprobeBinary       = "ffprobe"
	defaultProbeTimeoutSeconds = 10
	defaultTagCommand          = "beet"
	defaultTagTimeoutSeconds   = 600
	defaultLockFile            = "~/.local/share/hopper/hopper.lock"
	defaultLogFile             = "~/.local/share/hopper/hopper.log"
	defaultLogLevel            = "info"
	defaultLogFormat           = "pretty"
	defaultDebounceSeconds     = 2
	defaultScanInterval        = 300
)

func defaultTagArgs() []string {
	return []string{"import", "-q"}
}

// Default returns a Config populated with repository defaults. The queue root
// is left empty here; normalize derives it from the drop root when unset.
func Default() Config {
	return Config{
		Paths: Paths{
			DropRoot:  defaultDropRoot,
			VideoRoot: defaultVideoRoot,
			MusicRoot: defaultMusicRoot,
			ImageRoot: defaultImageRoot,
			MiscRoot:  defaultMiscRoot,
		},
		Stability: Stability{
			Policy:              defaultPolicy,
			ThresholdSeconds:    defaultThresholdSeconds,
			SampleWindowSeconds: defaultSampleWindowSeconds,
			BigFileBytes:        defaultBigFileBytes,
		},
		Probe: Probe{
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Tagging: Tagging{
			Command:        defaultTagCommand,
			Args:           defaultTagArgs(),
			TimeoutSeconds: defaultTagTimeoutSeconds,
		},
		Runtime: Runtime{
			LockFile:  defaultLockFile,
			LogFile:   defaultLogFile,
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Watch: Watch{
			DebounceSeconds:     defaultDebounceSeconds,
			ScanIntervalSeconds: defaultScanInterval,
		},
	}
}
