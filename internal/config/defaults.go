package config

const (
	defaultInterpreter     = "python3"
	defaultKVStorePath     = "config.yaml"
	defaultTorchVariant    = "auto"
	defaultDriveMountPoint = "/content/drive"
	defaultDisplayLanguage = "zh-CN"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 20
	defaultLogMaxBackups   = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	stateDir := defaultStateDir()
	return Config{
		Paths: Paths{
			StateDir: stateDir,
			LogDir:   stateDir + "/logs",
			KVStore:  defaultKVStorePath,
		},
		Python: Python{
			Interpreter:   defaultInterpreter,
			StrictOffline: true,
		},
		Torch: Torch{
			Variant: defaultTorchVariant,
		},
		Drive: Drive{
			MountPoint: defaultDriveMountPoint,
		},
		Fonts: Fonts{
			Enabled: true,
		},
		Requirements: Requirements{
			ContinueOnError: true,
		},
		Display: Display{
			Language: defaultDisplayLanguage,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
