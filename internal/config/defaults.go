package config

const (
	defaultDataDir           = "~/.local/share/intercept"
	defaultLogDir            = "~/.local/share/intercept/logs"
	defaultSocketPath        = "~/.local/share/intercept/interceptd.sock"
	defaultAPIBind           = "127.0.0.1:8790"
	defaultTimeWindowSeconds = 30
	defaultMinConfidence     = 0.5
	defaultRSSIThreshold     = 20
	defaultGPSDHost          = "localhost"
	defaultGPSDPort          = 2947
	defaultAircraftURL       = "https://raw.githubusercontent.com/Mictronics/readsb-protobuf/dev/webapp/src/db/aircrafts.json"
	defaultTypesURL          = "https://raw.githubusercontent.com/Mictronics/readsb-protobuf/dev/webapp/src/db/types.json"
	defaultDownloadTimeout   = 120
	defaultDeviceMaxAge      = 900
	defaultSignalRetention   = 24
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
			APIBind:    defaultAPIBind,
		},
		Correlation: Correlation{
			TimeWindowSeconds: defaultTimeWindowSeconds,
			MinConfidence:     defaultMinConfidence,
			RSSIThreshold:     defaultRSSIThreshold,
		},
		GPSD: GPSD{
			Enabled: false,
			Host:    defaultGPSDHost,
			Port:    defaultGPSDPort,
		},
		AircraftDB: AircraftDB{
			AircraftURL:     defaultAircraftURL,
			TypesURL:        defaultTypesURL,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Devices: Devices{
			MaxAgeSeconds: defaultDeviceMaxAge,
		},
		SignalHistory: SignalHistory{
			RetentionHours: defaultSignalRetention,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
