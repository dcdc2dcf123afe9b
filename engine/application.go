package engine

type ApplicationConfig struct {
	// The application name used in log output.
	Name string
	// LogLevel overrides the level of the configuration file when set.
	LogLevel string
	// ConfigPath is the TOML engine configuration. A missing file means defaults.
	ConfigPath string
	// ParamsPath is the YAML parameter record to start from, if any.
	ParamsPath string
	// AssetsDir overrides the assets directory of the configuration when set.
	AssetsDir string
	// LoadWorkers is the number of concurrent asset loads; 0 means 2.
	LoadWorkers int
}
