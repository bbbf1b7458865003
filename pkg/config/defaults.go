package config

const (
	defaultTarget  = "http://localhost:8080"
	defaultTimeout = "30s"

	defaultProtocol = "v2"

	defaultPageLimit    = 2
	defaultDelayMs      = 300
	defaultSortMode     = "time"
	defaultPollInterval = "1s"

	defaultStorageProvider = "sqlite"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "replyscope.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Target:  defaultTarget,
			Timeout: defaultTimeout,
		},
		Analysis: AnalysisConfig{
			Protocol: defaultProtocol,
		},
		Scrape: ScrapeConfig{
			PageLimit:    defaultPageLimit,
			DelayMs:      defaultDelayMs,
			SortMode:     defaultSortMode,
			PollInterval: defaultPollInterval,
		},
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
