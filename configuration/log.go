package configuration

type LogConfiguration struct {
	Level  string `envconfig:"LOG_LEVEL"`
	Format string `envconfig:"LOG_FORMAT"`
	// stderr, filelog or syslog
	Output string `envconfig:"LOG_OUTPUT"`
	// log file path for filelog, [network:]address for a remote syslog
	OutputParam string `envconfig:"LOG_OUTPUT_PARAM"`
}

func DefLogConfiguration() *LogConfiguration {
	return &LogConfiguration{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}
}
