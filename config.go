package nutricoach

// BotConfig configures the Telegram-facing process.
type BotConfig struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	Debug         bool   `env:"DEBUG,default=false"`

	// FlowLogPath selects where per-event flow logs go: empty disables them,
	// "-" writes JSON lines to stdout, "auto" picks a timestamped file under
	// ./logs, anything else is a file path.
	FlowLogPath string `env:"FLOW_LOG_PATH"`

	// Chart archive destinations; both are optional and independent.
	ChartArchiveDir      string `env:"CHART_ARCHIVE_DIR"`
	ChartArchiveS3Bucket string `env:"CHART_ARCHIVE_S3_BUCKET"`
	ChartArchiveS3Prefix string `env:"CHART_ARCHIVE_S3_PREFIX,default=charts"`
}

// EngineConfig configures the dialogue engine and its upstream clients.
type EngineConfig struct {
	OpenWeatherAPIKey      string `env:"OPENWEATHER_API_KEY,required"`
	WeatherBaseURL         string `env:"WEATHER_BASE_URL,default=https://api.openweathermap.org/data/2.5"`
	CatalogBaseURL         string `env:"CATALOG_BASE_URL,default=https://world.openfoodfacts.org"`
	FoodCandidateLimit     int    `env:"FOOD_CANDIDATE_LIMIT,default=5"`
	SessionTTLMinutes      int    `env:"SESSION_TTL_MINUTES,default=15"`
	UpstreamTimeoutSeconds int    `env:"UPSTREAM_TIMEOUT_SECONDS,default=10"`
}
