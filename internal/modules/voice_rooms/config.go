package voice_rooms

// Config holds the voice rooms module configuration.
type Config struct {
	DatabasePath  string `env:"VOICE_ROOMS_DATABASE_PATH" envDefault:"data/tempvoice.db"`
	MaxCategories int    `env:"VOICE_ROOMS_MAX_CATEGORIES" envDefault:"3"`
	TaskWorkers   int    `env:"VOICE_ROOMS_TASK_WORKERS" envDefault:"4"`
	TaskBuffer    int    `env:"VOICE_ROOMS_TASK_BUFFER" envDefault:"100"`
}
