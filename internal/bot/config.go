package bot

// Config represents the configuration for the bot
type Config struct {
	// Proficiency level sent with lesson generation requests
	ProficiencyLevel string
	// Directory for downloaded photos and voice notes
	MediaDir string
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *Config {
	return &Config{
		ProficiencyLevel: "beginner",
		MediaDir:         "data/media",
	}
}
