package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = ".kotae/store"
	}
	if cfg.Store.Dimension == 0 {
		cfg.Store.Dimension = 1536
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1024
	}
	if cfg.Answer.Model == "" {
		cfg.Answer.Model = "gpt-4o-mini"
	}
	if cfg.Answer.MaxTokens == 0 {
		cfg.Answer.MaxTokens = 1000
	}
	if cfg.Answer.Temperature == 0 {
		cfg.Answer.Temperature = 0.3
	}
	if cfg.Answer.MaxAttempts == 0 {
		cfg.Answer.MaxAttempts = 3
	}
	if cfg.Answer.RetryDelaySeconds == 0 {
		cfg.Answer.RetryDelaySeconds = 2
	}
}
