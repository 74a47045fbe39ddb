package config

type Config interface {
	EnvConfig
	CorsConfig
	GitHubConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	GitHub
	Sessions
}

func New() Config {
	return mainConfig{}
}
