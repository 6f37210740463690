package config

type AppConfig struct {
	Server      ServerConfig
	Coordinator CoordinatorConfig
	Rating      RatingConfig
	Log         LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	coordCfg, err := LoadCoordinator()
	if err != nil {
		return AppConfig{}, err
	}
	ratingCfg, err := LoadRating()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:      serverCfg,
		Coordinator: coordCfg,
		Rating:      ratingCfg,
		Log:         logCfg,
	}, nil
}
