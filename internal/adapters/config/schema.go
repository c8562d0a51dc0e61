package config

// Configfile represents the structure of the mealbook.yaml configuration file.
type Configfile struct {
	Version      string `yaml:"version"`
	DataDir      string `yaml:"data_dir"`
	Backend      string `yaml:"backend"`
	StorageKey   string `yaml:"storage_key"`
	WriteTimeout string `yaml:"write_timeout"`
	LogFormat    string `yaml:"log_format"`
}
