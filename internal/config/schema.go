package config

// Config is the application configuration. User preferences such as
// pomodoro lengths live in the database settings table instead.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures the file logger. The TUI owns the terminal, so logs
// never go to stdout.
type LogConfig struct {
	File        string `yaml:"file" mapstructure:"file"`
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}
