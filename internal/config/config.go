package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// WorkflowConfig holds the approval-chain tunables. The core consumes these
// values but does not own them.
type WorkflowConfig struct {
	ReminderInterval time.Duration `mapstructure:"debt_reminder_interval"`
	ReminderMaxCount int           `mapstructure:"debt_reminder_max_count"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
	LockSweepEvery   time.Duration `mapstructure:"lock_sweep_interval"`
	MaxFileSizeMB    int           `mapstructure:"max_file_size_mb"`
}

// LarkConfig holds chat-surface credentials and routing
type LarkConfig struct {
	AppID             string `mapstructure:"app_id"`
	AppSecret         string `mapstructure:"app_secret"`
	SupervisorChatID  string `mapstructure:"supervisor_chat_id"` // escalations land here
	Enabled           bool   `mapstructure:"enabled"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVars()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults carry the rest
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "postgres")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("jwt.access_token_ttl", 24*time.Hour)
	viper.SetDefault("jwt.refresh_token_ttl", 7*24*time.Hour)

	viper.SetDefault("workflow.debt_reminder_interval", 30*time.Minute)
	viper.SetDefault("workflow.debt_reminder_max_count", 3)
	viper.SetDefault("workflow.lock_ttl", 15*time.Minute)
	viper.SetDefault("workflow.lock_sweep_interval", time.Minute)
	viper.SetDefault("workflow.max_file_size_mb", 10)

	viper.SetDefault("lark.enabled", false)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "console")
}

func bindEnvVars() {
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.sslmode", "DB_SSLMODE")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("lark.app_id", "LARK_APP_ID")
	viper.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	viper.BindEnv("lark.supervisor_chat_id", "LARK_SUPERVISOR_CHAT_ID")
	viper.BindEnv("server.port", "PORT")
}

func (c *Config) validate() error {
	if c.Workflow.ReminderMaxCount < 1 {
		return fmt.Errorf("workflow.debt_reminder_max_count must be at least 1")
	}
	if c.Workflow.ReminderInterval <= 0 {
		return fmt.Errorf("workflow.debt_reminder_interval must be positive")
	}
	if c.Workflow.LockTTL <= 0 {
		return fmt.Errorf("workflow.lock_ttl must be positive")
	}
	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled")
	}
	return nil
}
