package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`

		// PublicURL is the externally reachable base URL used in emailed
		// links.
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		UseTLS       bool   `yaml:"use_tls"`
		TemplatesDir string `yaml:"templates_dir"`
	} `yaml:"email"`

	Gateway struct {
		BaseURL  string `yaml:"base_url"`
		KeyID    string `yaml:"key_id"`
		Secret   string `yaml:"secret"`
		Currency string `yaml:"currency"`
	} `yaml:"gateway"`

	Push struct {
		Endpoint  string `yaml:"endpoint"`
		ServerKey string `yaml:"server_key"`
	} `yaml:"push"`

	Dispatch struct {
		IntervalSeconds int `yaml:"interval_seconds"`
		BatchSize       int `yaml:"batch_size"`
		MaxAttempts     int `yaml:"max_attempts"`
	} `yaml:"dispatch"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"admin"`
}

var AppConfig *Config

// LoadConfig reads config/config.yaml, or builds the config entirely from
// environment variables when DATABASE_URL is set (test and container mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyEnvOverrides(&cfg)
		AppConfig = &cfg
		return
	}

	log.Println("Loading configuration from environment variables")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Server.PublicURL = getEnv("PUBLIC_URL", "http://localhost:4000")
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Email.SMTPHost = getEnv("SMTP_HOST", "smtp.test.com")
	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = getEnv("SMTP_FROM", "noreply@dial2tech.com")
	cfg.Email.FromName = "Dial2Tech"
	cfg.Email.TemplatesDir = "templates"

	cfg.Gateway.BaseURL = getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com/v1")
	cfg.Gateway.KeyID = os.Getenv("GATEWAY_KEY_ID")
	cfg.Gateway.Secret = os.Getenv("GATEWAY_SECRET")
	cfg.Gateway.Currency = getEnv("GATEWAY_CURRENCY", "INR")

	cfg.Push.Endpoint = os.Getenv("PUSH_ENDPOINT")
	cfg.Push.ServerKey = os.Getenv("PUSH_SERVER_KEY")

	cfg.Dispatch.IntervalSeconds = 15
	cfg.Dispatch.BatchSize = 50
	cfg.Dispatch.MaxAttempts = 5

	AppConfig = &cfg
}

// applyEnvOverrides lets deployment secrets win over the yaml file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("GATEWAY_KEY_ID"); v != "" {
		cfg.Gateway.KeyID = v
	}
	if v := os.Getenv("GATEWAY_SECRET"); v != "" {
		cfg.Gateway.Secret = v
	}
	if v := os.Getenv("PUSH_SERVER_KEY"); v != "" {
		cfg.Push.ServerKey = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
