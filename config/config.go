package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Dosada05/bracket-role-sync/models"
	"github.com/Dosada05/bracket-role-sync/utils"
)

const (
	defaultEnvFile       = ".env"
	defaultRolesFile     = "config.yaml"
	defaultStartGGAPIURL = "https://api.start.gg/gql/alpha"
	defaultDiscordAPIURL = "https://discord.com/api/v10"
	defaultDiscordRPS    = 40
)

var (
	ErrMissingServerID = errors.New("server_id is not set")
	ErrNoRoleMappings  = errors.New("no role mappings configured")
	ErrDuplicateRole   = errors.New("role is mapped in both temporary_roles and permanent_roles")
	ErrEmptyGameRef    = errors.New("role is mapped to an empty game")
)

// Config хранит все параметры запуска: учётные данные и настройки процесса.
type Config struct {
	StartGGToken  string
	DiscordToken  string
	StartGGAPIURL string
	DiscordAPIURL string
	DiscordRPS    int
	RolesFile     string
	LogLevel      slog.Level
	R2            R2Config
}

// R2Config — необязательный архив отчётов в Cloudflare R2.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Enabled — архив включается указанием бакета.
func (c R2Config) Enabled() bool {
	return c.BucketName != ""
}

// Load загружает конфигурацию из переменных окружения.
// Если envFile пустой, подгружается .env при его наличии.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", defaultEnvFile, err)
		}
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}

	startggToken := os.Getenv("STARTGG_TOKEN")
	if startggToken == "" {
		return nil, fmt.Errorf("STARTGG_TOKEN environment variable is not set")
	}
	discordToken := os.Getenv("DISCORD_TOKEN")
	if discordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN environment variable is not set")
	}

	level, err := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	rps := defaultDiscordRPS
	if v := os.Getenv("DISCORD_RPS"); v != "" {
		rps, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DISCORD_RPS environment variable: %w", err)
		}
		if rps <= 0 {
			return nil, fmt.Errorf("DISCORD_RPS must be positive, got %d", rps)
		}
	}

	cfg := &Config{
		StartGGToken:  startggToken,
		DiscordToken:  discordToken,
		StartGGAPIURL: utils.GetEnvOrDefault("STARTGG_API_URL", defaultStartGGAPIURL),
		DiscordAPIURL: utils.GetEnvOrDefault("DISCORD_API_URL", defaultDiscordAPIURL),
		DiscordRPS:    rps,
		RolesFile:     utils.GetEnvOrDefault("ROLE_SYNC_CONFIG", defaultRolesFile),
		LogLevel:      level,
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	return cfg, nil
}

// ParseLogLevel понимает debug, info, warn, error. Пустая строка — info.
func ParseLogLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// RoleConfig — содержимое файла с маппингом ролей. JSON тоже подходит.
type RoleConfig struct {
	ServerID       string             `yaml:"server_id"`
	TemporaryRoles models.RoleMapping `yaml:"temporary_roles"`
	PermanentRoles models.RoleMapping `yaml:"permanent_roles"`

	// Deprecated: используйте temporary_roles и permanent_roles.
	Roles models.RoleMapping `yaml:"roles"`
}

// LoadRoles читает и проверяет файл маппинга ролей.
func LoadRoles(path string) (*RoleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role config: %w", err)
	}
	return ParseRoles(data)
}

func ParseRoles(data []byte) (*RoleConfig, error) {
	var rc RoleConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role config: %w", err)
	}
	if err := rc.normalize(); err != nil {
		return nil, err
	}
	return &rc, nil
}

// normalize переносит устаревший маппинг roles в temporary_roles,
// если раздельные маппинги не заданы.
func (rc *RoleConfig) normalize() error {
	if rc.ServerID == "" {
		return ErrMissingServerID
	}
	if len(rc.TemporaryRoles) == 0 && len(rc.PermanentRoles) == 0 {
		rc.TemporaryRoles = rc.Roles
	}
	rc.Roles = nil
	if len(rc.TemporaryRoles) == 0 && len(rc.PermanentRoles) == 0 {
		return ErrNoRoleMappings
	}
	for _, m := range []models.RoleMapping{rc.TemporaryRoles, rc.PermanentRoles} {
		for id, game := range m {
			if strings.TrimSpace(string(game)) == "" {
				return fmt.Errorf("%w: %s", ErrEmptyGameRef, id)
			}
		}
	}
	for id := range rc.PermanentRoles {
		if _, ok := rc.TemporaryRoles[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRole, id)
		}
	}
	if rc.TemporaryRoles == nil {
		rc.TemporaryRoles = models.RoleMapping{}
	}
	if rc.PermanentRoles == nil {
		rc.PermanentRoles = models.RoleMapping{}
	}
	return nil
}
