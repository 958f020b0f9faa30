package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors spec.md §6's control-plane table: server address,
// logging, storage backends, and the room-engine tunables every
// Directory/Room/Bus is constructed with.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Admin struct {
		Token string `yaml:"token"`
	} `yaml:"admin"`

	Room struct {
		TTL            string `yaml:"ttl"`
		OrganizerGrace string `yaml:"organizer_grace"`
		MaxRooms       int    `yaml:"max_rooms"`
		MaxPlayers     int    `yaml:"max_players_per_room"`
	} `yaml:"room"`

	Realtime struct {
		OutboundQueueSize int    `yaml:"outbound_queue_size"`
		HeartbeatInterval string `yaml:"heartbeat_interval"`
	} `yaml:"realtime"`

	QuizBank struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"quiz_bank"`
}

// Load reads YAML config from path, then lets env vars of the same
// name (spec.md §6's upper-snake-case names) override individual
// fields, the way a container deployment expects.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}
	if v := os.Getenv("ROOM_TTL_SECONDS"); v != "" {
		cfg.Room.TTL = v + "s"
	}
	if v := os.Getenv("ORGANIZER_GRACE_SECONDS"); v != "" {
		cfg.Room.OrganizerGrace = v + "s"
	}
	if v := os.Getenv("HEARTBEAT_INTERVAL_SECONDS"); v != "" {
		cfg.Realtime.HeartbeatInterval = v + "s"
	}
	if v, err := strconv.Atoi(os.Getenv("OUTBOUND_QUEUE_SIZE")); err == nil {
		cfg.Realtime.OutboundQueueSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("MAX_ROOMS")); err == nil {
		cfg.Room.MaxRooms = v
	}
	if v, err := strconv.Atoi(os.Getenv("MAX_PLAYERS_PER_ROOM")); err == nil {
		cfg.Room.MaxPlayers = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
}

// Duration parses a duration string (plain Go syntax, e.g. "30s") or
// returns fallback if raw is empty or unparsable.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
