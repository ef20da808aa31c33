package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"musicwordle/internal/structures"
)

const AppName = "MusicWordle"

var envBindings = map[string]string{
	"logger.level":          "MW_LOG_LEVEL",
	"webServer.port":        "MW_PORT",
	"game.maxGuesses":       "MW_MAX_GUESSES",
	"game.retentionTTL":     "MW_RETENTION_TTL",
	"storage.driver":        "MW_STORAGE_DRIVER",
	"storage.filePath":      "MW_STORAGE_FILE",
	"storage.archiveDir":    "MW_ARCHIVE_DIR",
	"storage.sqlitePath":    "MW_SQLITE_PATH",
	"storage.mongoURI":      "MW_MONGO_URI",
	"storage.mongoDatabase": "MW_MONGO_DATABASE",
	"spotify.clientID":      "MW_SPOTIFY_CLIENT_ID",
	"spotify.clientSecret":  "MW_SPOTIFY_CLIENT_SECRET",
	"spotify.market":        "MW_SPOTIFY_MARKET",
	"cache.enabled":         "MW_CACHE_ENABLED",
	"cache.size":            "MW_CACHE_SIZE",
	"metrics.enabled":       "MW_METRICS_ENABLED",
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	if err := NewCnfValidator(&conf).Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.maxGuesses", 6)
	v.SetDefault("game.retentionTTL", "24h")
	v.SetDefault("game.sweepInterval", "10m")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.saveInterval", "30s")
	v.SetDefault("storage.maxSessions", 100000)
	v.SetDefault("storage.evictionPercent", 10)
	v.SetDefault("storage.archiveTTL", "168h")
	v.SetDefault("storage.compression", "default")
	v.SetDefault("spotify.market", "US")
	v.SetDefault("spotify.timeout", "5s")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.albumTTL", "24h")
}
