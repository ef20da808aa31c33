package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type GameConfig struct {
	MaxGuesses    int           `yaml:"maxGuesses" validate:"required|min:1"`
	RetentionTTL  time.Duration `yaml:"retentionTTL" validate:"required|min:1"`
	SweepInterval time.Duration `yaml:"sweepInterval" validate:"required|min:1"`
}

// StorageConfig selects the GameStore backend. FilePath, SaveInterval and the
// archive settings apply to the memory backend only.
type StorageConfig struct {
	Driver          string        `yaml:"driver" validate:"required|in:memory,sqlite,mongo"`
	FilePath        string        `yaml:"filePath" validate:"unixPath"`
	SaveInterval    time.Duration `yaml:"saveInterval"`
	MaxSessions     int           `yaml:"maxSessions"`
	EvictionPercent int           `yaml:"evictionPercent"`
	ArchiveDir      string        `yaml:"archiveDir" validate:"unixPath"`
	ArchiveTTL      time.Duration `yaml:"archiveTTL"`
	Compression     string        `yaml:"compression" validate:"in:fastest,default,better,best"`
	SQLitePath      string        `yaml:"sqlitePath"`
	MongoURI        string        `yaml:"mongoURI"`
	MongoDatabase   string        `yaml:"mongoDatabase"`
}

// SpotifyConfig enables the live catalog when both credentials are set.
type SpotifyConfig struct {
	ClientID     string        `yaml:"clientID"`
	ClientSecret string        `yaml:"clientSecret"`
	Market       string        `yaml:"market"`
	Timeout      time.Duration `yaml:"timeout"`
	BaseURL      string        `yaml:"baseURL"`
	TokenURL     string        `yaml:"tokenURL"`
}

func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// CacheConfig sizes the catalog cache. Size is in megabytes.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Size     int           `yaml:"size"`
	TTL      time.Duration `yaml:"ttl"`
	AlbumTTL time.Duration `yaml:"albumTTL"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Logger    LoggerConfig  `yaml:"logger"`
	Game      GameConfig    `yaml:"game"`
	Storage   StorageConfig `yaml:"storage"`
	Spotify   SpotifyConfig `yaml:"spotify"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
}
