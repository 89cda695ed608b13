package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	YouTube     YouTube     `json:"youtube"`
	Scraper     Scraper     `json:"scraper"`
	OEmbed      OEmbed      `json:"oembed"`
	Duration    Duration    `json:"duration"`
	Batch       Batch       `json:"batch"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// Header is the browser identity sent by the page scraper.
type Header struct {
	Accept          string `json:"accept"`
	AcceptLanguage  string `json:"acceptLanguage"`
	Connection      string `json:"connection"`
	Cookie          string `json:"cookie"`
	Referer         string `json:"referer"`
	SecFetchDest    string `json:"secFetchDest"`
	SecFetchMode    string `json:"secFetchMode"`
	SecFetchSite    string `json:"secFetchSite"`
	UserAgent       string `json:"userAgent"`
	SecChUa         string `json:"secChUa"`
	SecChUaMobile   string `json:"secChUaMobile"`
	SecChUaPlatform string `json:"secChUaPlatform"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
}

type YouTube struct {
	APIKey       string        `json:"apiKey"`
	ClientID     string        `json:"clientId"`
	ClientSecret string        `json:"clientSecret"`
	RedirectURI  string        `json:"redirectURI"`
	Endpoint     string        `json:"endpoint"`
	Timeout      time.Duration `json:"timeout"`
}

type Scraper struct {
	Enabled      bool          `json:"enabled"`
	BaseURL      string        `json:"baseURL"`
	Delay        time.Duration `json:"delay"`
	Timeout      time.Duration `json:"timeout"`
	MaxBodyBytes int64         `json:"maxBodyBytes"`
	Header       Header        `json:"header"`
}

type OEmbed struct {
	Enabled          bool          `json:"enabled"`
	Endpoint         string        `json:"endpoint"`
	ThumbnailBaseURL string        `json:"thumbnailBaseURL"`
	Timeout          time.Duration `json:"timeout"`
}

// KnownOverride is kept as a list entry because viper lower-cases map keys
// and external IDs are case sensitive.
type KnownOverride struct {
	VideoID string `json:"videoId"`
	Seconds int    `json:"seconds"`
}

type Duration struct {
	CachePrefix       string          `json:"cachePrefix"`
	LongTTL           time.Duration   `json:"longTTL"`
	ShortTTL          time.Duration   `json:"shortTTL"`
	KnownOverrides    []KnownOverride `json:"knownOverrides"`
	OverridesFile     string          `json:"overridesFile"`
	ProtectedIDs      []string        `json:"protectedIDs"`
	FallbackValues    []int           `json:"fallbackValues"`
	ToleranceSeconds  int             `json:"toleranceSeconds"`
	MaxRelativeChange float64         `json:"maxRelativeChange"`
	HashMinSeconds    int             `json:"hashMinSeconds"`
	HashMaxSeconds    int             `json:"hashMaxSeconds"`
	DefaultSeconds    int             `json:"defaultSeconds"`
}

type Batch struct {
	Workers int           `json:"workers"`
	Pacing  time.Duration `json:"pacing"`
}

var C Config

func init() {
	Reload()
}

// Reload reads the config file again and reapplies environment fallbacks.
// main calls it after loading env files.
func Reload() {
	C = Config{}
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initRedis(&C)
	initDuration(&C)
	initClients(&C)
	initBatch(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	if C.Database.MySql.Host == "" {
		C.Database.MySql.Host = os.Getenv("MYSQL_HOST")
	}
	if C.Database.MySql.Port == "" {
		C.Database.MySql.Port = getEnv("MYSQL_PORT", "3306")
	}
	if C.Database.MySql.Name == "" {
		C.Database.MySql.Name = os.Getenv("MYSQL_DB_NAME")
	}
	if C.Database.MySql.User == "" {
		C.Database.MySql.User = os.Getenv("MYSQL_USER")
	}
	if C.Database.MySql.Password == "" {
		C.Database.MySql.Password = os.Getenv("MYSQL_PASSWORD")
	}

	if C.Database.Mongo.Host == "" {
		C.Database.Mongo.Host = os.Getenv("MONGO_HOST")
	}
	if C.Database.Mongo.Port == "" {
		C.Database.Mongo.Port = getEnv("MONGO_PORT", "27017")
	}
	if C.Database.Mongo.Name == "" {
		C.Database.Mongo.Name = getEnv("MONGO_DB_NAME", "coomunity")
	}
	if C.Database.Mongo.User == "" {
		C.Database.Mongo.User = os.Getenv("MONGO_USER")
	}
	if C.Database.Mongo.Password == "" {
		C.Database.Mongo.Password = os.Getenv("MONGO_PASSWORD")
	}

	// Azure SQL in production
	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = getEnv("MSSQL_HOST", "localhost")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = getEnv("MSSQL_PORT", "1433")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = getEnv("MSSQL_USER", "sa")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// APP_PORT -> PORT -> config -> 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			C.App.TLSEnabled = b
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if C.App.TLSEnabled {
		logger.GetLogger().WithFields(map[string]interface{}{"cert": C.App.TLSCertFile, "key": C.App.TLSKeyFile}).Info("TLS enabled via configuration")
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initRedis(C *Config) {
	if C.RedisClient.Host == "" {
		C.RedisClient.Host = os.Getenv("REDIS_HOST")
	}
	if C.RedisClient.Port == "" {
		C.RedisClient.Port = getEnv("REDIS_PORT", "6379")
	}
	if C.RedisClient.Username == "" {
		C.RedisClient.Username = os.Getenv("REDIS_USERNAME")
	}
	if C.RedisClient.Password == "" {
		C.RedisClient.Password = os.Getenv("REDIS_PASSWORD")
	}
}

func initDuration(C *Config) {
	d := &C.Duration
	d.CachePrefix = getConfigValue(d.CachePrefix, "DURATION_CACHE_PREFIX", "coomunity")
	d.LongTTL = getDurationEnv("DURATION_LONG_TTL", d.LongTTL, 7*24*time.Hour)
	d.ShortTTL = getDurationEnv("DURATION_SHORT_TTL", d.ShortTTL, 24*time.Hour)
	if d.LongTTL < 7*24*time.Hour {
		logger.GetLogger().WithField("longTTL", d.LongTTL).Warn("Duration long TTL below 7 days; raising to 7 days")
		d.LongTTL = 7 * 24 * time.Hour
	}
	if d.ShortTTL <= 0 || d.ShortTTL > 24*time.Hour {
		logger.GetLogger().WithField("shortTTL", d.ShortTTL).Warn("Duration short TTL outside (0, 24h]; using 24h")
		d.ShortTTL = 24 * time.Hour
	}
	d.OverridesFile = getConfigValue(d.OverridesFile, "DURATION_OVERRIDES_FILE", "")
	if v := os.Getenv("DURATION_PROTECTED_IDS"); v != "" {
		d.ProtectedIDs = splitList(v)
	}
	// Zero is a valid tolerance; only an unset or negative value gets the default.
	if v := os.Getenv("DURATION_TOLERANCE_SECONDS"); v != "" {
		d.ToleranceSeconds = getIntEnv("DURATION_TOLERANCE_SECONDS", 10)
	} else if !viper.IsSet("duration.toleranceseconds") {
		d.ToleranceSeconds = 10
	}
	if d.ToleranceSeconds < 0 {
		d.ToleranceSeconds = 10
	}
	if d.MaxRelativeChange <= 0 {
		d.MaxRelativeChange = 0.5
		if v := os.Getenv("DURATION_MAX_RELATIVE_CHANGE"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				d.MaxRelativeChange = f
			}
		}
	}
	if d.HashMinSeconds <= 0 {
		d.HashMinSeconds = 300
	}
	if d.HashMaxSeconds < d.HashMinSeconds {
		d.HashMaxSeconds = 1200
	}
	if d.DefaultSeconds <= 0 {
		d.DefaultSeconds = 480
	}
}

func initClients(C *Config) {
	C.YouTube.Timeout = getDurationEnv("YOUTUBE_TIMEOUT", C.YouTube.Timeout, 10*time.Second)

	s := &C.Scraper
	if v := os.Getenv("SCRAPER_ENABLED"); v != "" {
		s.Enabled, _ = strconv.ParseBool(v)
	} else if !viper.IsSet("scraper.enabled") {
		s.Enabled = true
	}
	s.BaseURL = getConfigValue(s.BaseURL, "SCRAPER_BASE_URL", "https://www.youtube.com")
	s.Delay = getDurationEnv("SCRAPER_DELAY", s.Delay, 750*time.Millisecond)
	s.Timeout = getDurationEnv("SCRAPER_TIMEOUT", s.Timeout, 12*time.Second)
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = 4 << 20
	}
	if s.Header.UserAgent == "" {
		s.Header = defaultBrowserHeader()
	}

	o := &C.OEmbed
	if v := os.Getenv("OEMBED_ENABLED"); v != "" {
		o.Enabled, _ = strconv.ParseBool(v)
	} else if !viper.IsSet("oembed.enabled") {
		o.Enabled = true
	}
	o.Endpoint = getConfigValue(o.Endpoint, "OEMBED_ENDPOINT", "https://www.youtube.com/oembed")
	o.ThumbnailBaseURL = getConfigValue(o.ThumbnailBaseURL, "THUMBNAIL_BASE_URL", "https://i.ytimg.com/vi")
	o.Timeout = getDurationEnv("OEMBED_TIMEOUT", o.Timeout, 8*time.Second)

	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.Pubsub.Topic = getConfigValue(C.Pubsub.Topic, "PUBSUB_DURATION_TOPIC", "video-duration-changed")
	C.ServiceBus.Namespace = getConfigValue(C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	C.ServiceBus.Queue = getConfigValue(C.ServiceBus.Queue, "SERVICEBUS_DURATION_QUEUE", "video-duration-changed")
}

func initBatch(C *Config) {
	if C.Batch.Workers <= 0 {
		C.Batch.Workers = getIntEnv("BATCH_WORKERS", 1)
	}
	C.Batch.Pacing = getDurationEnv("BATCH_PACING", C.Batch.Pacing, 1500*time.Millisecond)
}

func defaultBrowserHeader() Header {
	return Header{
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		AcceptLanguage:  "en-US,en;q=0.9,es;q=0.8",
		Connection:      "keep-alive",
		SecFetchDest:    "document",
		SecFetchMode:    "navigate",
		SecFetchSite:    "none",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		SecChUa:         `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		SecChUaMobile:   "?0",
		SecChUaPlatform: `"Windows"`,
	}
}

// getDurationEnv prefers the environment, then the configured value, then def.
func getDurationEnv(key string, configured, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logger.GetLogger().WithFields(map[string]interface{}{"key": key, "value": v}).Warn("Invalid duration in environment; ignoring")
	}
	if configured > 0 {
		return configured
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
