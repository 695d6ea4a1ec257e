package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

const (
	DefaultAPIBase  = "http://localhost:8080/api"
	DefaultMySQLDSN = "root:root@tcp(localhost:3306)/flexliving?parseTime=true&charset=utf8mb4,utf8&loc=UTC"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	APIBase        string
	APIRPS         int
	APITimeout     time.Duration
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	MySQLDSN       string
	CORSOrigins    []string
	ApproveWorkers int
	SessionTTL     time.Duration
}

// Load reads .env (if present), then the optional YAML file named by
// CONFIG_FILE, then the environment. Environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env")
	}
	file := map[string]string{}
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		var err error
		if file, err = readYAML(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("ignoring config file")
			file = map[string]string{}
		}
	}
	return build(func(k string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return file[k]
	})
}

func build(get func(string) string) Config {
	env := func(k, def string) string {
		if v := get(k); v != "" {
			return v
		}
		return def
	}
	atoi := func(k string, def int) int {
		if v := get(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":3000"),
		MetricsAddr:    get("METRICS_ADDR"),
		APIBase:        env("REVIEWS_API_BASE", DefaultAPIBase),
		APIRPS:         atoi("API_RPS", 10),
		APITimeout:     time.Duration(atoi("API_TIMEOUT_SECONDS", 10)) * time.Second,
		RedisAddr:      get("REDIS_ADDR"),
		RedisPass:      get("REDIS_PASSWORD"),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		MySQLDSN:       env("MYSQL_DSN", DefaultMySQLDSN),
		CORSOrigins:    splitList(env("CORS_ORIGINS", "http://localhost:3000")),
		ApproveWorkers: atoi("APPROVE_WORKERS", 4),
		SessionTTL:     time.Duration(atoi("SESSION_TTL_MINUTES", 720)) * time.Minute,
	}
	if c.RedisAddr == "" {
		log.Debug().Msg("REDIS_ADDR is empty, caching disabled")
	}
	if strings.EqualFold(c.MySQLDSN, "off") {
		c.MySQLDSN = ""
	}
	if c.MySQLDSN == "" {
		log.Debug().Msg("MYSQL_DSN is off, approval audit disabled")
	}
	return c
}

// readYAML reads a flat mapping of the same keys as the environment,
// e.g. "REVIEWS_API_BASE: https://...".
func readYAML(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = strings.TrimSpace(toString(v))
	}
	return out, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, toString(p))
		}
		return strings.Join(parts, ",")
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
