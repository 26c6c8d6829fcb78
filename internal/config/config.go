package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"homebroker/internal/adapter"
	"homebroker/internal/hub"
	"homebroker/internal/ingest"
	"homebroker/internal/online"
	"homebroker/internal/snapshot"
	"homebroker/pkg/exception"
	"homebroker/pkg/signalr"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment overrides, e.g. HOMEBROKER_HUB_PATH.
const EnvPrefix = "HOMEBROKER"

// File mirrors the config file layout.
type File struct {
	Broker    int             `mapstructure:"broker"`
	BaseURL   string          `mapstructure:"base_url"`
	Cookies   string          `mapstructure:"cookies"`
	Hub       HubConfig       `mapstructure:"hub"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Subscribe SubscribeConfig `mapstructure:"subscribe"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

type HubConfig struct {
	Name           string        `mapstructure:"name"`
	Path           string        `mapstructure:"path"`
	KeepAliveGrace time.Duration `mapstructure:"keep_alive_grace"`
}

type PipelineConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type SnapshotConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Rate    float64       `mapstructure:"rate"`
	Burst   int           `mapstructure:"burst"`
}

// SubscribeConfig selects the streams the online binary subscribes after connecting.
type SubscribeConfig struct {
	PersonalPortfolio bool              `mapstructure:"portfolio"`
	Securities        []SecuritiesEntry `mapstructure:"securities"`
	Options           bool              `mapstructure:"options"`
	Repos             bool              `mapstructure:"repos"`
	OrderBooks        []OrderBookEntry  `mapstructure:"order_books"`
}

type SecuritiesEntry struct {
	Board      string `mapstructure:"board"`
	Settlement string `mapstructure:"settlement"`
}

type OrderBookEntry struct {
	Symbol     string `mapstructure:"symbol"`
	Settlement string `mapstructure:"settlement"`
}

type OpsConfig struct {
	Addr string `mapstructure:"addr"`
}

type ProfilingConfig struct {
	ServerAddress   string `mapstructure:"server_address"`
	ApplicationName string `mapstructure:"application_name"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Broker    adapter.Broker
	Session   *adapter.Session
	Online    online.Config
	Subscribe SubscribeConfig
	Ops       OpsConfig
	Profiling ProfilingConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broker", 0)
	v.SetDefault("base_url", "")
	v.SetDefault("cookies", "")
	v.SetDefault("hub.name", hub.DefaultHubName)
	v.SetDefault("hub.path", signalr.DefaultPath)
	v.SetDefault("hub.keep_alive_grace", signalr.DefaultKeepAliveGrace)
	v.SetDefault("pipeline.interval", ingest.DefaultInterval)
	v.SetDefault("snapshot.timeout", snapshot.DefaultTimeout)
	v.SetDefault("snapshot.rate", snapshot.DefaultRate)
	v.SetDefault("snapshot.burst", snapshot.DefaultBurst)
	v.SetDefault("subscribe.portfolio", false)
	v.SetDefault("subscribe.options", false)
	v.SetDefault("subscribe.repos", false)
	v.SetDefault("ops.addr", ":9090")
	v.SetDefault("profiling.server_address", "")
	v.SetDefault("profiling.application_name", "homebroker.online")
}

// LoadEnv reads dotenv files into the process environment. Missing files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file at path, applies HOMEBROKER_* overrides and resolves it.
// An empty path relies on defaults and the environment only.
func Load(path string) (Loaded, error) {
	file, err := Read(path)
	if err != nil {
		return Loaded{}, err
	}
	return Resolve(file)
}

// Read decodes the config file without validating it.
func Read(path string) (File, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return File{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var file File
	if err := v.Unmarshal(&file); err != nil {
		return File{}, fmt.Errorf("decode config: %w", err)
	}
	return file, nil
}

// Resolve validates file and builds the session and component settings.
func Resolve(file File) (Loaded, error) {
	broker, baseURL, err := resolveBaseURL(file.Broker, file.BaseURL)
	if err != nil {
		return Loaded{}, err
	}
	cookies, err := parseCookies(file.Cookies)
	if err != nil {
		return Loaded{}, err
	}
	if err := validateSubscribe(file.Subscribe); err != nil {
		return Loaded{}, err
	}
	if file.Pipeline.Interval < 0 {
		return Loaded{}, fmt.Errorf("%w: pipeline.interval must be >= 0", exception.ErrInvalidConfig)
	}
	if file.Snapshot.Rate < 0 || file.Snapshot.Burst < 0 {
		return Loaded{}, fmt.Errorf("%w: snapshot.rate and snapshot.burst must be >= 0", exception.ErrInvalidConfig)
	}

	session := &adapter.Session{
		LoggedIn: true,
		Cookies:  cookies,
		BaseURL:  baseURL,
	}

	return Loaded{
		Broker:  broker,
		Session: session,
		Online: online.Config{
			Hub: hub.Config{
				Dial: hub.SignalRDialer(signalr.Option{
					Hub:            file.Hub.Name,
					Path:           file.Hub.Path,
					KeepAliveGrace: file.Hub.KeepAliveGrace,
				}),
				Interval: file.Pipeline.Interval,
			},
			Snapshot: snapshot.Config{
				Timeout: file.Snapshot.Timeout,
				Rate:    file.Snapshot.Rate,
				Burst:   file.Snapshot.Burst,
			},
		},
		Subscribe: file.Subscribe,
		Ops:       file.Ops,
		Profiling: file.Profiling,
	}, nil
}

func resolveBaseURL(id int, baseURL string) (adapter.Broker, string, error) {
	var broker adapter.Broker
	if id != 0 {
		b, ok := adapter.BrokerByID(id)
		if !ok {
			return adapter.Broker{}, "", fmt.Errorf("%w: unknown broker %d", exception.ErrInvalidConfig, id)
		}
		broker = b
	}

	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = broker.Page
	}
	if baseURL == "" {
		return adapter.Broker{}, "", fmt.Errorf("%w: broker or base_url is required", exception.ErrInvalidConfig)
	}
	return broker, strings.TrimRight(baseURL, "/"), nil
}

// parseCookies reads a Cookie header line, "name=value; other=value".
func parseCookies(line string) (map[string]string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("%w: cookies of a logged in session are required", exception.ErrInvalidConfig)
	}
	parsed, err := http.ParseCookie(line)
	if err != nil {
		return nil, fmt.Errorf("%w: cookies: %v", exception.ErrInvalidConfig, err)
	}
	cookies := make(map[string]string, len(parsed))
	for _, c := range parsed {
		cookies[c.Name] = c.Value
	}
	return cookies, nil
}

func validateSubscribe(cfg SubscribeConfig) error {
	for i, s := range cfg.Securities {
		if _, err := adapter.BoardCodeForRequest(s.Board); err != nil {
			return fmt.Errorf("%w: subscribe.securities[%d]: %v", exception.ErrInvalidConfig, i, err)
		}
		if _, err := adapter.SettlementCodeForRequest(s.Settlement, ""); err != nil {
			return fmt.Errorf("%w: subscribe.securities[%d]: %v", exception.ErrInvalidConfig, i, err)
		}
	}
	for i, ob := range cfg.OrderBooks {
		if strings.TrimSpace(ob.Symbol) == "" {
			return fmt.Errorf("%w: subscribe.order_books[%d]: symbol is empty", exception.ErrInvalidConfig, i)
		}
		if _, err := adapter.SettlementCodeForRequest(ob.Settlement, ob.Symbol); err != nil {
			return fmt.Errorf("%w: subscribe.order_books[%d]: %v", exception.ErrInvalidConfig, i, err)
		}
	}
	return nil
}
