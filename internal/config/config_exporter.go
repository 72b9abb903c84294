package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Log sources for the player tracker.
const (
	LogSourceKube    = "kube"
	LogSourceKubectl = "kubectl"
	LogSourceFile    = "file"
	LogSourceNone    = "none"
)

// ExporterConfig holds the configuration settings for the exporter.
type ExporterConfig struct {
	Addr           string // HTTP address of /metrics
	Logger         *zap.SugaredLogger
	LogFile        string // Extra zap output path
	ScrapeInterval int    // Seconds between poll cycles

	APIURL       string // Gameplay API base URL, empty disables the API
	APIToken     string
	APITokenMode string // query or bearer
	APITimeout   int    // Per probe, seconds

	WorldFilePath    string
	ServerConfigPath string
	TShockConfigPath string

	ChestItemSeriesLimit int
	DefaultMaxPlayers    float64

	LogPlayerTracker bool
	LogSource        string // kube, kubectl, file or none
	LogFilePath      string // Server log for the file source
	K8sHost          string
	K8sPort          int
	K8sNamespace     string
	K8sLabelSelector string
	K8sContainer     string
	K8sDeployment    string // kubectl source
	K8sLogTailLines  int
	KubectlBin       string

	TrustedSubnet string // CIDR allowed to call POST /value, empty allows all
}

// Interval returns the scrape interval as a duration.
func (c *ExporterConfig) Interval() time.Duration {
	return time.Duration(c.ScrapeInterval) * time.Second
}

// Timeout returns the API probe timeout as a duration.
func (c *ExporterConfig) Timeout() time.Duration {
	return time.Duration(c.APITimeout) * time.Second
}

// NewExporterConfig creates and returns a new ExporterConfig by parsing flags and environment variables.
func NewExporterConfig() *ExporterConfig {
	return newExporterConfig(flag.CommandLine, os.Args[1:])
}

func newExporterConfig(fs *flag.FlagSet, args []string) *ExporterConfig {
	_ = loadDotEnv(".env")
	logger := newLogger(os.Getenv("LOG_FILE"))

	// 0) defaults
	cfg := &ExporterConfig{
		Addr:                 ":9150",
		ScrapeInterval:       15,
		APITokenMode:         "query",
		APITimeout:           6,
		ServerConfigPath:     "/config/serverconfig.txt",
		TShockConfigPath:     "/config/config.json",
		ChestItemSeriesLimit: 500,
		DefaultMaxPlayers:    8,
		LogPlayerTracker:     true,
		LogSource:            LogSourceKube,
		K8sPort:              443,
		K8sNamespace:         "terraria",
		K8sLabelSelector:     "app=terraria-server",
		K8sContainer:         "terraria",
		K8sDeployment:        "terraria-server",
		K8sLogTailLines:      2000,
		KubectlBin:           "kubectl",
	}

	// 1) flags
	fAddr := strFlag{v: cfg.Addr}
	fInterval := intFlag{v: cfg.ScrapeInterval}
	fURL := strFlag{v: cfg.APIURL}
	fToken := strFlag{v: cfg.APIToken}
	fWorld := strFlag{v: cfg.WorldFilePath}
	fLimit := intFlag{v: cfg.ChestItemSeriesLimit}
	fMax := floatFlag{v: cfg.DefaultMaxPlayers}
	fTracker := boolFlag{v: cfg.LogPlayerTracker}
	fLogSource := strFlag{v: cfg.LogSource}
	fTrusted := strFlag{v: cfg.TrustedSubnet}
	var fConf strFlag // -c / -config

	fs.Var(&fAddr, "a", "HTTP server address")
	fs.Var(&fInterval, "i", "scrape interval (seconds)")
	fs.Var(&fURL, "api", "gameplay API base URL")
	fs.Var(&fToken, "token", "gameplay API token")
	fs.Var(&fWorld, "w", "path to the .wld world file")
	fs.Var(&fLimit, "l", "max chest item series")
	fs.Var(&fMax, "m", "default max players")
	fs.Var(&fTracker, "log-tracker", "derive players and world flags from the server log")
	fs.Var(&fLogSource, "log-source", "kube, kubectl, file or none")
	fs.Var(&fTrusted, "t", "trusted subnet")
	fs.Var(&fConf, "c", "Path to JSON config file")
	fs.Var(&fConf, "config", "Path to JSON config file (alias)")
	_ = fs.Parse(args)

	cfg.Addr = fAddr.v
	cfg.ScrapeInterval = fInterval.v
	cfg.APIURL = fURL.v
	cfg.APIToken = fToken.v
	cfg.WorldFilePath = fWorld.v
	cfg.ChestItemSeriesLimit = fLimit.v
	cfg.DefaultMaxPlayers = fMax.v
	cfg.LogPlayerTracker = fTracker.v
	cfg.LogSource = fLogSource.v
	cfg.TrustedSubnet = fTrusted.v

	// 2) JSON (lowest priority)
	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	if fConf.v != "" {
		js, err := loadExporterJSON(fConf.v)
		if err != nil {
			logger.Warnf("config file %s: %v", fConf.v, err)
		} else {
			applyExporterJSON(cfg, js, exporterFlagsSet{
				addr:     fAddr.set,
				interval: fInterval.set,
				url:      fURL.set,
				token:    fToken.set,
				world:    fWorld.set,
				limit:    fLimit.set,
				max:      fMax.set,
				tracker:  fTracker.set,
				source:   fLogSource.set,
				trusted:  fTrusted.set,
			})
		}
	}

	// 3) environment
	readExporterEnvironment(cfg, env{logger: logger})

	if cfg.ScrapeInterval <= 0 {
		logger.Warnf("scrape interval %ds is not positive, using 15s", cfg.ScrapeInterval)
		cfg.ScrapeInterval = 15
	}
	cfg.Logger = logger
	return cfg
}

type exporterFlagsSet struct {
	addr, interval, url, token, world, limit, max, tracker, source, trusted bool
}

func applyExporterJSON(cfg *ExporterConfig, js *exporterJSON, set exporterFlagsSet) {
	if js.Address != nil && !set.addr {
		cfg.Addr = *js.Address
	}
	if js.ScrapeInterval != nil && !set.interval {
		if sec, err := parseDurationSeconds(*js.ScrapeInterval); err == nil && sec > 0 {
			cfg.ScrapeInterval = sec
		}
	}
	if js.APIURL != nil && !set.url {
		cfg.APIURL = *js.APIURL
	}
	if js.APIToken != nil && !set.token {
		cfg.APIToken = *js.APIToken
	}
	if js.APITokenMode != nil {
		cfg.APITokenMode = *js.APITokenMode
	}
	if js.APITimeout != nil {
		if sec, err := parseDurationSeconds(*js.APITimeout); err == nil && sec > 0 {
			cfg.APITimeout = sec
		}
	}
	if js.WorldFilePath != nil && !set.world {
		cfg.WorldFilePath = *js.WorldFilePath
	}
	if js.ServerConfigPath != nil {
		cfg.ServerConfigPath = *js.ServerConfigPath
	}
	if js.TShockConfigPath != nil {
		cfg.TShockConfigPath = *js.TShockConfigPath
	}
	if js.ChestItemSeriesLimit != nil && !set.limit {
		cfg.ChestItemSeriesLimit = *js.ChestItemSeriesLimit
	}
	if js.DefaultMaxPlayers != nil && !set.max {
		cfg.DefaultMaxPlayers = *js.DefaultMaxPlayers
	}
	if js.LogPlayerTracker != nil && !set.tracker {
		cfg.LogPlayerTracker = *js.LogPlayerTracker
	}
	if js.LogSource != nil && !set.source {
		cfg.LogSource = *js.LogSource
	}
	if js.LogFilePath != nil {
		cfg.LogFilePath = *js.LogFilePath
	}
	if js.K8sNamespace != nil {
		cfg.K8sNamespace = *js.K8sNamespace
	}
	if js.K8sLabelSelector != nil {
		cfg.K8sLabelSelector = *js.K8sLabelSelector
	}
	if js.K8sContainer != nil {
		cfg.K8sContainer = *js.K8sContainer
	}
	if js.K8sLogTailLines != nil {
		cfg.K8sLogTailLines = *js.K8sLogTailLines
	}
	if js.TrustedSubnet != nil && !set.trusted {
		cfg.TrustedSubnet = *js.TrustedSubnet
	}
}

func readExporterEnvironment(cfg *ExporterConfig, e env) {
	var port int
	e.int("EXPORTER_PORT", &port)
	if port > 0 {
		cfg.Addr = ":" + strconv.Itoa(port)
	}
	e.str("ADDRESS", &cfg.Addr)
	e.str("LOG_FILE", &cfg.LogFile)

	e.int("SCRAPE_INTERVAL", &cfg.ScrapeInterval)

	e.str("TERRARIA_API_URL", &cfg.APIURL)
	e.str("TERRARIA_API_TOKEN", &cfg.APIToken)
	e.str("API_TOKEN_MODE", &cfg.APITokenMode)
	e.int("API_TIMEOUT", &cfg.APITimeout)

	e.str("WORLD_FILE_PATH", &cfg.WorldFilePath)
	e.str("SERVER_CONFIG_PATH", &cfg.ServerConfigPath)
	e.str("TSHOCK_CONFIG_PATH", &cfg.TShockConfigPath)
	e.int("CHEST_ITEM_SERIES_LIMIT", &cfg.ChestItemSeriesLimit)
	e.float("DEFAULT_MAX_PLAYERS", &cfg.DefaultMaxPlayers)

	e.bool("ENABLE_LOG_PLAYER_TRACKER", &cfg.LogPlayerTracker)
	e.str("LOG_SOURCE", &cfg.LogSource)
	e.str("LOG_FILE_PATH", &cfg.LogFilePath)
	e.str("KUBERNETES_SERVICE_HOST", &cfg.K8sHost)
	e.int("KUBERNETES_SERVICE_PORT", &cfg.K8sPort)
	e.str("K8S_NAMESPACE", &cfg.K8sNamespace)
	e.str("K8S_TERRARIA_LABEL_SELECTOR", &cfg.K8sLabelSelector)
	e.str("K8S_TERRARIA_CONTAINER", &cfg.K8sContainer)
	e.str("K8S_TERRARIA_DEPLOYMENT", &cfg.K8sDeployment)
	e.int("K8S_LOG_TAIL_LINES", &cfg.K8sLogTailLines)
	e.str("KUBECTL_BIN", &cfg.KubectlBin)

	e.str("TRUSTED_SUBNET", &cfg.TrustedSubnet)
}
