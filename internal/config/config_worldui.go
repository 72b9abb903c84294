package config

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DefaultPrometheusURLs are queried in order when PROMETHEUS_URLS is unset.
var DefaultPrometheusURLs = []string{
	"http://kube-prom-stack-kube-prome-prometheus.monitoring.svc.cluster.local:9090",
	"http://localhost:30090",
}

// WorldUIConfig holds the configuration settings for the world admin UI.
type WorldUIConfig struct {
	Addr           string // Server address
	Logger         *zap.SugaredLogger
	LogFile        string
	Namespace      string
	Deployment     string
	Service        string
	AppLabel       string
	ConfigClaim    string // PVC with the world files, mounted by the listing helper pod
	ManagerImage   string // Image of the listing helper pod
	PrometheusURLs []string // Tried in order
	StaticDir      string
	RepoRoot       string // Holds scripts/upload-world.sh
	TrustedSubnet  string // CIDR allowed to POST, empty allows all
	KubectlBin     string
}

// NewWorldUIConfig creates and returns a new WorldUIConfig by parsing flags and environment variables.
func NewWorldUIConfig() *WorldUIConfig {
	return newWorldUIConfig(flag.CommandLine, os.Args[1:])
}

func newWorldUIConfig(fs *flag.FlagSet, args []string) *WorldUIConfig {
	_ = loadDotEnv(".env")
	logger := newLogger(os.Getenv("LOG_FILE"))

	cfg := &WorldUIConfig{
		Addr:           "127.0.0.1:8787",
		Namespace:      "terraria",
		Deployment:     "terraria-server",
		Service:        "terraria-service",
		AppLabel:       "terraria-server",
		ConfigClaim:    "terraria-config",
		ManagerImage:   "ghcr.io/beardedio/terraria:latest",
		PrometheusURLs: DefaultPrometheusURLs,
		StaticDir:      "static",
		RepoRoot:       ".",
		KubectlBin:     "kubectl",
	}

	fAddr := strFlag{v: cfg.Addr}
	fStatic := strFlag{v: cfg.StaticDir}
	fRepo := strFlag{v: cfg.RepoRoot}
	fTrusted := strFlag{v: cfg.TrustedSubnet}
	var fConf strFlag

	fs.Var(&fAddr, "a", "HTTP server address")
	fs.Var(&fStatic, "s", "static files directory")
	fs.Var(&fRepo, "r", "repository root with scripts/")
	fs.Var(&fTrusted, "t", "trusted subnet")
	fs.Var(&fConf, "c", "Path to JSON config file")
	fs.Var(&fConf, "config", "Path to JSON config file (alias)")
	_ = fs.Parse(args)

	cfg.Addr = fAddr.v
	cfg.StaticDir = fStatic.v
	cfg.RepoRoot = fRepo.v
	cfg.TrustedSubnet = fTrusted.v

	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	if fConf.v != "" {
		if js, err := loadWorldUIJSON(fConf.v); err != nil {
			logger.Warnf("config file %s: %v", fConf.v, err)
		} else {
			if js.Address != nil && !fAddr.set {
				cfg.Addr = *js.Address
			}
			if js.Namespace != nil {
				cfg.Namespace = *js.Namespace
			}
			if js.Deployment != nil {
				cfg.Deployment = *js.Deployment
			}
			if js.Service != nil {
				cfg.Service = *js.Service
			}
			if js.AppLabel != nil {
				cfg.AppLabel = *js.AppLabel
			}
			if js.ConfigClaim != nil {
				cfg.ConfigClaim = *js.ConfigClaim
			}
			if js.ManagerImage != nil {
				cfg.ManagerImage = *js.ManagerImage
			}
			if len(js.PrometheusURLs) > 0 {
				cfg.PrometheusURLs = js.PrometheusURLs
			}
			if js.StaticDir != nil && !fStatic.set {
				cfg.StaticDir = *js.StaticDir
			}
			if js.RepoRoot != nil && !fRepo.set {
				cfg.RepoRoot = *js.RepoRoot
			}
			if js.TrustedSubnet != nil && !fTrusted.set {
				cfg.TrustedSubnet = *js.TrustedSubnet
			}
			if js.KubectlBin != nil {
				cfg.KubectlBin = *js.KubectlBin
			}
		}
	}

	readWorldUIEnvironment(cfg, env{logger: logger})

	cfg.Logger = logger
	return cfg
}

func readWorldUIEnvironment(cfg *WorldUIConfig, e env) {
	e.str("ADDRESS", &cfg.Addr)
	e.str("LOG_FILE", &cfg.LogFile)
	e.str("WORLD_UI_NAMESPACE", &cfg.Namespace)
	e.str("WORLD_UI_DEPLOYMENT", &cfg.Deployment)
	e.str("WORLD_UI_SERVICE", &cfg.Service)
	e.str("WORLD_UI_APP_LABEL", &cfg.AppLabel)
	e.str("WORLD_UI_PVC_NAME", &cfg.ConfigClaim)
	e.str("WORLD_UI_MANAGER_IMAGE", &cfg.ManagerImage)
	if urls := splitList(os.Getenv("PROMETHEUS_URLS")); len(urls) > 0 {
		for i, u := range urls {
			urls[i] = strings.TrimRight(u, "/")
		}
		cfg.PrometheusURLs = urls
	}
	e.str("STATIC_DIR", &cfg.StaticDir)
	e.str("REPO_ROOT", &cfg.RepoRoot)
	e.str("TRUSTED_SUBNET", &cfg.TrustedSubnet)
	e.str("KUBECTL_BIN", &cfg.KubectlBin)
}
