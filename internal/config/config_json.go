package config

import (
	"os"
	"time"

	"github.com/goccy/go-json"
)

type exporterJSON struct {
	Address              *string  `json:"address"`
	ScrapeInterval       *string  `json:"scrape_interval"` // "15s"
	APIURL               *string  `json:"api_url"`
	APIToken             *string  `json:"api_token"`
	APITokenMode         *string  `json:"api_token_mode"`
	APITimeout           *string  `json:"api_timeout"` // "6s"
	WorldFilePath        *string  `json:"world_file_path"`
	ServerConfigPath     *string  `json:"server_config_path"`
	TShockConfigPath     *string  `json:"tshock_config_path"`
	ChestItemSeriesLimit *int     `json:"chest_item_series_limit"`
	DefaultMaxPlayers    *float64 `json:"default_max_players"`
	LogPlayerTracker     *bool    `json:"log_player_tracker"`
	LogSource            *string  `json:"log_source"`
	LogFilePath          *string  `json:"log_file_path"`
	K8sNamespace         *string  `json:"k8s_namespace"`
	K8sLabelSelector     *string  `json:"k8s_label_selector"`
	K8sContainer         *string  `json:"k8s_container"`
	K8sLogTailLines      *int     `json:"k8s_log_tail_lines"`
	TrustedSubnet        *string  `json:"trusted_subnet"`
}

type worldUIJSON struct {
	Address        *string  `json:"address"`
	Namespace      *string  `json:"namespace"`
	Deployment     *string  `json:"deployment"`
	Service        *string  `json:"service"`
	AppLabel       *string  `json:"app_label"`
	ConfigClaim    *string  `json:"pvc_name"`
	ManagerImage   *string  `json:"manager_image"`
	PrometheusURLs []string `json:"prometheus_urls"`
	StaticDir      *string  `json:"static_dir"`
	RepoRoot       *string  `json:"repo_root"`
	TrustedSubnet  *string  `json:"trusted_subnet"`
	KubectlBin     *string  `json:"kubectl_bin"`
}

func loadExporterJSON(path string) (*exporterJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg exporterJSON
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadWorldUIJSON(path string) (*worldUIJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c worldUIJSON
	return &c, json.Unmarshal(b, &c)
}

func parseDurationSeconds(s string) (int, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return int(d / time.Second), nil
}
