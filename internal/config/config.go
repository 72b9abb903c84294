// Package config provides application configuration structures and helpers.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// loadDotEnv fills the environment from a .env file. Variables that are
// already set win; a missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func newLogger(logFile string) *zap.SugaredLogger {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout"}
	if logFile != "" {
		logCfg.OutputPaths = append(logCfg.OutputPaths, logFile)
	}
	return zap.Must(logCfg.Build()).Sugar()
}

// env reads typed environment variables. Invalid values are logged and the
// current value is kept.
type env struct {
	logger *zap.SugaredLogger
}

func (e env) str(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (e env) int(key string, dst *int) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		e.logger.Warnf("invalid %s env var: %v", key, err)
		return
	}
	*dst = v
}

func (e env) float(key string, dst *float64) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		e.logger.Warnf("invalid %s env var: %v", key, err)
		return
	}
	*dst = v
}

// bool accepts 1/0, true/false, yes/no and on/off.
func (e env) bool(key string, dst *bool) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "":
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		e.logger.Warnf("invalid %s env var: %q", key, raw)
	}
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
