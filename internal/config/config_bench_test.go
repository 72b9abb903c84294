package config

import (
	"os"
	"testing"

	"go.uber.org/zap"
)

func BenchmarkReadExporterEnvironment(b *testing.B) {
	_ = os.Setenv("SCRAPE_INTERVAL", "5")
	_ = os.Setenv("TERRARIA_API_URL", "http://127.0.0.1:7878")
	_ = os.Setenv("ENABLE_LOG_PLAYER_TRACKER", "true")
	e := env{logger: zap.NewNop().Sugar()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := &ExporterConfig{}
		readExporterEnvironment(cfg, e)
	}
}

func BenchmarkReadWorldUIEnvironment(b *testing.B) {
	_ = os.Setenv("WORLD_UI_NAMESPACE", "terraria")
	_ = os.Setenv("PROMETHEUS_URLS", "http://a:9090,http://b:9090")
	e := env{logger: zap.NewNop().Sugar()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := &WorldUIConfig{}
		readWorldUIEnvironment(cfg, e)
	}
}
