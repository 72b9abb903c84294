// Package buildinfo reports the version stamped in with -ldflags -X.
package buildinfo

import "go.uber.org/zap"

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// LogBuildInfo logs the build stamp of the running binary.
func LogBuildInfo(logger *zap.SugaredLogger, binary string) {
	logger.Infow("build info",
		"binary", binary,
		"version", orNA(BuildVersion),
		"date", orNA(BuildDate),
		"commit", orNA(BuildCommit),
	)
}
