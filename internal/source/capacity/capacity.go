// Package capacity reads the configured player limit from the server's
// config files. Both readers return nil when the file or the key is missing,
// so the caller falls through to the next candidate.
package capacity

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/and161185/terraria-exporter/internal/utils"
)

// DefaultMaxPlayers is used when no source reports a limit.
const DefaultMaxPlayers = 8

// ReadServerConfig returns the maxplayers= value of a serverconfig.txt.
func ReadServerConfig(path string) (*float64, error) {
	data, err := readOptional(path)
	if data == nil || err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "maxplayers") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("parse maxplayers in %s: %w", path, err)
		}
		return utils.F64Ptr(float64(n)), nil
	}
	return nil, sc.Err()
}

type tshockConfig struct {
	Settings struct {
		MaxSlots *float64 `json:"MaxSlots"`
	} `json:"Settings"`
}

// ReadTShockConfig returns Settings.MaxSlots of a TShock config.json.
func ReadTShockConfig(path string) (*float64, error) {
	data, err := readOptional(path)
	if data == nil || err != nil {
		return nil, err
	}

	var cfg tshockConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.Settings.MaxSlots, nil
}

// readOptional reads a regular file; a missing path yields nil, nil.
func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, nil
	}
	return os.ReadFile(path)
}
