package admin

import (
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultWorldName  = "test.wld"
	defaultMaxPlayers = 8
	defaultServerPort = 7777
	worldScript       = "scripts/upload-world.sh"
)

var (
	worldSizes   = []string{"small", "medium", "large"}
	difficulties = []string{"classic", "expert", "master", "journey"}
	worldEvils   = []string{"random", "corruption", "crimson"}
)

// WorldMeta is the sanitised form of a WorldRequest.
type WorldMeta struct {
	WorldName       string `json:"world_name"`
	WorldSize       string `json:"world_size"`
	Difficulty      string `json:"difficulty"`
	WorldEvil       string `json:"world_evil"`
	MaxPlayers      int    `json:"max_players"`
	ServerPort      int    `json:"server_port"`
	ResolvedSeed    string `json:"resolved_seed"`
	SeedMode        string `json:"seed_mode"`
	ExtraCreateArgs string `json:"extra_create_args"`
}

func sanitizeChoice(value string, allowed []string, def string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return def
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// withWorldSuffix appends ".wld" when missing.
func withWorldSuffix(name string) string {
	if !strings.HasSuffix(name, ".wld") {
		name += ".wld"
	}
	return name
}

func extraCreateArgs(worldEvil, extra string) string {
	var chunks []string
	if worldEvil == "corruption" || worldEvil == "crimson" {
		chunks = append(chunks, "-worldevil "+worldEvil)
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		chunks = append(chunks, extra)
	}
	return strings.Join(chunks, " ")
}

// BuildWorldCommand turns a request into the upload script invocation under
// repoRoot. Unknown choices fall back to their defaults and numbers are
// clamped, so any request yields a runnable command.
func BuildWorldCommand(repoRoot string, req WorldRequest) ([]string, WorldMeta) {
	name := strings.TrimSpace(req.WorldName.or(defaultWorldName))
	if name == "" {
		name = defaultWorldName
	}

	meta := WorldMeta{
		WorldName:  withWorldSuffix(name),
		WorldSize:  sanitizeChoice(strings.ToLower(req.WorldSize.or("medium")), worldSizes, "medium"),
		Difficulty: sanitizeChoice(strings.ToLower(req.Difficulty.or("classic")), difficulties, "classic"),
		WorldEvil:  sanitizeChoice(strings.ToLower(req.WorldEvil.or("random")), worldEvils, "random"),
		MaxPlayers: clamp(req.MaxPlayers.or(defaultMaxPlayers), 1, 255),
		ServerPort: clamp(req.ServerPort.or(defaultServerPort), 1, 65535),
	}
	meta.ResolvedSeed, meta.SeedMode = ResolveSeed(req.Seed.or(""), req.SpecialSeedIDs)
	meta.ExtraCreateArgs = extraCreateArgs(meta.WorldEvil, req.ExtraCreateArgs.or(""))

	cmd := []string{
		"bash", filepath.Join(repoRoot, worldScript),
		"--world-name", meta.WorldName,
		"--world-size", meta.WorldSize,
		"--max-players", strconv.Itoa(meta.MaxPlayers),
		"--difficulty", meta.Difficulty,
		"--server-port", strconv.Itoa(meta.ServerPort),
	}
	if meta.ResolvedSeed != "" {
		cmd = append(cmd, "--seed", meta.ResolvedSeed)
	}
	if meta.ExtraCreateArgs != "" {
		cmd = append(cmd, "--extra-create-args", meta.ExtraCreateArgs)
	}
	return cmd, meta
}
