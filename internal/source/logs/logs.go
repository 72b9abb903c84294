// Package logs tails the game server log and derives world signals and the
// online roster from it. The log is the lowest-precedence source; its values
// only fill fields the API and the world snapshot left unset.
package logs

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/and161185/terraria-exporter/model"
)

// Chunk is the tail of the log of one server process.
type Chunk struct {
	Pod  string // origin, empty for local files
	Text []byte
}

// Source fetches the last lines of the server log.
type Source interface {
	Tail(ctx context.Context, lines int) (Chunk, error)
}

// Result is what the log window contributed to one cycle.
type Result struct {
	OK  bool
	Err error
	Pod string

	PlayersOnline float64
	Players       []string // sorted display names

	BloodMoon model.Tri
	Eclipse   model.Tri
	Daytime   model.Tri

	ConnectionAttempts float64
	WorldSaves         float64
}

const defaultTimeout = 6 * time.Second

// Adapter runs a Source with a bounded wait and analyses what it returns.
type Adapter struct {
	src     Source
	lines   int
	timeout time.Duration
}

// NewAdapter builds an adapter. A nil source makes every collection fail.
func NewAdapter(src Source, lines int, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{src: src, lines: lines, timeout: timeout}
}

// Collect tails the log and analyses it. Faults end up in Result.Err.
func (a *Adapter) Collect(ctx context.Context) Result {
	if a == nil || a.src == nil {
		return Result{}
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	chunk, err := a.src.Tail(ctx, a.lines)
	if err != nil {
		return Result{Err: err, Pod: chunk.Pod}
	}
	res := Analyze(chunk.Text)
	res.Pod = chunk.Pod
	return res
}

var (
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

	joinPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([A-Za-z0-9_ ]{2,32}) has joined`),
		regexp.MustCompile(`(?i)([A-Za-z0-9_ ]{2,32}) joined the game`),
	}
	leavePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([A-Za-z0-9_ ]{2,32}) has left`),
		regexp.MustCompile(`(?i)([A-Za-z0-9_ ]{2,32}) left the game`),
	}
	connectionPattern = regexp.MustCompile(`(?i)(?:\d{1,3}\.){3}\d{1,3}:\d+\s+is connecting`)
)

const maxPlayerName = 32

// StripANSI removes color escape sequences and surrounding whitespace.
func StripANSI(line string) string {
	return strings.TrimSpace(ansiPattern.ReplaceAllString(line, ""))
}

// Signals is what one log line says.
type Signals struct {
	Connection bool
	WorldSave  bool
	Joined     string
	Left       string
	BloodMoon  model.Tri
	Eclipse    model.Tri
	Daytime    model.Tri
}

// Classify matches a clean log line against the known phrases.
func Classify(line string) Signals {
	lowered := strings.ToLower(line)
	s := Signals{
		Connection: connectionPattern.MatchString(line),
		WorldSave:  strings.Contains(lowered, "backing up world file"),
		Joined:     capturePlayer(joinPatterns, line),
		Left:       capturePlayer(leavePatterns, line),
	}

	switch {
	case strings.Contains(lowered, "blood moon is rising"):
		s.BloodMoon = model.True
	case strings.Contains(lowered, "blood moon is over"), strings.Contains(lowered, "blood moon has ended"):
		s.BloodMoon = model.False
	}

	switch {
	case strings.Contains(lowered, "solar eclipse is happening"), strings.Contains(lowered, "eclipse has begun"):
		s.Eclipse = model.True
	case strings.Contains(lowered, "solar eclipse has ended"), strings.Contains(lowered, "eclipse is over"):
		s.Eclipse = model.False
	}

	switch {
	case strings.Contains(lowered, "night has fallen"):
		s.Daytime = model.False
	case strings.Contains(lowered, "day has dawned"):
		s.Daytime = model.True
	}
	return s
}

// capturePlayer returns the first player name a pattern captures. Brackets
// and quotes around the name go, and so does anything up to the last ']' or
// ':' (chat timestamps).
func capturePlayer(patterns []*regexp.Regexp, line string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.Trim(m[1], ` <>[]()"'`)
		if i := strings.LastIndex(name, "]"); i >= 0 {
			name = strings.TrimSpace(name[i+1:])
		}
		if i := strings.LastIndex(name, ":"); i >= 0 {
			name = strings.TrimSpace(name[i+1:])
		}
		if name == "" {
			continue
		}
		if len(name) > maxPlayerName {
			name = name[:maxPlayerName]
		}
		return name
	}
	return ""
}

// Analyze classifies every line of a log window. Event flags follow the last
// line that mentions them; the roster replays joins and leaves in order.
func Analyze(text []byte) Result {
	res := Result{}
	presence := NewPresence()
	decoded := 0

	for _, raw := range bytes.Split(text, []byte("\n")) {
		raw = bytes.TrimRight(raw, "\r")
		if len(bytes.TrimSpace(raw)) == 0 || !utf8.Valid(raw) {
			continue
		}
		decoded++

		line := StripANSI(string(raw))
		if line == "" {
			continue
		}
		s := Classify(line)
		if s.Connection {
			res.ConnectionAttempts++
		}
		if s.WorldSave {
			res.WorldSaves++
		}
		if s.Joined != "" {
			presence.Join(s.Joined)
		}
		if s.Left != "" {
			presence.Leave(s.Left)
		}
		if s.BloodMoon.Known() {
			res.BloodMoon = s.BloodMoon
		}
		if s.Eclipse.Known() {
			res.Eclipse = s.Eclipse
		}
		if s.Daytime.Known() {
			res.Daytime = s.Daytime
		}
	}

	res.OK = len(bytes.TrimSpace(text)) == 0 || decoded > 0
	if !res.OK {
		return Result{}
	}
	res.PlayersOnline = float64(presence.Count())
	res.Players = presence.Names()
	return res
}
