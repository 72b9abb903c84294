package admin

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// The UI posts loosely typed forms: numbers may arrive as strings and flags
// as either booleans or strings. These types accept both.

type flexString struct {
	v   string
	set bool
}

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.v, f.set = s, true
		return nil
	}
	f.v, f.set = string(b), true
	return nil
}

func (f flexString) or(def string) string {
	if !f.set {
		return def
	}
	return f.v
}

type flexInt struct {
	v  int
	ok bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.v, f.ok = int(n), true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			f.v, f.ok = v, true
		}
	}
	return nil
}

func (f flexInt) or(def int) int {
	if !f.ok {
		return def
	}
	return f.v
}

type flexBool struct {
	v   bool
	set bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		f.v, f.set = v, true
		return nil
	}
	var s flexString
	_ = s.UnmarshalJSON(b)
	if s.set {
		f.set = true
		switch strings.ToLower(strings.TrimSpace(s.v)) {
		case "1", "true", "yes", "on":
			f.v = true
		}
	}
	return nil
}

func (f flexBool) or(def bool) bool {
	if !f.set {
		return def
	}
	return f.v
}

// stringList keeps the string members of a JSON array; anything else is empty.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*l = nil
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// WorldRequest is the body of POST /api/create-world.
type WorldRequest struct {
	WorldName       flexString `json:"world_name"`
	WorldSize       flexString `json:"world_size"`
	Difficulty      flexString `json:"difficulty"`
	WorldEvil       flexString `json:"world_evil"`
	MaxPlayers      flexInt    `json:"max_players"`
	ServerPort      flexInt    `json:"server_port"`
	Seed            flexString `json:"seed"`
	SpecialSeedIDs  stringList `json:"special_seed_ids"`
	ExtraCreateArgs flexString `json:"extra_create_args"`
}

// ActionRequest is the body of POST /api/server-action.
type ActionRequest struct {
	Action    flexString `json:"action"`
	WorldName flexString `json:"world_name"`
	Restart   flexBool   `json:"restart"`
}
