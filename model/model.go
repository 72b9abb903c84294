// Package model contains core data types for the project.
package model

import (
	"sort"
	"strings"
)

// Tri is a boolean that can also be unknown because no source reported it.
type Tri int8

const (
	Unknown Tri = iota // Unknown means no source reported the field.
	False              // False is an observed false.
	True               // True is an observed true.
)

// TriOf converts an observed bool.
func TriOf(b bool) Tri {
	if b {
		return True
	}
	return False
}

// Known reports whether the value was observed.
func (t Tri) Known() bool { return t != Unknown }

// Bool returns the observed value; Unknown reads as false.
func (t Tri) Bool() bool { return t == True }

func (t Tri) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// ItemStack is an item name with its quantity.
type ItemStack struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// PlayerRecord is a single online player as reported by a source.
type PlayerRecord struct {
	Name      string      `json:"name"`             // Display name, case preserved.
	Health    *float64    `json:"health,omitempty"` // nil when the source did not report it.
	Mana      *float64    `json:"mana,omitempty"`
	Deaths    *float64    `json:"deaths,omitempty"`
	Inventory []ItemStack `json:"inventory,omitempty"`
}

// Key returns the case-folded identity of the player.
func (p PlayerRecord) Key() string { return strings.ToLower(p.Name) }

// WorldState holds runtime world flags.
type WorldState struct {
	Daytime   Tri      `json:"daytime"`
	BloodMoon Tri      `json:"blood_moon"`
	Eclipse   Tri      `json:"eclipse"`
	Hardmode  Tri      `json:"hardmode"`
	Time      *float64 `json:"time,omitempty"`
	Sourced   bool     `json:"sourced"` // any runtime field observed this cycle
}

// ChestRecord is one container and its contents.
type ChestRecord struct {
	ID    string      `json:"id"`
	Items []ItemStack `json:"items"`
}

// ChestItem is one (chest, item) pair selected for per-chest series.
type ChestItem struct {
	Chest    string  `json:"chest"`
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
}

// NameCount is a labelled count, e.g. active monsters by name.
type NameCount struct {
	Name  string  `json:"name"`
	Count float64 `json:"count"`
}

// ServerSnapshot is the reconciled state of one poll cycle.
type ServerSnapshot struct {
	SourceUp          bool `json:"source_up"`
	ParserUp          bool `json:"parser_up"`
	ParserUnsupported bool `json:"parser_unsupported"`
	RuntimeUp         bool `json:"runtime_up"`
	LogTrackerUp      bool `json:"log_tracker_up"`

	PlayersOnline    *float64 `json:"players_online,omitempty"`
	PlayersOnlineAPI *float64 `json:"players_online_api,omitempty"`
	PlayersOnlineLog *float64 `json:"players_online_log,omitempty"`
	PlayersMax       float64  `json:"players_max"`

	Players     []PlayerRecord `json:"players,omitempty"`
	OnlineNames []string       `json:"online_names,omitempty"` // log-derived
	World       WorldState     `json:"world"`
	Monsters    []NameCount    `json:"monsters,omitempty"`

	SnapshotMTime *float64 `json:"snapshot_mtime,omitempty"`
	SnapshotAge   *float64 `json:"snapshot_age,omitempty"`

	ChestsTotal     *float64    `json:"chests_total,omitempty"`
	ChestItems      []ChestItem `json:"chest_items,omitempty"`
	ChestItemTotals []NameCount `json:"chest_item_totals,omitempty"`
	HousesTotal     *float64    `json:"houses_total,omitempty"`
	HousedNPCsTotal *float64    `json:"housed_npcs_total,omitempty"`
	HousedNPCs      []string    `json:"housed_npcs,omitempty"`

	LogConnectionAttempts float64 `json:"log_connection_attempts"`
	LogWorldSaves         float64 `json:"log_world_saves"`
}

// Sample is one time-series value of a MetricSet.
type Sample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// ID returns the series identity: name{k="v",...} with sorted label keys.
func (s Sample) ID() string {
	if len(s.Labels) == 0 {
		return s.Name
	}
	keys := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(s.Labels[k])
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

// MetricSet is the full output of one poll cycle.
type MetricSet []Sample

// Sort orders samples by series ID.
func (ms MetricSet) Sort() {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].ID() < ms[j].ID() })
}

// Lookup returns the sample with the given series ID.
func (ms MetricSet) Lookup(id string) (Sample, bool) {
	for _, s := range ms {
		if s.ID() == id {
			return s, true
		}
	}
	return Sample{}, false
}
