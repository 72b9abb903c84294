// Package reconcile merges what the API, the world snapshot and the server
// log reported in one cycle into a single ServerSnapshot.
//
// Per field the API wins over the snapshot, which wins over the log. The log
// may only fill the online count, the runtime world flags and its own window
// counters, and it never touches runtime flags once the API reported any.
package reconcile

import (
	"sort"

	"github.com/and161185/terraria-exporter/internal/source/api"
	"github.com/and161185/terraria-exporter/internal/source/logs"
	"github.com/and161185/terraria-exporter/internal/source/snapshot"
	"github.com/and161185/terraria-exporter/internal/utils"
	"github.com/and161185/terraria-exporter/model"
)

// DefaultChestSeriesLimit caps per-chest item series.
const DefaultChestSeriesLimit = 500

// Capacity holds the player-limit candidates read from config files.
type Capacity struct {
	ServerConfig *float64 // serverconfig.txt maxplayers
	AdminConfig  *float64 // admin plugin MaxSlots
	Default      float64
}

// Inputs are the adapter results of one cycle.
type Inputs struct {
	API      api.Result
	Snapshot snapshot.Result
	Logs     logs.Result
	Capacity Capacity
}

// Options tunes the output.
type Options struct {
	ChestSeriesLimit int
}

// Reconcile builds the snapshot of one cycle. It is a pure function of its inputs.
func Reconcile(in Inputs, opts Options) model.ServerSnapshot {
	a, s, l := in.API, in.Snapshot, in.Logs

	out := model.ServerSnapshot{
		SourceUp:          a.Up,
		ParserUp:          s.ParserUp(),
		ParserUnsupported: s.Outcome == snapshot.Unsupported,
		LogTrackerUp:      l.OK,
		SnapshotMTime:     s.MTime,
		SnapshotAge:       s.Age,
		Players:           a.Players,
		Monsters:          a.Monsters,
	}

	// Players.
	out.PlayersOnlineAPI = a.PlayersOnline
	out.PlayersOnline = a.PlayersOnline
	if l.OK {
		out.PlayersOnlineLog = utils.F64Ptr(l.PlayersOnline)
		out.OnlineNames = l.Players
		if out.PlayersOnline == nil {
			out.PlayersOnline = out.PlayersOnlineLog
		}
	}
	out.PlayersMax = playersMax(a.PlayersMax, in.Capacity)

	// World runtime state.
	out.World = a.World
	out.RuntimeUp = a.RuntimeUp
	if !out.World.Hardmode.Known() && s.ParserUp() {
		out.World.Hardmode = s.Hardmode
	}
	if l.OK && !a.RuntimeUp {
		for _, f := range []struct {
			dst *model.Tri
			src model.Tri
		}{
			{&out.World.BloodMoon, l.BloodMoon},
			{&out.World.Eclipse, l.Eclipse},
			{&out.World.Daytime, l.Daytime},
		} {
			if f.src.Known() {
				*f.dst = f.src
				out.RuntimeUp = true
			}
		}
		if l.ConnectionAttempts > 0 || l.WorldSaves > 0 {
			out.RuntimeUp = true
		}
	}
	out.World.Sourced = out.RuntimeUp

	if l.OK {
		out.LogConnectionAttempts = l.ConnectionAttempts
		out.LogWorldSaves = l.WorldSaves
	}

	// Chests.
	limit := opts.ChestSeriesLimit
	switch {
	case len(a.Chests) > 0:
		out.ChestItems, out.ChestItemTotals = RankChestItems(a.Chests, limit)
	case s.ParserUp():
		out.ChestItems, out.ChestItemTotals = RankChestItems(s.Chests, limit)
	}
	out.ChestsTotal = firstSet(a.ChestsTotal, snapshotValue(s, s.ChestsTotal))

	// Housing.
	out.HousesTotal = firstSet(a.HousesTotal, snapshotValue(s, s.HousesTotal))
	switch {
	case len(a.HousedNPCs) > 0:
		out.HousedNPCs = a.HousedNPCs
		out.HousedNPCsTotal = firstSet(a.HousedNPCsTotal, utils.F64Ptr(float64(len(a.HousedNPCs))))
	case a.HousedNPCsTotal != nil:
		out.HousedNPCsTotal = a.HousedNPCsTotal
	case s.ParserUp():
		out.HousedNPCs = s.HousedNPCs
		out.HousedNPCsTotal = utils.F64Ptr(float64(len(s.HousedNPCs)))
	}

	return out
}

func playersMax(fromAPI *float64, c Capacity) float64 {
	if v := firstSet(fromAPI, c.ServerConfig, c.AdminConfig); v != nil {
		return *v
	}
	return c.Default
}

func firstSet(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

func snapshotValue(s snapshot.Result, v *float64) *float64 {
	if !s.ParserUp() {
		return nil
	}
	return v
}

// RankChestItems picks the limit largest (chest, item) quantities, ties in
// encounter order, and totals every item over all chests. Stacks of the same
// item in one chest are summed first.
func RankChestItems(chests []model.ChestRecord, limit int) ([]model.ChestItem, []model.NameCount) {
	type key struct{ chest, item string }
	var (
		pairs    []model.ChestItem
		pairIdx  = make(map[key]int)
		totals   []model.NameCount
		totalIdx = make(map[string]int)
	)
	for _, c := range chests {
		for _, it := range c.Items {
			if it.Quantity <= 0 {
				continue
			}
			k := key{c.ID, it.Name}
			if i, ok := pairIdx[k]; ok {
				pairs[i].Quantity += it.Quantity
			} else {
				pairIdx[k] = len(pairs)
				pairs = append(pairs, model.ChestItem{Chest: c.ID, Item: it.Name, Quantity: it.Quantity})
			}
			if i, ok := totalIdx[it.Name]; ok {
				totals[i].Count += it.Quantity
			} else {
				totalIdx[it.Name] = len(totals)
				totals = append(totals, model.NameCount{Name: it.Name, Count: it.Quantity})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Quantity > pairs[j].Quantity })
	if limit < 0 {
		limit = 0
	}
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, totals
}
