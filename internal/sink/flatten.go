package sink

import (
	"github.com/and161185/terraria-exporter/internal/utils"
	"github.com/and161185/terraria-exporter/model"
)

// Flatten renders a snapshot as samples. This is where unknown tri-states
// and unset optionals become 0; labelled series without data are left out.
// The result is sorted by series ID.
func Flatten(s model.ServerSnapshot) model.MetricSet {
	b := newBuilder()

	b.set(SourceUp, nil, flag(s.SourceUp))
	b.set(ParserUp, nil, flag(s.ParserUp))
	b.set(RuntimeUp, nil, flag(s.RuntimeUp))
	b.set(LogTrackerUp, nil, flag(s.LogTrackerUp))
	b.set(ParserUnsupported, nil, flag(s.ParserUnsupported))
	b.set(LogConnectionAttempt, nil, s.LogConnectionAttempts)
	b.set(LogWorldSaves, nil, s.LogWorldSaves)

	b.set(PlayersOnline, nil, utils.F64Value(s.PlayersOnline, 0))
	b.set(PlayersOnlineAPI, nil, utils.F64Value(s.PlayersOnlineAPI, 0))
	b.set(PlayersOnlineLog, nil, utils.F64Value(s.PlayersOnlineLog, 0))
	b.set(PlayersMax, nil, s.PlayersMax)

	b.set(WorldDaytime, nil, tri(s.World.Daytime))
	b.set(WorldBloodMoon, nil, tri(s.World.BloodMoon))
	b.set(WorldEclipse, nil, tri(s.World.Eclipse))
	b.set(WorldHardmode, nil, tri(s.World.Hardmode))
	b.set(WorldTime, nil, utils.F64Value(s.World.Time, 0))
	b.set(WorldTimeRuntime, nil, utils.F64Value(s.World.Time, 0))

	b.set(SnapshotAge, nil, utils.F64Value(s.SnapshotAge, 0))
	b.set(SnapshotMTime, nil, utils.F64Value(s.SnapshotMTime, 0))

	b.set(ChestsTotal, nil, utils.F64Value(s.ChestsTotal, 0))
	b.set(HousesTotal, nil, utils.F64Value(s.HousesTotal, 0))
	b.set(HousedNPCsTotal, nil, utils.F64Value(s.HousedNPCsTotal, 0))

	for _, npc := range s.HousedNPCs {
		b.set(HousedNPC, labels("npc", npc), 1)
	}
	for _, ci := range s.ChestItems {
		b.set(ChestItemCount, labels("chest", ci.Chest, "item", ci.Item), ci.Quantity)
	}
	for _, t := range s.ChestItemTotals {
		b.set(ChestItemByItem, labels("item", t.Name), t.Count)
	}
	for _, p := range s.Players {
		player := labels("player", p.Name)
		if p.Health != nil {
			b.set(PlayerHealth, player, *p.Health)
		}
		if p.Mana != nil {
			b.set(PlayerMana, player, *p.Mana)
		}
		if p.Deaths != nil {
			b.set(PlayerDeaths, player, *p.Deaths)
		}
		for _, it := range p.Inventory {
			b.add(PlayerItemCount, labels("player", p.Name, "item", it.Name), it.Quantity)
		}
	}
	for _, m := range s.Monsters {
		b.set(MonsterActive, labels("monster", m.Name), m.Count)
	}
	for _, name := range s.OnlineNames {
		b.set(LogPlayerOnline, labels("player", name), 1)
	}

	set := b.samples()
	set.Sort()
	return set
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func tri(t model.Tri) float64 { return flag(t.Bool()) }

func labels(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

// builder keeps one sample per series ID.
type builder struct {
	index map[string]int
	out   model.MetricSet
}

func newBuilder() *builder { return &builder{index: make(map[string]int)} }

// set replaces the series value.
func (b *builder) set(name string, l map[string]string, v float64) {
	s := model.Sample{Name: name, Labels: l, Value: v}
	id := s.ID()
	if i, ok := b.index[id]; ok {
		b.out[i] = s
		return
	}
	b.index[id] = len(b.out)
	b.out = append(b.out, s)
}

// add accumulates into the series value.
func (b *builder) add(name string, l map[string]string, v float64) {
	s := model.Sample{Name: name, Labels: l, Value: v}
	if i, ok := b.index[s.ID()]; ok {
		b.out[i].Value += v
		return
	}
	b.set(name, l, v)
}

func (b *builder) samples() model.MetricSet { return b.out }
