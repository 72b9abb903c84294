package api

import (
	"github.com/and161185/terraria-exporter/internal/jsontree"
	"github.com/and161185/terraria-exporter/internal/names"
	"github.com/and161185/terraria-exporter/internal/utils"
	"github.com/and161185/terraria-exporter/model"
)

var (
	aliasOnline    = jsontree.NewAliases("onlineplayers", "playersonline", "playercount", "online")
	aliasMax       = jsontree.NewAliases("maxplayers", "slots", "playerlimit")
	aliasDaytime   = jsontree.NewAliases("daytime", "isday", "day")
	aliasBloodMoon = jsontree.NewAliases("bloodmoon", "isbloodmoon")
	aliasEclipse   = jsontree.NewAliases("eclipse", "issolareclipse")
	aliasHardmode  = jsontree.NewAliases("hardmode", "ishardmode")
	aliasTime      = jsontree.NewAliases("time", "worldtime", "timeofday")

	aliasChestCount  = jsontree.NewAliases("chestcount", "chests", "count")
	aliasHouseCount  = jsontree.NewAliases("housecount", "houses", "count")
	aliasHousedCount = jsontree.NewAliases("housednpccount", "npcs", "count")
)

// Result is what the API contributed to one cycle. Pointers and model.Tri
// values are unset when the API was silent.
type Result struct {
	Up        bool
	Answered  []Resource
	RuntimeUp bool

	PlayersOnline *float64
	PlayersMax    *float64
	World         model.WorldState

	Players  []model.PlayerRecord
	Monsters []model.NameCount

	Chests          []model.ChestRecord // nil when no chest list was served
	ChestsTotal     *float64
	HousesTotal     *float64
	HousedNPCs      []string
	HousedNPCsTotal *float64
}

// Extract interprets the payloads of one fetch.
func Extract(p Payloads) Result {
	var res Result
	for _, r := range Resources {
		if _, ok := p[r]; ok {
			res.Answered = append(res.Answered, r)
		}
	}
	if len(res.Answered) == 0 {
		return res
	}
	res.Up = true

	merged := merge(p)

	if v, ok := jsontree.FindFloat(merged, aliasOnline); ok {
		res.PlayersOnline = utils.F64Ptr(v)
	}
	if v, ok := jsontree.FindFloat(merged, aliasMax); ok {
		res.PlayersMax = utils.F64Ptr(v)
	}

	res.World = extractWorld(merged)
	res.RuntimeUp = res.World.Sourced

	res.Players = extractPlayers(p[Players])
	if len(res.Players) > 0 {
		res.PlayersOnline = utils.F64Ptr(float64(len(res.Players)))
	}

	res.Monsters = extractMonsters(p[Monsters])
	extractChests(p[Chests], &res)
	extractHouses(p[Houses], &res)
	extractHousedNPCs(p[HousedNPCs], &res)
	return res
}

// merge lays the resources out as one object so a field can be looked up
// once regardless of which resource carries it.
func merge(p Payloads) jsontree.Node {
	members := make([]jsontree.Member, 0, len(Resources))
	for _, r := range Resources {
		n, ok := p[r]
		if !ok {
			n = jsontree.ObjectNode()
		}
		members = append(members, jsontree.Field(string(r), n))
	}
	return jsontree.ObjectNode(members...)
}

func extractWorld(merged jsontree.Node) model.WorldState {
	var w model.WorldState
	flag := func(a jsontree.Aliases) model.Tri {
		v, ok := jsontree.Find(merged, a)
		if !ok {
			return model.Unknown
		}
		w.Sourced = true
		return model.TriOf(v.AsTruth())
	}
	w.Daytime = flag(aliasDaytime)
	w.BloodMoon = flag(aliasBloodMoon)
	w.Eclipse = flag(aliasEclipse)
	w.Hardmode = flag(aliasHardmode)
	if v, ok := jsontree.FindFloat(merged, aliasTime); ok {
		w.Time = utils.F64Ptr(v)
		w.Sourced = true
	}
	return w
}

func optionalFloat(obj jsontree.Node, keys ...string) *float64 {
	v, ok := obj.FirstPresent(keys...)
	if !ok {
		return nil
	}
	f, ok := v.AsFloat()
	if !ok {
		return nil
	}
	return utils.F64Ptr(f)
}

func extractPlayers(payload jsontree.Node) []model.PlayerRecord {
	list := jsontree.ObjectList(payload, "players", "onlinePlayers", "playerList", "data")
	if len(list) == 0 {
		return nil
	}

	players := make([]model.PlayerRecord, 0, len(list))
	for _, obj := range list {
		name, ok := obj.FirstText("name", "playerName", "username")
		if !ok {
			name = names.Unknown
		}
		rec := model.PlayerRecord{
			Name:   name,
			Health: optionalFloat(obj, "health", "life", "hp"),
			Mana:   optionalFloat(obj, "mana", "mp"),
			Deaths: optionalFloat(obj, "deaths", "deathCount"),
		}
		if inv, ok := obj.Get("inventory"); ok && inv.IsArray() {
			rec.Inventory = itemStacks(inv.Items)
		}
		players = append(players, rec)
	}
	return players
}

// itemStacks keeps object entries with a positive quantity.
func itemStacks(items []jsontree.Node) []model.ItemStack {
	var out []model.ItemStack
	for _, it := range items {
		if !it.IsObject() {
			continue
		}
		q := optionalFloat(it, "stack", "amount", "count", "quantity")
		if q == nil || *q <= 0 {
			continue
		}
		raw, _ := it.FirstText("name", "itemName", "type")
		out = append(out, model.ItemStack{Name: names.Normalize(raw), Quantity: *q})
	}
	return out
}

func extractMonsters(payload jsontree.Node) []model.NameCount {
	list := jsontree.ObjectList(payload, "monsters", "npcs", "activeMonsters", "activeNPCs", "data")
	if len(list) == 0 {
		return nil
	}

	index := map[string]int{}
	var out []model.NameCount
	for _, obj := range list {
		raw, _ := obj.FirstText("name", "npcName", "type")
		name := names.Normalize(raw)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, model.NameCount{Name: name})
		}
		out[i].Count++
	}
	return out
}

func extractChests(payload jsontree.Node, res *Result) {
	list := jsontree.ObjectList(payload, "chests", "data", "list")
	if len(list) == 0 {
		if v, ok := jsontree.FindFloat(payload, aliasChestCount); ok {
			res.ChestsTotal = utils.F64Ptr(v)
		}
		return
	}

	res.ChestsTotal = utils.F64Ptr(float64(len(list)))
	res.Chests = make([]model.ChestRecord, 0, len(list))
	for _, obj := range list {
		id, ok := obj.FirstText("id", "index", "name")
		if !ok {
			id = names.Unknown
		}
		var items []model.ItemStack
		for _, key := range []string{"items", "inventory", "contents", "chestItems", "Slots", "slots"} {
			if v, ok := obj.Get(key); ok && v.IsArray() {
				items = itemStacks(v.Items)
				break
			}
		}
		res.Chests = append(res.Chests, model.ChestRecord{ID: id, Items: items})
	}
}

func extractHouses(payload jsontree.Node, res *Result) {
	if list := jsontree.ObjectList(payload, "houses", "data", "list"); len(list) > 0 {
		res.HousesTotal = utils.F64Ptr(float64(len(list)))
		return
	}
	if v, ok := jsontree.FindFloat(payload, aliasHouseCount); ok {
		res.HousesTotal = utils.F64Ptr(v)
	}
}

func extractHousedNPCs(payload jsontree.Node, res *Result) {
	list := jsontree.ObjectList(payload, "npcs", "housednpcs", "data", "list")
	if len(list) == 0 {
		if v, ok := jsontree.FindFloat(payload, aliasHousedCount); ok {
			res.HousedNPCsTotal = utils.F64Ptr(v)
		}
		return
	}

	res.HousedNPCsTotal = utils.F64Ptr(float64(len(list)))
	for _, obj := range list {
		raw, _ := obj.FirstText("name", "npcName", "type")
		res.HousedNPCs = append(res.HousedNPCs, names.Normalize(raw))
	}
}
