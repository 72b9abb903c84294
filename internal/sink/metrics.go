// Package sink turns a reconciled ServerSnapshot into metric samples and
// publishes them as Prometheus gauges.
package sink

// Scalar gauges. Every cycle sets each of them; unset values read 0.
const (
	SourceUp             = "terraria_exporter_source_up"
	ParserUp             = "terraria_world_parser_up"
	RuntimeUp            = "terraria_world_runtime_up"
	LogTrackerUp         = "terraria_log_tracker_up"
	ParserUnsupported    = "terraria_world_parser_unsupported_version"
	LogConnectionAttempt = "terraria_log_connection_attempts_window"
	LogWorldSaves        = "terraria_log_world_saves_window"

	PlayersOnline    = "terraria_players_online"
	PlayersOnlineAPI = "terraria_players_online_api"
	PlayersOnlineLog = "terraria_players_online_log"
	PlayersMax       = "terraria_players_max"

	WorldDaytime     = "terraria_world_daytime"
	WorldBloodMoon   = "terraria_world_blood_moon"
	WorldEclipse     = "terraria_world_eclipse"
	WorldHardmode    = "terraria_world_hardmode"
	WorldTime        = "terraria_world_time"
	WorldTimeRuntime = "terraria_world_time_runtime"

	SnapshotAge   = "terraria_world_snapshot_age_seconds"
	SnapshotMTime = "terraria_world_snapshot_mtime_seconds"

	ChestsTotal     = "terraria_world_chests_total"
	HousesTotal     = "terraria_world_houses_total"
	HousedNPCsTotal = "terraria_world_housed_npcs_total"
)

// Labelled gauges. They are cleared every cycle.
const (
	HousedNPC       = "terraria_world_housed_npc"
	ChestItemCount  = "terraria_chest_item_count"
	ChestItemByItem = "terraria_chest_item_count_by_item"
	PlayerHealth    = "terraria_player_health"
	PlayerMana      = "terraria_player_mana"
	PlayerDeaths    = "terraria_player_deaths_total"
	PlayerItemCount = "terraria_player_item_count"
	MonsterActive   = "terraria_monster_active"
	LogPlayerOnline = "terraria_log_player_online"
)

type gaugeSpec struct {
	name   string
	help   string
	labels []string
}

var scalarSpecs = []gaugeSpec{
	{name: SourceUp, help: "1 if the gameplay API answered"},
	{name: ParserUp, help: "1 if the world file was decoded"},
	{name: RuntimeUp, help: "1 if live world state came from the API or the log"},
	{name: LogTrackerUp, help: "1 if the server log could be tailed"},
	{name: ParserUnsupported, help: "1 if the world file version is not supported by the decoder"},
	{name: LogConnectionAttempt, help: "Connection attempts seen in the analysed log window"},
	{name: LogWorldSaves, help: "World save cycles seen in the analysed log window"},
	{name: PlayersOnline, help: "Players online (API, falling back to the log)"},
	{name: PlayersOnlineAPI, help: "Players online according to the API"},
	{name: PlayersOnlineLog, help: "Players online according to the log"},
	{name: PlayersMax, help: "Player capacity"},
	{name: WorldDaytime, help: "1 during the day, 0 at night"},
	{name: WorldBloodMoon, help: "1 during a blood moon"},
	{name: WorldEclipse, help: "1 during a solar eclipse"},
	{name: WorldHardmode, help: "1 if the world is in hardmode"},
	{name: WorldTime, help: "World time (runtime)"},
	{name: WorldTimeRuntime, help: "World time (runtime)"},
	{name: SnapshotAge, help: "Age of the world file in seconds"},
	{name: SnapshotMTime, help: "Modification time of the world file (epoch seconds)"},
	{name: ChestsTotal, help: "Chests in the world"},
	{name: HousesTotal, help: "Known houses in the world"},
	{name: HousedNPCsTotal, help: "NPCs with a house"},
}

var vectorSpecs = []gaugeSpec{
	{name: HousedNPC, help: "Housed NPC", labels: []string{"npc"}},
	{name: ChestItemCount, help: "Item quantity per chest", labels: []string{"chest", "item"}},
	{name: ChestItemByItem, help: "Item quantity over all chests", labels: []string{"item"}},
	{name: PlayerHealth, help: "Player health", labels: []string{"player"}},
	{name: PlayerMana, help: "Player mana", labels: []string{"player"}},
	{name: PlayerDeaths, help: "Player deaths", labels: []string{"player"}},
	{name: PlayerItemCount, help: "Item quantity per player", labels: []string{"player", "item"}},
	{name: MonsterActive, help: "Active monsters by type", labels: []string{"monster"}},
	{name: LogPlayerOnline, help: "Player online according to the log", labels: []string{"player"}},
}
