package worldfile

import "strconv"

var npcNames = map[int32]string{
	17:  "merchant",
	18:  "nurse",
	19:  "arms_dealer",
	20:  "dryad",
	22:  "guide",
	38:  "demolitionist",
	54:  "clothier",
	107: "goblin_tinkerer",
	108: "wizard",
	124: "mechanic",
	160: "truffle",
	178: "steampunker",
	207: "dye_trader",
	208: "party_girl",
	209: "cyborg",
	227: "painter",
	228: "witch_doctor",
	229: "pirate",
	353: "stylist",
	368: "traveling_merchant",
	369: "angler",
	441: "tax_collector",
	453: "skeleton_merchant",
	550: "tavernkeep",
	588: "golfer",
	633: "zoologist",
	637: "town_cat",
	638: "town_dog",
	656: "town_bunny",
	663: "princess",
}

var itemNames = map[int32]string{
	1:    "iron_pickaxe",
	2:    "dirt_block",
	3:    "stone_block",
	8:    "torch",
	9:    "wood",
	11:   "iron_ore",
	12:   "copper_ore",
	13:   "gold_ore",
	14:   "silver_ore",
	19:   "gold_bar",
	20:   "copper_bar",
	21:   "silver_bar",
	22:   "iron_bar",
	23:   "gel",
	28:   "lesser_healing_potion",
	29:   "life_crystal",
	40:   "wooden_arrow",
	43:   "suspicious_looking_eye",
	48:   "chest",
	56:   "demonite_ore",
	57:   "demonite_bar",
	58:   "heart",
	68:   "rotten_chunk",
	71:   "copper_coin",
	72:   "silver_coin",
	73:   "gold_coin",
	74:   "platinum_coin",
	75:   "fallen_star",
	85:   "chain",
	97:   "musket_ball",
	116:  "meteorite",
	117:  "meteorite_bar",
	129:  "gray_brick",
	133:  "clay_block",
	166:  "bomb",
	169:  "sand_block",
	170:  "glass",
	172:  "ash_block",
	173:  "obsidian",
	174:  "hellstone",
	175:  "hellstone_bar",
	176:  "mud_block",
	177:  "sapphire",
	178:  "ruby",
	179:  "emerald",
	180:  "topaz",
	181:  "amethyst",
	182:  "diamond",
	183:  "glowing_mushroom",
	188:  "healing_potion",
	189:  "mana_potion",
	210:  "vine",
	225:  "silk",
	280:  "spear",
	282:  "glowstick",
	286:  "sticky_glowstick",
	288:  "obsidian_skin_potion",
	290:  "swiftness_potion",
	292:  "ironskin_potion",
	313:  "daybloom",
	314:  "moonglow",
	315:  "blinkroot",
	316:  "deathweed",
	317:  "waterleaf",
	318:  "fireblossom",
	331:  "jungle_spores",
	364:  "cobalt_ore",
	365:  "mythril_ore",
	366:  "adamantite_ore",
	381:  "cobalt_bar",
	382:  "mythril_bar",
	391:  "adamantite_bar",
	499:  "greater_healing_potion",
	500:  "greater_mana_potion",
	501:  "pixie_dust",
	502:  "crystal_shard",
	520:  "soul_of_light",
	521:  "soul_of_night",
	522:  "cursed_flame",
	526:  "unicorn_horn",
	527:  "dark_shard",
	528:  "light_shard",
	575:  "soul_of_flight",
	699:  "tin_ore",
	700:  "lead_ore",
	701:  "tungsten_ore",
	702:  "platinum_ore",
	703:  "tin_bar",
	704:  "lead_bar",
	705:  "tungsten_bar",
	706:  "platinum_bar",
	880:  "crimtane_ore",
	965:  "rope",
	1225: "hallowed_bar",
	1257: "crimtane_bar",
	1329: "vertebra",
	1508: "ectoplasm",
	2766: "solar_tablet_fragment",
	3460: "luminite",
	3467: "luminite_bar",
}

// NPCName maps an NPC type id to its internal name, or "npc_<id>".
func NPCName(id int32) string {
	if n, ok := npcNames[id]; ok {
		return n
	}
	return "npc_" + strconv.Itoa(int(id))
}

// ItemName maps an item id to its internal name, or "item_<id>".
func ItemName(id int32) string {
	if n, ok := itemNames[id]; ok {
		return n
	}
	return "item_" + strconv.Itoa(int(id))
}
