package admin

import "strings"

// SpecialSeed is a world generation secret seed offered by the UI.
type SpecialSeed struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Seed        string `json:"seed"`
	Description string `json:"description"`
}

const zenithSeed = "get fixed boi"

// SpecialSeeds is the catalogue served at /api/special-seeds.
var SpecialSeeds = []SpecialSeed{
	{ID: "drunk_world", Label: "Drunk world", Seed: "05162020", Description: "Mixed evil world style."},
	{ID: "for_the_worthy", Label: "For the worthy", Seed: "for the worthy", Description: "Harder enemies and traps."},
	{ID: "the_constant", Label: "The constant", Seed: "the constant", Description: "Darkness and hunger effects."},
	{ID: "not_the_bees", Label: "Not the bees", Seed: "not the bees", Description: "World with heavy bee biome generation."},
	{ID: "dont_starve", Label: "Dont starve", Seed: "dont starve", Description: "Cross-over hunger style world."},
	{ID: "celebrationmk10", Label: "Celebrationmk10", Seed: "celebrationmk10", Description: "Celebration style world generation."},
	{ID: "no_traps", Label: "No traps", Seed: "no traps", Description: "Trap focused generation changes."},
	{ID: "dont_dig_up", Label: "Dont dig up", Seed: "dont dig up", Description: "Inverted progression style world."},
	{ID: "zenith", Label: "Zenith (Get fixed boi)", Seed: zenithSeed, Description: "Combined ultra-special world."},
	{ID: "abandoned_manors", Label: "Abandoned manors", Seed: "abandoned manors", Description: "Custom seed library preset."},
	{ID: "arachnophobia", Label: "Arachnophobia", Seed: "arachnophobia", Description: "Custom seed library preset."},
	{ID: "beam_me_up", Label: "Beam me up", Seed: "beam me up", Description: "Custom seed library preset."},
	{ID: "bring_a_towel", Label: "Bring a towel", Seed: "bring a towel", Description: "Custom seed library preset."},
	{ID: "does_that_sparkle", Label: "Does that sparkle", Seed: "does that sparkle", Description: "Custom seed library preset."},
}

// ResolveSeed picks the generation seed and reports how it was chosen. A
// custom seed wins. Several specials, or zenith itself, combine into the
// zenith seed. Nothing selected means a random world.
func ResolveSeed(custom string, selectedIDs []string) (seed, mode string) {
	if custom = strings.TrimSpace(custom); custom != "" {
		return custom, "custom"
	}

	wanted := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		wanted[id] = true
	}
	var selected []SpecialSeed
	for _, s := range SpecialSeeds {
		if wanted[s.ID] {
			selected = append(selected, s)
		}
	}

	switch {
	case len(selected) == 0:
		return "", "random"
	case len(selected) > 1 || selected[0].ID == "zenith":
		return zenithSeed, "multi-special->zenith"
	default:
		return selected[0].Seed, "special:" + selected[0].ID
	}
}
