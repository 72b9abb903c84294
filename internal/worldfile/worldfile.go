// Package worldfile decodes the parts of a Terraria world file (.wld) the
// exporter reports on: the hardmode flag, chests, town NPCs and rooms.
//
// The file starts with a preamble and a table of section offsets, so every
// section is read independently of the others:
//
//	int32   version
//	uint64  "relogic" magic | file type << 56
//	uint32  revision
//	uint64  favorite flags
//	int16   section count, int32[count] section offsets
//	int16   tile frame-important bit count, packed bits
//
// Tiles, signs, tile entities and the remaining sections are skipped.
package worldfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/and161185/terraria-exporter/internal/source/snapshot"
	"github.com/and161185/terraria-exporter/model"
)

const (
	magic         = 0x6369676f6c6572 // "relogic", little-endian
	fileTypeWorld = 2

	// Supported format versions: 1.4.0.1 through 1.4.4.9.
	MinVersion = 225
	MaxVersion = 279
)

// Section indexes in the offset table.
const (
	sectionHeader = iota
	sectionTiles
	sectionChests
	sectionSigns
	sectionNPCs
	sectionTileEntities
	sectionPressurePlates
	sectionTownManager
)

// ErrNotWorldFile is returned for files without the world magic.
var ErrNotWorldFile = errors.New("not a world file")

// World is a decoded world file.
type World struct {
	Version  int32
	Revision uint32
	Name     string

	hardmode model.Tri
	chests   []snapshot.Chest
	npcs     []snapshot.NPC
	rooms    []snapshot.Room
}

func (w *World) Hardmode() model.Tri      { return w.hardmode }
func (w *World) Chests() []snapshot.Chest { return w.chests }
func (w *World) NPCs() []snapshot.NPC     { return w.npcs }
func (w *World) Rooms() []snapshot.Room   { return w.rooms }

// Decoder implements snapshot.Decoder.
type Decoder struct {
	MinVersion int32
	MaxVersion int32
}

// NewDecoder returns a decoder for the supported version range.
func NewDecoder() *Decoder {
	return &Decoder{MinVersion: MinVersion, MaxVersion: MaxVersion}
}

// Open reads and decodes the file at path.
func (d *Decoder) Open(path string) (snapshot.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	w, err := d.Decode(data)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Decode decodes a world file held in memory.
func (d *Decoder) Decode(data []byte) (*World, error) {
	r := &reader{buf: data}

	w := &World{Version: r.i32()}
	sig := r.u64()
	if r.err != nil {
		return nil, fmt.Errorf("read preamble: %w", r.err)
	}
	if sig&0x00ffffffffffffff != magic {
		// Formats older than 1.3 carry no magic.
		if w.Version > 0 && w.Version < d.MinVersion {
			return nil, fmt.Errorf("%w: %d", snapshot.ErrUnsupportedVersion, w.Version)
		}
		return nil, ErrNotWorldFile
	}
	if ft := byte(sig >> 56); ft != fileTypeWorld {
		return nil, fmt.Errorf("%w: file type %d", ErrNotWorldFile, ft)
	}
	if w.Version < d.MinVersion || w.Version > d.MaxVersion {
		return nil, fmt.Errorf("%w: %d (supported %d..%d)", snapshot.ErrUnsupportedVersion, w.Version, d.MinVersion, d.MaxVersion)
	}
	w.Revision = r.u32()
	r.u64() // favorite flags

	count := int(r.i16())
	if count <= sectionTownManager {
		if r.err == nil {
			r.fail(fmt.Errorf("only %d sections", count))
		}
		return nil, fmt.Errorf("read section table: %w", r.err)
	}
	sections := make([]int32, count)
	for i := range sections {
		sections[i] = r.i32()
	}
	if r.err != nil {
		return nil, fmt.Errorf("read section table: %w", r.err)
	}

	// A header walk that loses its way only costs the hardmode flag.
	w.Name, w.hardmode = readHeader(data, sections[sectionHeader], sections[sectionTiles], w.Version)

	var err error
	if w.chests, err = readChests(data, sections[sectionChests]); err != nil {
		return nil, fmt.Errorf("read chests: %w", err)
	}
	if w.npcs, err = readNPCs(data, sections[sectionNPCs], w.Version); err != nil {
		return nil, fmt.Errorf("read npcs: %w", err)
	}
	if w.rooms, err = readRooms(data, sections[sectionTownManager]); err != nil {
		return nil, fmt.Errorf("read town manager: %w", err)
	}
	return w, nil
}

func readHeader(data []byte, start, end, version int32) (string, model.Tri) {
	r := &reader{buf: data}
	r.seek(start)

	name := r.str()
	r.str() // seed
	r.u64() // generator version
	r.skip(16)
	r.i32()       // world id
	r.skip(4 * 4) // left, right, top, bottom
	r.skip(4 * 2) // max tiles y, x
	r.i32()       // game mode
	for _, since := range []int32{222, 227, 238, 239, 241, 249, 266, 267} {
		if version >= since {
			r.boolean() // special seed flags
		}
	}
	r.u64()       // creation time
	r.u8()        // moon type
	r.skip(4 * 3) // tree x
	r.skip(4 * 4) // tree style
	r.skip(4 * 3) // cave back x
	r.skip(4 * 4) // cave back style
	r.skip(4 * 3) // ice, jungle, hell back style
	r.skip(4 * 2) // spawn
	r.f64()       // surface
	r.f64()       // rock layer
	r.f64()       // time
	r.boolean()   // day time
	r.i32()       // moon phase
	r.boolean()   // blood moon
	r.boolean()   // eclipse
	r.skip(4 * 2) // dungeon
	r.boolean()   // crimson
	for range 22 {
		r.boolean() // downed bosses, saved NPCs, invasions, orb and meteor flags
	}
	r.u8()  // shadow orb count
	r.i32() // altar count
	hardmode := r.boolean()

	if r.err != nil || int32(r.pos) > end {
		return name, model.Unknown
	}
	return name, model.TriOf(hardmode)
}

const maxChestItems = 40

func readChests(data []byte, start int32) ([]snapshot.Chest, error) {
	r := &reader{buf: data}
	r.seek(start)

	total := int(r.i16())
	slots := int(r.i16())
	overflow := 0
	if slots > maxChestItems {
		overflow = slots - maxChestItems
		slots = maxChestItems
	}
	if r.err != nil {
		return nil, r.err
	}
	if total < 0 || slots < 0 {
		return nil, fmt.Errorf("invalid chest table %d x %d", total, slots)
	}

	chests := make([]snapshot.Chest, 0, total)
	for range total {
		r.skip(4 * 2) // position
		r.str()       // chest name
		var c snapshot.Chest
		for range slots {
			stack := r.i16()
			if stack <= 0 {
				continue
			}
			id := r.i32()
			r.u8() // prefix
			c.Items = append(c.Items, model.ItemStack{Name: ItemName(id), Quantity: float64(stack)})
		}
		for range overflow {
			if r.i16() > 0 {
				r.skip(4 + 1)
			}
		}
		if r.err != nil {
			return nil, r.err
		}
		chests = append(chests, c)
	}
	return chests, nil
}

func readNPCs(data []byte, start, version int32) ([]snapshot.NPC, error) {
	r := &reader{buf: data}
	r.seek(start)

	if version >= 268 {
		shimmered := int(r.i32())
		if shimmered < 0 {
			return nil, fmt.Errorf("invalid shimmered npc count %d", shimmered)
		}
		r.skip(4 * shimmered)
	}

	var npcs []snapshot.NPC
	for r.boolean() {
		id := r.i32()
		n := snapshot.NPC{TypeName: NPCName(id)}
		n.Name = r.str()
		r.skip(4 * 2) // position
		homeless := r.boolean()
		x, y := r.i32(), r.i32()
		if !homeless {
			n.Home = &snapshot.Tile{X: x, Y: y}
		}
		if r.u8()&1 != 0 {
			r.i32() // town npc variation
		}
		if r.err != nil {
			return nil, r.err
		}
		npcs = append(npcs, n)
	}
	return npcs, r.err
}

func readRooms(data []byte, start int32) ([]snapshot.Room, error) {
	r := &reader{buf: data}
	r.seek(start)

	count := int(r.i32())
	if r.err != nil {
		return nil, r.err
	}
	if count < 0 {
		return nil, fmt.Errorf("invalid room count %d", count)
	}
	rooms := make([]snapshot.Room, 0, min(count, 1024))
	for range count {
		id := r.i32()
		r.skip(4 * 2) // room position
		if r.err != nil {
			return nil, r.err
		}
		rooms = append(rooms, snapshot.Room{NPC: NPCName(id)})
	}
	return rooms, nil
}
