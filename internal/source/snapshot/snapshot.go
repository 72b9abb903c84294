// Package snapshot reads the offline world file through a pluggable decoder.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/and161185/terraria-exporter/internal/names"
	"github.com/and161185/terraria-exporter/internal/source"
	"github.com/and161185/terraria-exporter/internal/utils"
	"github.com/and161185/terraria-exporter/model"
)

// ErrUnsupportedVersion is returned by a Decoder that recognises the file
// but cannot parse its format version. It is a source.ErrUnsupportedFormat.
var ErrUnsupportedVersion = fmt.Errorf("%w: world file version", source.ErrUnsupportedFormat)

// Decoder opens world files.
type Decoder interface {
	Open(path string) (World, error)
}

// World is the read-only view of a decoded world file.
type World interface {
	Hardmode() model.Tri
	Chests() []Chest
	Rooms() []Room
	NPCs() []NPC
}

// Chest is a container with its item stacks; empty slots are not listed.
type Chest struct {
	Items []model.ItemStack
}

// Room is a valid house claimed by a town NPC.
type Room struct {
	NPC string // NPC type name
}

// NPC is a town NPC. Home is nil for homeless NPCs.
type NPC struct {
	Name     string // display name, e.g. "Andrew"
	TypeName string // e.g. "guide"
	Home     *Tile
}

// Tile is a world coordinate.
type Tile struct {
	X, Y int32
}

// Outcome is how a load attempt ended.
type Outcome int

const (
	Absent      Outcome = iota // no path, no decoder, or the file is unreadable
	Unsupported                // the decoder does not support the format version
	Failed                     // the decoder failed for another reason
	Decoded
)

func (o Outcome) String() string {
	switch o {
	case Unsupported:
		return "unsupported"
	case Failed:
		return "failed"
	case Decoded:
		return "decoded"
	default:
		return "absent"
	}
}

// Result is what the snapshot contributed to one cycle.
type Result struct {
	Outcome  Outcome
	Err      error
	MTime    *float64 // epoch seconds
	Age      *float64 // seconds, never negative
	Hardmode model.Tri

	Chests      []model.ChestRecord
	ChestsTotal *float64
	HousesTotal *float64
	HousedNPCs  []string
}

// ParserUp reports whether the file was decoded.
func (r Result) ParserUp() bool { return r.Outcome == Decoded }

// Adapter loads world snapshots.
type Adapter struct {
	decoder Decoder
	now     func() time.Time
}

// NewAdapter builds an adapter. A nil decoder makes every load Absent.
func NewAdapter(d Decoder) *Adapter {
	return &Adapter{decoder: d, now: time.Now}
}

// Load stats and decodes the file at path.
func (a *Adapter) Load(path string) Result {
	var res Result
	if path == "" || a.decoder == nil {
		return res
	}

	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		res.Err = err
		return res
	}
	mtime := float64(st.ModTime().UnixNano()) / 1e9
	res.MTime = utils.F64Ptr(mtime)
	res.Age = utils.F64Ptr(max(0, float64(a.now().UnixNano())/1e9-mtime))

	w, err := a.decoder.Open(path)
	switch {
	case errors.Is(err, ErrUnsupportedVersion):
		res.Outcome, res.Err = Unsupported, err
		return res
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
		res.Err = err
		return res
	case err != nil:
		res.Outcome, res.Err = Failed, err
		return res
	}

	res.Outcome = Decoded
	res.Hardmode = w.Hardmode()

	chests := w.Chests()
	res.ChestsTotal = utils.F64Ptr(float64(len(chests)))
	res.Chests = make([]model.ChestRecord, 0, len(chests))
	for i, c := range chests {
		rec := model.ChestRecord{ID: strconv.Itoa(i)}
		for _, it := range c.Items {
			if it.Quantity <= 0 {
				continue
			}
			rec.Items = append(rec.Items, model.ItemStack{Name: names.Normalize(it.Name), Quantity: it.Quantity})
		}
		res.Chests = append(res.Chests, rec)
	}

	rooms := w.Rooms()
	res.HousesTotal = utils.F64Ptr(float64(len(rooms)))
	res.HousedNPCs = housedNPCs(w.NPCs(), rooms)
	return res
}

// housedNPCs lists NPCs with an assigned home. When none has a home but
// rooms exist, one entry per room is derived from the room's NPC instead.
// That fallback is a heuristic; it keeps the count from reading zero while
// houses are known to exist.
func housedNPCs(npcs []NPC, rooms []Room) []string {
	var out []string
	for _, n := range npcs {
		if n.Home == nil {
			continue
		}
		name := n.Name
		if name == "" {
			name = names.Normalize(n.TypeName)
		}
		out = append(out, name)
	}
	if len(out) > 0 || len(rooms) == 0 {
		return out
	}

	out = make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, names.Normalize(r.NPC))
	}
	return out
}
