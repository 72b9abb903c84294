package logs

import (
	"sort"
	"strings"
)

// Presence tracks who is online from join and leave lines. It starts empty
// every cycle, so sessions whose join line scrolled out of the window are
// not counted.
type Presence struct {
	online map[string]string // case-folded name -> display name
}

func NewPresence() *Presence {
	return &Presence{online: make(map[string]string)}
}

// Join records a player; a later join with different casing wins the display name.
func (p *Presence) Join(name string) {
	p.online[strings.ToLower(name)] = name
}

// Leave forgets a player. Unknown names are ignored.
func (p *Presence) Leave(name string) {
	delete(p.online, strings.ToLower(name))
}

func (p *Presence) Count() int { return len(p.online) }

// Names returns the display names, sorted.
func (p *Presence) Names() []string {
	out := make([]string, 0, len(p.online))
	for _, n := range p.online {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
