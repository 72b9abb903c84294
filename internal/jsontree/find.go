package jsontree

// Aliases is a set of normalized keys naming one semantic field.
type Aliases map[string]struct{}

// NewAliases builds an alias set; keys are normalized on the way in.
func NewAliases(keys ...string) Aliases {
	a := make(Aliases, len(keys))
	for _, k := range keys {
		a[NormalizeKey(k)] = struct{}{}
	}
	return a
}

func (a Aliases) has(key string) bool {
	_, ok := a[NormalizeKey(key)]
	return ok
}

// Find searches the tree depth-first for the first key matching aliases.
// Each object is scanned for a direct hit before its children are visited.
// A hit whose value is JSON null counts as no hit. The second result is false
// when nothing matches; that means the source is silent on the field.
func Find(n Node, aliases Aliases) (Node, bool) {
	switch n.Kind {
	case Object:
		for _, m := range n.Members {
			if aliases.has(m.Key) && m.Value.Kind != Null {
				return m.Value, true
			}
		}
		for _, m := range n.Members {
			if v, ok := Find(m.Value, aliases); ok {
				return v, true
			}
		}
	case Array:
		for _, it := range n.Items {
			if v, ok := Find(it, aliases); ok {
				return v, true
			}
		}
	}
	return Node{}, false
}

// FindFloat is Find followed by AsFloat.
func FindFloat(n Node, aliases Aliases) (float64, bool) {
	v, ok := Find(n, aliases)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}
