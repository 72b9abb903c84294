// Package jsontree decodes JSON of unknown shape into an ordered tree and
// searches it for semantic fields by normalized key aliases.
package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed is returned when the payload is not a single JSON document.
var ErrMalformed = errors.New("malformed json payload")

// Kind is the type tag of a Node.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// Member is a key/value pair of an object. Members keep document order.
type Member struct {
	Key   string
	Value Node
}

// Node is a JSON value.
type Node struct {
	Kind    Kind
	Bool    bool
	Number  float64
	Text    string
	Items   []Node
	Members []Member
}

// Constructors, mostly for tests and synthetic merges.

func NullNode() Node { return Node{Kind: Null} }
func BoolNode(b bool) Node { return Node{Kind: Bool, Bool: b} }
func NumberNode(f float64) Node { return Node{Kind: Number, Number: f} }
func StringNode(s string) Node { return Node{Kind: String, Text: s} }
func ArrayNode(items ...Node) Node { return Node{Kind: Array, Items: items} }
func ObjectNode(ms ...Member) Node { return Node{Kind: Object, Members: ms} }
func Field(k string, v Node) Member { return Member{Key: k, Value: v} }
func (n Node) IsNull() bool { return n.Kind == Null }
func (n Node) IsObject() bool { return n.Kind == Object }
func (n Node) IsArray() bool { return n.Kind == Array }

// Parse decodes data into a Node, preserving object key order.
func Parse(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := parseValue(dec)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Node{}, fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	return n, nil
}

func parseValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}
	return fromToken(dec, tok)
}

func fromToken(dec *json.Decoder, tok json.Token) (Node, error) {
	switch v := tok.(type) {
	case nil:
		return NullNode(), nil
	case bool:
		return BoolNode(v), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return Node{}, err
		}
		return NumberNode(f), nil
	case string:
		return StringNode(v), nil
	case json.Delim:
		switch v {
		case '[':
			arr := Node{Kind: Array}
			for dec.More() {
				item, err := parseValue(dec)
				if err != nil {
					return Node{}, err
				}
				arr.Items = append(arr.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return arr, nil
		case '{':
			obj := Node{Kind: Object}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Node{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Node{}, fmt.Errorf("unexpected object key %v", kt)
				}
				val, err := parseValue(dec)
				if err != nil {
					return Node{}, err
				}
				obj.Members = append(obj.Members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return obj, nil
		}
	}
	return Node{}, fmt.Errorf("unexpected token %v", tok)
}

// NormalizeKey strips '_' and '-' and lower-cases the key.
func NormalizeKey(k string) string {
	k = strings.ReplaceAll(k, "_", "")
	k = strings.ReplaceAll(k, "-", "")
	return strings.ToLower(k)
}

// Get returns the value stored under the exact key of an object.
func (n Node) Get(key string) (Node, bool) {
	if n.Kind != Object {
		return Node{}, false
	}
	for _, m := range n.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Node{}, false
}

// FirstPresent returns the value of the first key present on the object.
func (n Node) FirstPresent(keys ...string) (Node, bool) {
	for _, k := range keys {
		if v, ok := n.Get(k); ok {
			return v, true
		}
	}
	return Node{}, false
}

// FirstText returns the first key whose value is a non-empty string or a
// number, formatted as text.
func (n Node) FirstText(keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := n.Get(k)
		if !ok {
			continue
		}
		switch v.Kind {
		case String:
			if v.Text != "" {
				return v.Text, true
			}
		case Number:
			if v.Number != 0 {
				return strconv.FormatFloat(v.Number, 'f', -1, 64), true
			}
		}
	}
	return "", false
}

// AsFloat coerces numbers and bools to float64.
func (n Node) AsFloat() (float64, bool) {
	switch n.Kind {
	case Number:
		return n.Number, true
	case Bool:
		if n.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

var truthyStrings = map[string]struct{}{
	"1": {}, "true": {}, "yes": {}, "on": {}, "day": {}, "hardmode": {},
}

// AsTruth interprets any node as a flag. Unrecognised shapes read as false.
func (n Node) AsTruth() bool {
	switch n.Kind {
	case Bool:
		return n.Bool
	case Number:
		return n.Number != 0
	case String:
		_, ok := truthyStrings[strings.ToLower(strings.TrimSpace(n.Text))]
		return ok
	}
	return false
}

// ObjectList extracts a list of objects from a payload that is either a
// top-level array or an object holding the array under one of keys.
func ObjectList(payload Node, keys ...string) []Node {
	var list Node
	switch payload.Kind {
	case Array:
		list = payload
	case Object:
		found := false
		for _, k := range keys {
			if v, ok := payload.Get(k); ok && v.Kind == Array {
				list, found = v, true
				break
			}
		}
		if !found {
			return nil
		}
	default:
		return nil
	}

	out := make([]Node, 0, len(list.Items))
	for _, it := range list.Items {
		if it.Kind == Object {
			out = append(out, it)
		}
	}
	return out
}
