package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Default keys used by the StreamElements store API.
const (
	DefaultIDKey   = "_id"
	DefaultNameKey = "name"
)

// Keys names the JSON fields carrying an item's identity and display name.
// Empty fields fall back to the defaults. When the configured id key is
// missing from an object, "_id" and then "id" are tried.
type Keys struct {
	ID   string
	Name string
}

func (k Keys) withDefaults() Keys {
	if strings.TrimSpace(k.ID) == "" {
		k.ID = DefaultIDKey
	}
	if strings.TrimSpace(k.Name) == "" {
		k.Name = DefaultNameKey
	}
	return k
}

// Item is one purchasable catalog entry.
//
// Identity is ID. Every other field of the source object is kept verbatim in
// Payload and written back out unchanged when the item is persisted.
type Item struct {
	ID      string
	Name    string
	Payload map[string]json.RawMessage

	idKey   string
	nameKey string
}

// Label is the text shown to users: the name, or the id when the name is blank.
func (it Item) Label() string {
	if s := strings.TrimSpace(it.Name); s != "" {
		return s
	}
	return it.ID
}

// MarshalJSON writes the original object, adding the id and name keys when
// the item was built without a payload.
func (it Item) MarshalJSON() ([]byte, error) {
	idKey, nameKey := it.idKey, it.nameKey
	if idKey == "" {
		idKey = DefaultIDKey
	}
	if nameKey == "" {
		nameKey = DefaultNameKey
	}
	out := make(map[string]json.RawMessage, len(it.Payload)+2)
	for k, v := range it.Payload {
		out[k] = v
	}
	// Keep the source representation (e.g. numeric ids) when it is there.
	if _, ok := out[idKey]; !ok {
		id, err := json.Marshal(it.ID)
		if err != nil {
			return nil, err
		}
		out[idKey] = id
	}
	if _, ok := out[nameKey]; !ok {
		name, err := json.Marshal(it.Name)
		if err != nil {
			return nil, err
		}
		out[nameKey] = name
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an item using the default keys.
func (it *Item) UnmarshalJSON(b []byte) error {
	v, err := decodeItem(b, Keys{}.withDefaults())
	if err != nil {
		return err
	}
	*it = v
	return nil
}

// Collection is one full, ordered snapshot of the catalog.
type Collection []Item

// IDs returns the identifiers in collection order.
func (c Collection) IDs() []string {
	out := make([]string, 0, len(c))
	for _, it := range c {
		out = append(out, it.ID)
	}
	return out
}

var errNotArray = errors.New("expected a JSON array of objects")

// DecodeCollection parses a JSON array of objects into a Collection.
func DecodeCollection(data []byte, keys Keys) (Collection, error) {
	keys = keys.withDefaults()
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, err
	}
	out := make(Collection, 0, len(raws))
	for i, raw := range raws {
		it, err := decodeItem(raw, keys)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, it)
	}
	return out, nil
}

func decodeItem(raw []byte, keys Keys) (Item, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Item{}, err
	}
	if obj == nil {
		return Item{}, errors.New("item is null")
	}

	idKey := keys.ID
	rawID, ok := obj[idKey]
	if !ok {
		for _, alt := range []string{DefaultIDKey, "id"} {
			if v, found := obj[alt]; found {
				idKey, rawID, ok = alt, v, true
				break
			}
		}
	}
	if !ok {
		return Item{}, fmt.Errorf("missing identifier field %q", keys.ID)
	}
	id, err := scalarString(rawID)
	if err != nil {
		return Item{}, fmt.Errorf("field %q: %w", idKey, err)
	}
	if id == "" {
		return Item{}, fmt.Errorf("field %q is empty", idKey)
	}

	rawName, ok := obj[keys.Name]
	if !ok {
		return Item{}, fmt.Errorf("missing name field %q", keys.Name)
	}
	name, err := scalarString(rawName)
	if err != nil {
		return Item{}, fmt.Errorf("field %q: %w", keys.Name, err)
	}

	return Item{ID: id, Name: name, Payload: obj, idKey: idKey, nameKey: keys.Name}, nil
}

// scalarString accepts JSON strings and numbers; ids are opaque, so 42 and "42" are the same id.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.New("expected string or number")
	}
}
