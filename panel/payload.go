// Package panel implements the weather panel: it fetches the combined weather payload
// from the kiosk's proxy endpoint, projects it onto display values and writes them to
// the surface.
package panel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SectionState tells apart a section that was not sent, one that was sent but could
// not be read, and one that carries items
type SectionState int

const (
	SectionAbsent SectionState = iota
	SectionMalformed
	SectionPresent
)

func (s SectionState) String() string {
	switch s {
	case SectionAbsent:
		return "absent"
	case SectionMalformed:
		return "malformed"
	case SectionPresent:
		return "present"
	default:
		return fmt.Sprintf("SectionState(%d)", int(s))
	}
}

// Item is one row of an upstream item list. Values are kept as decoded JSON.
type Item map[string]any

// String returns the field as text. Numbers are formatted without trailing zeros;
// missing, null and empty values report false.
func (it Item) String(key string) (string, bool) {
	switch v := it[key].(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Section is the parse result of one payload section
type Section struct {
	State SectionState
	Err   error
	Items []Item
}

// Present reports whether the section carries an item list
func (s Section) Present() bool {
	return s.State == SectionPresent
}

// Value returns the first observed value of a category. Observation values win over
// forecast values.
func (s Section) Value(category string) (string, bool) {
	for _, it := range s.Items {
		if c, _ := it.String("category"); c != category {
			continue
		}
		return firstOf(it, "obsrValue", "fcstValue")
	}
	return "", false
}

// ValueAt returns the forecast value of a category for a forecast time (HH00)
func (s Section) ValueAt(category, fcstTime string) (string, bool) {
	for _, it := range s.Items {
		c, _ := it.String("category")
		ft, _ := it.String("fcstTime")
		if c != category || ft != fcstTime {
			continue
		}
		return firstOf(it, "fcstValue", "obsrValue")
	}
	return "", false
}

// ValueOn returns the forecast value of a category for a forecast date (YYYYMMDD) and
// time (HH00)
func (s Section) ValueOn(category, fcstDate, fcstTime string) (string, bool) {
	for _, it := range s.Items {
		c, _ := it.String("category")
		fd, _ := it.String("fcstDate")
		ft, _ := it.String("fcstTime")
		if c != category || fd != fcstDate || ft != fcstTime {
			continue
		}
		return firstOf(it, "fcstValue", "obsrValue")
	}
	return "", false
}

// First returns a field of the first item
func (s Section) First(key string) (string, bool) {
	if len(s.Items) == 0 {
		return "", false
	}
	return s.Items[0].String(key)
}

func firstOf(it Item, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := it.String(k); ok {
			return v, true
		}
	}
	return "", false
}

// Payload is the parsed body of GET /api/weather
type Payload struct {
	NCST          Section
	Forecast      Section
	UltraForecast Section
	Pollution     Section
	Error         string
	Version       string
}

// Empty reports whether no section was sent at all
func (p Payload) Empty() bool {
	for _, s := range p.Sections() {
		if s.State != SectionAbsent {
			return false
		}
	}
	return true
}

// Sections returns the sections keyed by their wire name
func (p Payload) Sections() map[string]Section {
	return map[string]Section{
		"ncst":       p.NCST,
		"fcst":       p.Forecast,
		"ultra_fcst": p.UltraForecast,
		"pollution":  p.Pollution,
	}
}

// ErrNotObject is returned when the body is not a JSON object
var ErrNotObject = errors.New("payload is not a JSON object")

// ParsePayload decodes a weather payload. Only a body that is not a JSON object is an
// error; problems inside a section are recorded on that section.
func ParsePayload(data []byte) (Payload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if raw == nil {
		return Payload{}, ErrNotObject
	}

	p := Payload{
		NCST:          parseSection(raw["ncst"]),
		Forecast:      parseSection(raw["fcst"]),
		UltraForecast: parseSection(raw["ultra_fcst"]),
		Pollution:     parseSection(raw["pollution"]),
	}
	p.Error = scalarText(raw["error"])
	p.Version = scalarText(raw["version"])
	return p, nil
}

// parseSection reads the item list out of the upstream envelope. Accepted shapes are
// response.body.items.item, response.body.items, items.item and items, each holding
// either an array or a single object.
func parseSection(raw json.RawMessage) Section {
	if isNull(raw) {
		return Section{State: SectionAbsent}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return malformed("section is not an object")
	}
	if e, ok := obj["error"]; ok && !isNull(e) {
		msg := scalarText(e)
		if msg == "" {
			msg = string(e)
		}
		return malformed("upstream error: " + msg)
	}

	itemsRaw, ok := locateItems(obj)
	if !ok {
		return malformed("no item list")
	}

	items, err := decodeItems(itemsRaw)
	if err != nil {
		return malformed(err.Error())
	}
	return Section{State: SectionPresent, Items: items}
}

func locateItems(obj map[string]json.RawMessage) (json.RawMessage, bool) {
	container := obj
	if resp := child(obj, "response"); resp != nil {
		body := child(resp, "body")
		if body == nil {
			return nil, false
		}
		container = body
	}

	items, ok := container["items"]
	if !ok || isNull(items) {
		return nil, false
	}

	// items may wrap the list in an "item" key
	var wrapper map[string]json.RawMessage
	if json.Unmarshal(items, &wrapper) == nil {
		if inner, ok := wrapper["item"]; ok && !isNull(inner) {
			return inner, true
		}
	}
	return items, true
}

func decodeItems(raw json.RawMessage) ([]Item, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "["):
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("item list: %w", err)
		}
		items := make([]Item, 0, len(list))
		for _, r := range list {
			var it Item
			// non-object rows carry nothing usable
			if json.Unmarshal(r, &it) == nil && it != nil {
				items = append(items, it)
			}
		}
		return items, nil
	case strings.HasPrefix(trimmed, "{"):
		var it Item
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, fmt.Errorf("item: %w", err)
		}
		return []Item{it}, nil
	case trimmed == `""`:
		// the upstream API sends an empty string when there are no rows
		return []Item{}, nil
	default:
		return nil, errors.New("item list has unexpected type")
	}
}

func child(obj map[string]json.RawMessage, key string) map[string]json.RawMessage {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil
	}
	var out map[string]json.RawMessage
	if json.Unmarshal(raw, &out) != nil {
		return nil
	}
	return out
}

func malformed(reason string) Section {
	return Section{State: SectionMalformed, Err: errors.New(reason)}
}

func isNull(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return t == "" || t == "null"
}

func scalarText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var v any
	if json.Unmarshal(raw, &v) == nil {
		switch v.(type) {
		case float64, bool:
			return strings.TrimSpace(string(raw))
		}
	}
	return ""
}
