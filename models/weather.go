package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Section names of the /api/weather payload
const (
	SectionNCST          = "ncst"
	SectionUltraForecast = "ultra_fcst"
	SectionForecast      = "fcst"
	SectionPollution     = "pollution"
)

// SectionNames lists the payload sections in fetch order
var SectionNames = []string{SectionNCST, SectionUltraForecast, SectionForecast, SectionPollution}

// WeatherPayload is the body served by /api/weather. Each section holds the upstream
// response as it was received, or {"error": "..."} when no usable response exists.
type WeatherPayload map[string]json.RawMessage

// Clone returns a copy that shares no section bytes with p
func (p WeatherPayload) Clone() WeatherPayload {
	if p == nil {
		return nil
	}
	out := make(WeatherPayload, len(p))
	for k, v := range p {
		out[k] = bytes.Clone(v)
	}
	return out
}

// Usable reports whether a section holds an upstream response rather than an error
func (p WeatherPayload) Usable(name string) bool {
	raw, ok := p[name]
	return ok && !IsErrorSection(raw)
}

// CachedWeather is the on-disk form of the proxy cache
type CachedWeather struct {
	Weather   WeatherPayload `json:"weather"`
	Timestamp time.Time      `json:"timestamp"`
}

// ErrorSection builds the {"error": msg} placeholder for a failed section
func ErrorSection(msg string) json.RawMessage {
	data, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return json.RawMessage(`{"error":"unknown error"}`)
	}
	return data
}

// IsErrorSection reports whether raw is empty, not an object, or an object with a
// non-empty "error" member
func IsErrorSection(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return true
	}
	e, ok := obj["error"]
	if !ok {
		return false
	}
	switch string(bytes.TrimSpace(e)) {
	case "null", `""`, "false":
		return false
	}
	return true
}
