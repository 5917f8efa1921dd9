package mcp

import (
	"encoding/json"
	"fmt"
	"sort"
)

// UnknownField represents a field that was passed but not recognized
type UnknownField struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// TokenizeParams are the tokenize tool arguments
type TokenizeParams struct {
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
	Dump     bool   `json:"dump,omitempty"`
}

// EditOp is one edit of the edit tool
type EditOp struct {
	Op     string `json:"op"` // insert, remove or replace
	Offset int    `json:"offset,omitempty"`
	Length int    `json:"length,omitempty"`
	Text   string `json:"text,omitempty"`
}

// EditParams are the edit tool arguments
type EditParams struct {
	Language string   `json:"language,omitempty"`
	Text     string   `json:"text"`
	Edits    []EditOp `json:"edits"`
	Verify   *bool    `json:"verify,omitempty"`
}

// FuzzParams are the fuzz tool arguments. Zero values take the configured
// defaults.
type FuzzParams struct {
	Language    string `json:"language,omitempty"`
	Seed        int64  `json:"seed,omitempty"`
	Seeds       int    `json:"seeds,omitempty"`
	Rounds      int    `json:"rounds,omitempty"`
	OpsPerRound int    `json:"ops_per_round,omitempty"`
	MaxLength   int    `json:"max_length,omitempty"`
}

var (
	tokenizeFields = fieldSet("language", "text", "dump")
	editFields     = fieldSet("language", "text", "edits", "verify")
	fuzzFields     = fieldSet("language", "seed", "seeds", "rounds", "ops_per_round", "max_length")
)

func fieldSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// decodeParams unmarshals arguments into dst and reports fields dst does
// not know as warnings instead of failing
func decodeParams(data []byte, known map[string]struct{}, dst interface{}) ([]string, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	unknown, err := collectUnknownFields(data, known)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}

	var warnings []string
	for _, f := range unknown {
		warnings = append(warnings, fmt.Sprintf("ignored unknown parameter %q", f.Name))
	}
	sort.Strings(warnings)
	return warnings, nil
}

// collectUnknownFields parses raw JSON and returns the fields that aren't
// part of the known field set
func collectUnknownFields(data []byte, known map[string]struct{}) ([]UnknownField, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var unknown []UnknownField
	for key, value := range raw {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, decodeUnknownField(key, value))
		}
	}
	return unknown, nil
}

func decodeUnknownField(name string, data json.RawMessage) UnknownField {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		value = string(data)
	}
	return UnknownField{Name: name, Value: value}
}
