package kpuzzle

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed definitions/*.json
var builtinDefinitions embed.FS

// Builtin loads one of the puzzles shipped with the package by name.
func Builtin(name string) (*KPuzzle, error) {
	data, err := builtinDefinitions.ReadFile(path.Join("definitions", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("unknown builtin puzzle %q (have %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, err
	}
	return New(def)
}

// BuiltinNames lists the puzzles available through Builtin.
func BuiltinNames() []string {
	entries, _ := builtinDefinitions.ReadDir("definitions")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}
