package devenum

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

// BuiltinPrefix marks a --script value that names an embedded filter
const BuiltinPrefix = "builtin:"

//go:embed scripts/*.lua
var builtinScripts embed.FS

// BuiltinScript returns the source of the embedded filter script name (without ".lua")
func BuiltinScript(name string) (string, error) {
	data, err := builtinScripts.ReadFile(path.Join("scripts", name+".lua"))
	if err != nil {
		return "", fmt.Errorf("no builtin script %q (available: %s)", name, strings.Join(BuiltinScripts(), ", "))
	}
	return string(data), nil
}

// BuiltinScripts lists the embedded filter scripts by name
func BuiltinScripts() []string {
	entries, _ := builtinScripts.ReadDir("scripts")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".lua"))
	}
	sort.Strings(names)
	return names
}
