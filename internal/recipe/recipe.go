package recipe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Recipe is a package build recipe: name, version, source location and
// the dependency lists a builder resolves against the declared channels.
type Recipe struct {
	Package      Package      `yaml:"package"`
	Source       Source       `yaml:"source"`
	Requirements Requirements `yaml:"requirements"`
	Channels     []string     `yaml:"channels"`
}

// Package identifies what the recipe builds.
type Package struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Source points the builder at the code to build.
type Source struct {
	Path string `yaml:"path"`
}

// Requirements holds pinned dependency specifiers for the three build
// phases. Each entry is "name" or "name op version", e.g. "numpy >=1.15".
type Requirements struct {
	Host  []string `yaml:"host"`
	Build []string `yaml:"build"`
	Run   []string `yaml:"run"`
}

// Parse decodes YAML content into a Recipe.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse recipe: %w", err)
	}
	return &r, nil
}

// Load reads a recipe file and returns a Recipe.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	return Parse(data)
}

// Spec is one parsed requirement line.
type Spec struct {
	Name     string
	Operator string
	Version  string
}

func (s Spec) String() string {
	if s.Operator == "" {
		return s.Name
	}
	return fmt.Sprintf("%s %s%s", s.Name, s.Operator, s.Version)
}

// ParseSpec splits a requirement line into name, operator and version.
// Accepted forms: "python", "python >=3.6", "numpy>=1.15".
func ParseSpec(line string) (Spec, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Spec{}, fmt.Errorf("empty requirement")
	}

	ops := []string{">=", "<=", "==", "!=", ">", "<", "="}
	for _, op := range ops {
		if i := strings.Index(line, op); i >= 0 {
			name := strings.TrimSpace(line[:i])
			version := strings.TrimSpace(line[i+len(op):])
			if name == "" || version == "" {
				return Spec{}, fmt.Errorf("malformed requirement %q", line)
			}
			return Spec{Name: name, Operator: op, Version: version}, nil
		}
	}

	if strings.ContainsAny(line, " \t") {
		return Spec{}, fmt.Errorf("malformed requirement %q", line)
	}
	return Spec{Name: line}, nil
}
