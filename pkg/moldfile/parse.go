// SPDX-License-Identifier: MPL-2.0

package moldfile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moldrun/mold/pkg/cueutil"
)

//go:embed moldfile_schema.cue
var moldfileSchema []byte

type (
	rawMoldfile struct {
		Version      string               `yaml:"version"`
		Dir          string               `yaml:"dir"`
		RecipeDir    string               `yaml:"recipe_dir"`
		Includes     []Include            `yaml:"includes"`
		Recipes      map[string]rawRecipe `yaml:"recipes"`
		Vars         VarMap               `yaml:"vars"`
		Variables    VarMap               `yaml:"variables"`
		Environments EnvMap               `yaml:"environments"`
	}

	rawRecipe struct {
		Help         string       `yaml:"help"`
		Vars         VarMap       `yaml:"vars"`
		Variables    VarMap       `yaml:"variables"`
		Environments EnvMap       `yaml:"environments"`
		Dir          string       `yaml:"dir"`
		WorkDir      string       `yaml:"work_dir"`
		Requires     []string     `yaml:"requires"`
		Deps         []string     `yaml:"deps"`
		Command      commandField `yaml:"command"`
		Shell        *string      `yaml:"shell"`
		Script       string       `yaml:"script"`
		URL          string       `yaml:"url"`
		Ref          string       `yaml:"ref"`
		File         string       `yaml:"file"`
	}

	// commandField accepts either an argv list or a single command line.
	commandField struct {
		set  bool
		args []string
		line string
	}
)

func (c *commandField) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = commandField{set: true, line: node.Value}
		return nil
	case yaml.SequenceNode:
		var args []string
		if err := node.Decode(&args); err != nil {
			return err
		}
		*c = commandField{set: true, args: args}
		return nil
	default:
		return fmt.Errorf("line %d: command must be a string or a list of strings", node.Line)
	}
}

// Parse reads the moldfile at path. Files ending in .cue are validated
// against the embedded CUE schema; everything else is read as YAML.
func Parse(path string) (*Moldfile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read moldfile: %w", err)
	}

	if strings.EqualFold(filepath.Ext(abs), ".cue") {
		return ParseCUE(data, abs)
	}
	return ParseBytes(data, abs)
}

// ParseCUE validates data against the moldfile schema and decodes it.
// The document is exported to JSON, which the YAML decoder reads
// with mapping order intact.
func ParseCUE(data []byte, path string) (*Moldfile, error) {
	doc, err := cueutil.JSON(moldfileSchema, data, "#Moldfile", cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}
	return ParseBytes(doc, path)
}

// ParseBytes decodes a YAML (or JSON) moldfile. Unknown fields are rejected.
func ParseBytes(data []byte, path string) (*Moldfile, error) {
	var raw rawMoldfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InvalidMoldfileError{Path: path, Reason: "file is empty"}
		}
		return nil, &InvalidMoldfileError{Path: path, Reason: err.Error()}
	}
	return raw.build(path)
}

func (raw *rawMoldfile) build(path string) (*Moldfile, error) {
	if strings.TrimSpace(raw.Version) == "" {
		return nil, &InvalidMoldfileError{Path: path, Reason: "missing required field \"version\""}
	}

	vars, err := pick(path, "", "vars", "variables", raw.Vars, raw.Variables)
	if err != nil {
		return nil, err
	}
	dir := raw.Dir
	if dir == "" {
		dir = raw.RecipeDir
	} else if raw.RecipeDir != "" {
		return nil, &InvalidMoldfileError{Path: path, Reason: "dir and recipe_dir are mutually exclusive"}
	}

	mf := &Moldfile{
		Version:      raw.Version,
		Dir:          dir,
		Includes:     raw.Includes,
		Recipes:      make(RecipeSet, len(raw.Recipes)),
		Vars:         vars,
		Environments: raw.Environments,
		Path:         path,
	}

	for name, rr := range raw.Recipes {
		if name == "" || strings.Contains(name, "/") {
			return nil, &InvalidMoldfileError{Path: path, Recipe: name, Reason: "recipe names must be non-empty and cannot contain '/'"}
		}
		r, err := rr.build(path, name)
		if err != nil {
			return nil, err
		}
		mf.Recipes[name] = r
	}
	return mf, nil
}

func (rr *rawRecipe) build(path, name string) (Recipe, error) {
	vars, err := pick(path, name, "vars", "variables", rr.Vars, rr.Variables)
	if err != nil {
		return nil, err
	}
	if rr.Dir != "" && rr.WorkDir != "" {
		return nil, &InvalidMoldfileError{Path: path, Recipe: name, Reason: "dir and work_dir are mutually exclusive"}
	}
	if len(rr.Requires) > 0 && len(rr.Deps) > 0 {
		return nil, &InvalidMoldfileError{Path: path, Recipe: name, Reason: "requires and deps are mutually exclusive"}
	}

	base := RecipeBase{
		Help:         rr.Help,
		Vars:         vars,
		Environments: rr.Environments,
		Dir:          firstNonEmpty(rr.Dir, rr.WorkDir),
		Requires:     append(rr.Requires, rr.Deps...),
	}

	isShell := rr.Shell != nil || rr.Script != ""
	kinds := 0
	for _, set := range []bool{rr.URL != "", rr.Command.set, isShell} {
		if set {
			kinds++
		}
	}
	switch {
	case kinds == 0:
		return nil, &InvalidMoldfileError{Path: path, Recipe: name, Reason: "one of command, shell, script or url is required"}
	case kinds > 1:
		return nil, &InvalidMoldfileError{Path: path, Recipe: name, Reason: "command, shell/script and url are mutually exclusive"}
	}

	if rr.URL == "" && (rr.Ref != "" || rr.File != "") {
		return nil, &InvalidMoldfileError{Path: path, Recipe: name, Reason: "ref and file require url"}
	}

	switch {
	case rr.URL != "":
		return &Module{RecipeBase: base, Remote: Remote{URL: rr.URL, Ref: firstNonEmpty(rr.Ref, DefaultRef), File: rr.File}}, nil
	case rr.Command.set:
		if len(rr.Command.args) == 0 && strings.TrimSpace(rr.Command.line) == "" {
			return nil, &InvalidMoldfileError{Path: path, Recipe: name, Reason: "command is empty"}
		}
		return &Command{RecipeBase: base, Args: rr.Command.args, Line: rr.Command.line}, nil
	default:
		var text string
		if rr.Shell != nil {
			text = *rr.Shell
		}
		return &Shell{RecipeBase: base, Text: text, Script: rr.Script}, nil
	}
}

// pick returns whichever of the two spellings of a variables block was used.
func pick(path, recipe, name, alias string, a, b VarMap) (VarMap, error) {
	if a.Len() > 0 && b.Len() > 0 {
		return VarMap{}, &InvalidMoldfileError{Path: path, Recipe: recipe, Reason: name + " and " + alias + " are mutually exclusive"}
	}
	if b.Len() > 0 {
		return b, nil
	}
	return a, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
