package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceEnv     SourceKind = "env"
	SourceFile    SourceKind = "file"
)

// Source records where a setting's effective value came from.
type Source struct {
	Kind   SourceKind
	Name   string // for default/env
	File   string
	Line   int
	Column int
}

func (s Source) position() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// LoadResult is a loaded config plus the provenance of each key.
type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML path -> last writer
	Files   []string          // every file read, in merge order

	// Own holds only what the main file itself sets, includes kept as
	// references. Editing writes this layer back.
	Own RawConfig

	merged RawConfig // every file, before env
	env    Env
}

// Load reads the config from $PENC_CONFIG or the default path.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns file-level sources for introspection.
// PENC_CONFIG replaces the default path.
func LoadWithSources() (*LoadResult, error) {
	env, err := ReadEnv()
	if err != nil {
		return nil, err
	}
	path, err := ResolvePath(env)
	if err != nil {
		return nil, err
	}
	return loadFromPath(path, env)
}

// LoadFromPath loads path without consulting the environment. A missing file
// yields the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	return loadFromPath(path, Env{})
}

// LoadFromPathWithEnv loads path and applies env on top.
func LoadFromPathWithEnv(path string, env Env) (*LoadResult, error) {
	return loadFromPath(path, env)
}

// ResolvePath returns env.Config when set, else DefaultConfigPath.
func ResolvePath(env Env) (string, error) {
	if env.Config != "" {
		return env.Config, nil
	}
	return DefaultConfigPath()
}

func loadFromPath(path string, env Env) (*LoadResult, error) {
	l := newFileLoader()

	var raw RawConfig
	if _, err := os.Stat(path); err == nil {
		if raw, err = l.load(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	merged := raw
	raw = raw.merge(env.raw())
	for key, src := range env.sources() {
		l.sources[key] = src
	}

	cfg := BuildEffectiveConfig(raw)
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, l.sources)
	}
	return &LoadResult{
		Config:  cfg,
		Sources: l.sources,
		Files:   l.files,
		Own:     l.own,
		merged:  merged,
		env:     env,
	}, nil
}

// fileLoader merges a config file with everything it includes. Included
// files apply first; the including file overrides them.
type fileLoader struct {
	seen    map[string]bool
	stack   []string
	sources map[string]Source
	files   []string
	own     RawConfig
}

func newFileLoader() *fileLoader {
	return &fileLoader{seen: map[string]bool{}, sources: map[string]Source{}}
}

func (l *fileLoader) load(path string) (RawConfig, error) {
	canon := canonicalPath(path)
	if slices.Contains(l.stack, canon) {
		chain := append(slices.Clone(l.stack), canon)
		return RawConfig{}, fmt.Errorf("include cycle detected: %s", strings.Join(chain, " -> "))
	}
	if l.seen[canon] {
		return RawConfig{}, nil
	}
	l.seen[canon] = true

	data, err := os.ReadFile(canon)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to read: %w", canon, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to parse yaml: %w", canon, err)
	}
	var own RawConfig
	if err := decodeStrict(data, &own); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", canon, err)
	}
	if len(l.stack) == 0 {
		l.own = own
	}
	root := mappingRoot(&doc)

	l.stack = append(l.stack, canon)
	var merged RawConfig
	for _, ref := range includeRefs(root, canon) {
		paths, err := expandInclude(canon, ref.value)
		if err != nil {
			return RawConfig{}, fmt.Errorf("%s: include %q: %w", ref.at.position(), ref.value, err)
		}
		for _, p := range paths {
			inc, err := l.load(p)
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(inc)
		}
	}
	l.stack = l.stack[:len(l.stack)-1]

	recordSources(root, canon, "", l.sources)
	l.files = append(l.files, canon)
	return merged.merge(own), nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// canonicalPath resolves symlinks when it can, so cycles are detected
// across links.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// expandInclude resolves include relative to baseFile. A directory
// expands to its .yaml/.yml files in lexical order.
func expandInclude(baseFile, include string) ([]string, error) {
	if include == "" {
		return nil, fmt.Errorf("path is empty")
	}
	path := include
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(baseFile), path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				files = append(files, filepath.Join(path, ent.Name()))
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

func mappingRoot(doc *yaml.Node) *yaml.Node {
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

func nodeSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

// recordSources stores the position of every key under node. Sequences
// are recorded as a whole.
func recordSources(node *yaml.Node, file, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if prefix != "" {
			key = prefix + "." + key
		}
		out[key] = nodeSource(file, val)
		recordSources(val, file, key, out)
	}
}

type includeRef struct {
	value string
	at    Source
}

func includeRefs(root *yaml.Node, file string) []includeRef {
	if root == nil {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		items := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			items = val.Content
		}
		var refs []includeRef
		for _, item := range items {
			if item.Kind == yaml.ScalarNode {
				refs = append(refs, includeRef{value: item.Value, at: nodeSource(file, item)})
			}
		}
		return refs
	}
	return nil
}

func attachSourceContext(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}
