// Package prompts provides a loader for externalized LLM prompt templates.
// Prompts are stored as JSON files and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// DefaultFile is the embedded prompt file used by the pipeline.
const DefaultFile = "genie.json"

// cache stores parsed prompt files to avoid repeated JSON parsing
var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

// Get retrieves a prompt by filename and key.
// The filename should not include the path (e.g., "genie.json").
// Returns an error if the file or key is not found.
func Get(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	return prompt, nil
}

// Format replaces template placeholders in the form {{.Key}} with values from data.
// Substitution is a single pass over the template, so placeholder-like text
// inside a value is never expanded. Placeholders without a value are left as is.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, "{{."+key+"}}", data[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Placeholders returns the distinct placeholder keys used by a template, in
// order of first appearance.
func Placeholders(template string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}

// loadFile loads and caches a prompt file.
func loadFile(filename string) (map[string]string, error) {
	// Check cache first
	cacheMu.RLock()
	if prompts, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return prompts, nil
	}
	cacheMu.RUnlock()

	// Load from embedded filesystem
	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	prompts, err := parse(filename, data)
	if err != nil {
		return nil, err
	}

	// Cache the result
	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}

func parse(filename string, data []byte) (map[string]string, error) {
	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	return prompts, nil
}

// ClearCache clears the prompt cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}

// List returns all available prompt keys in a file, sorted.
func List(filename string) ([]string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Set is a named collection of templates.
type Set struct {
	name      string
	templates map[string]string
}

// Embedded returns the set stored in an embedded prompt file.
func Embedded(filename string) (*Set, error) {
	templates, err := loadFile(filename)
	if err != nil {
		return nil, err
	}
	return &Set{name: filename, templates: templates}, nil
}

// Default returns the embedded pipeline prompts.
func Default() *Set {
	set, err := Embedded(DefaultFile)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return set
}

// FromFile reads a prompt set from a JSON file on disk. Keys missing from the
// file fall back to the embedded defaults.
func FromFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}
	overrides, err := parse(path, data)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string)
	for k, v := range Default().templates {
		merged[k] = v
	}
	for k, v := range overrides {
		if _, ok := merged[k]; !ok {
			return nil, fmt.Errorf("unknown prompt key %q in %s", k, path)
		}
		merged[k] = v
	}
	return &Set{name: path, templates: merged}, nil
}

// Template returns the template stored under key.
func (s *Set) Template(key string) (string, error) {
	t, ok := s.templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, s.name)
	}
	return t, nil
}

// Name identifies where the set was loaded from.
func (s *Set) Name() string {
	return s.name
}
