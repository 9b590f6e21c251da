// Package registry loads the named scraping configurations the rest of the
// tool operates on.
//
// Configurations are declared in a YAML or JSON file and validated eagerly:
// every entry's module must be registered and its params must decode into
// that module's spec, so a malformed file fails at load time rather than on
// first use of a broken entry.
package registry

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/ledgerkit/findl/pkg/scraper"
)

// TaskSpec is one declared configuration entry as it appears in the file.
type TaskSpec struct {
	Module          string         `yaml:"module" json:"module"`
	OutputDirectory string         `yaml:"output_directory" json:"output_directory"`
	Params          map[string]any `yaml:"params" json:"params"`
}

// File is the top-level shape of the configurations file.
type File struct {
	Configs map[string]TaskSpec `yaml:"configs" json:"configs"`
}

// Task is a validated, runnable configuration. Immutable once loaded.
type Task struct {
	Name      string
	Module    string
	OutputDir string
	Scraper   scraper.Scraper
}

// Registry is the loaded mapping of configuration names to tasks.
// It is read-only after Load and safe for concurrent use.
type Registry struct {
	tasks map[string]*Task
	names []string
}

// Names are used as file names for logs and markers, so keep them to a
// filesystem-safe subset.
var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// FromSpec validates one entry and builds its scraper.
func FromSpec(name string, spec TaskSpec) (*Task, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("invalid configuration name %q (use letters, digits, '-', '_')", name)
	}
	if spec.Module == "" {
		return nil, fmt.Errorf("configuration %s: module is required", name)
	}
	if spec.OutputDirectory == "" {
		return nil, fmt.Errorf("configuration %s: output_directory is required", name)
	}

	s, err := scraper.Build(spec.Module, spec.Params)
	if err != nil {
		return nil, fmt.Errorf("configuration %s: %w", name, err)
	}

	return &Task{
		Name:      name,
		Module:    spec.Module,
		OutputDir: spec.OutputDirectory,
		Scraper:   s,
	}, nil
}

// New builds a registry from already-validated tasks. Names must be unique.
func New(tasks ...*Task) (*Registry, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no configurations declared")
	}

	byName := make(map[string]*Task, len(tasks))
	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		if task == nil || task.Name == "" {
			return nil, fmt.Errorf("task without a name")
		}
		if _, dup := byName[task.Name]; dup {
			return nil, fmt.Errorf("duplicate configuration name %q", task.Name)
		}
		byName[task.Name] = task
		names = append(names, task.Name)
	}
	sort.Strings(names)

	return &Registry{tasks: byName, names: names}, nil
}

func newRegistry(file *File) (*Registry, error) {
	tasks := make([]*Task, 0, len(file.Configs))
	for name, spec := range file.Configs {
		task, err := FromSpec(name, spec)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return New(tasks...)
}

// Names returns all configuration names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of loaded configurations.
func (r *Registry) Len() int {
	return len(r.names)
}

// Get returns the task for a configuration name.
func (r *Registry) Get(name string) (*Task, error) {
	task, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("configuration %q is not registered", name)
	}
	return task, nil
}

// Has reports whether a configuration name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tasks[name]
	return ok
}
