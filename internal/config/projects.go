package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ProjectsRegistry remembers the remote projects the user has opened
type ProjectsRegistry struct {
	Projects       []Project `json:"projects"`
	DefaultProject string    `json:"defaultProject"`
}

// Project is a bookmarked remote project
type Project struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	BaseURL  string    `json:"baseUrl,omitempty"`
	LastUsed time.Time `json:"lastUsed"`
}

var (
	// ErrProjectNotFound is returned when a project doesn't exist in the registry
	ErrProjectNotFound = errors.New("project not found")
	// ErrDuplicateProject is returned when trying to add a project that already exists
	ErrDuplicateProject = errors.New("project already exists")
	// ErrEmptyID is returned when the project ID is empty
	ErrEmptyID = errors.New("project id cannot be empty")
)

// LoadProjectsRegistry loads the projects registry from disk
// Returns an empty registry if the file doesn't exist
func LoadProjectsRegistry() (*ProjectsRegistry, error) {
	path, err := registryPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ProjectsRegistry{Projects: []Project{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var registry ProjectsRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, err
	}
	if registry.Projects == nil {
		registry.Projects = []Project{}
	}

	return &registry, nil
}

// SaveProjectsRegistry saves the projects registry to disk
func SaveProjectsRegistry(reg *ProjectsRegistry) error {
	path, err := registryPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Add bookmarks a project
func (r *ProjectsRegistry) Add(id, name, baseURL string) error {
	if id == "" {
		return ErrEmptyID
	}
	if r.index(id) >= 0 {
		return ErrDuplicateProject
	}

	r.Projects = append(r.Projects, Project{ID: id, Name: name, BaseURL: baseURL})

	// Set as default if it's the first project
	if len(r.Projects) == 1 {
		r.DefaultProject = id
	}

	return nil
}

// Remove drops a bookmark
func (r *ProjectsRegistry) Remove(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	i := r.index(id)
	if i < 0 {
		return ErrProjectNotFound
	}
	r.Projects = append(r.Projects[:i], r.Projects[i+1:]...)

	// Clear default if it was the removed project
	if r.DefaultProject == id {
		r.DefaultProject = ""
		if len(r.Projects) > 0 {
			r.DefaultProject = r.Projects[0].ID
		}
	}

	return nil
}

// SetDefault sets the project opened on startup
func (r *ProjectsRegistry) SetDefault(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if r.index(id) < 0 {
		return ErrProjectNotFound
	}
	r.DefaultProject = id
	return nil
}

// Use records that a project was opened, adding it when new, and makes it
// the default
func (r *ProjectsRegistry) Use(id, name, baseURL string, now time.Time) error {
	if id == "" {
		return ErrEmptyID
	}
	i := r.index(id)
	if i < 0 {
		r.Projects = append(r.Projects, Project{ID: id})
		i = len(r.Projects) - 1
	}
	if name != "" {
		r.Projects[i].Name = name
	}
	if baseURL != "" {
		r.Projects[i].BaseURL = baseURL
	}
	r.Projects[i].LastUsed = now
	r.DefaultProject = id
	return nil
}

// Get retrieves a project by ID
func (r *ProjectsRegistry) Get(id string) (*Project, error) {
	if i := r.index(id); i >= 0 {
		p := r.Projects[i]
		return &p, nil
	}
	return nil, ErrProjectNotFound
}

// Resolve finds a project by ID, or by case-insensitive name
func (r *ProjectsRegistry) Resolve(ref string) (*Project, error) {
	if p, err := r.Get(ref); err == nil {
		return p, nil
	}
	for _, p := range r.Projects {
		if strings.EqualFold(p.Name, ref) {
			return &p, nil
		}
	}
	return nil, ErrProjectNotFound
}

// GetDefault returns the default project, or nil if none is set
func (r *ProjectsRegistry) GetDefault() *Project {
	if r.DefaultProject == "" {
		return nil
	}
	p, err := r.Get(r.DefaultProject)
	if err != nil {
		return nil
	}
	return p
}

// Recent returns up to n projects, most recently used first
func (r *ProjectsRegistry) Recent(n int) []Project {
	out := append([]Project(nil), r.Projects...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (r *ProjectsRegistry) index(id string) int {
	for i, p := range r.Projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// registryPath is a variable holding the function that returns the path to the projects registry file
// This allows it to be overridden in tests
var registryPath = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tandem", "projects.json"), nil
}
