package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SetupViewsFolder creates the views directory with an example view file.
// Returns true if folder was created, false if it already existed.
func SetupViewsFolder(viewsDir string) (bool, error) {
	if _, err := os.Stat(viewsDir); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(viewsDir, 0755); err != nil {
		return false, err
	}

	exampleYAML := `name: work
description: Open work tasks, most important first
query: "#work -$done"
sort_by_priority: true
`
	if err := os.WriteFile(filepath.Join(viewsDir, "work.yaml"), []byte(exampleYAML), 0644); err != nil {
		return false, err
	}

	return true, nil
}

// Loader loads views from a directory of YAML files and the builtins.
type Loader struct {
	viewsDir string
}

// NewLoader creates a new view loader
func NewLoader(viewsDir string) *Loader {
	return &Loader{viewsDir: viewsDir}
}

// ValidateViewName checks if a view name is safe to use in file paths.
func ValidateViewName(name string) error {
	if name == "" {
		return fmt.Errorf("view name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid view name '%s': contains path separator", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid view name '%s': contains path traversal sequence", name)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid view name '%s': cannot start with '.'", name)
	}
	return nil
}

func builtinView(name string) *View {
	for _, v := range BuiltinViews() {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// LoadView loads a view by name.
// A file on disk overrides the builtin view of the same name.
func (l *Loader) LoadView(name string) (*View, error) {
	normalizedName := strings.ToLower(name)
	if normalizedName == "" {
		normalizedName = "default"
	}

	builtin := builtinView(normalizedName)
	if builtin == nil {
		if err := ValidateViewName(name); err != nil {
			return nil, err
		}
	}

	if l.viewsDir != "" {
		viewPath := filepath.Join(l.viewsDir, normalizedName+".yaml")
		if _, err := os.Stat(viewPath); err == nil {
			return l.loadFromDisk(normalizedName, viewPath)
		}
	}

	if builtin != nil {
		return builtin, nil
	}
	return nil, fmt.Errorf("view '%s' not found", name)
}

// loadFromDisk loads a view from a YAML file with path validation
func (l *Loader) loadFromDisk(name, viewPath string) (*View, error) {
	absViewsDir, err := filepath.Abs(l.viewsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve views directory: %w", err)
	}
	absViewPath, err := filepath.Abs(viewPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve view path: %w", err)
	}
	if !strings.HasPrefix(absViewPath, absViewsDir+string(filepath.Separator)) {
		return nil, fmt.Errorf("invalid view name '%s': path traversal detected", name)
	}

	data, err := os.ReadFile(viewPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("view '%s' not found", name)
		}
		return nil, fmt.Errorf("failed to read view '%s': %w", name, err)
	}

	var view View
	if err := yaml.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to parse view '%s': %w", name, err)
	}
	if view.Name == "" {
		view.Name = name
	}

	if err := validateView(&view); err != nil {
		return nil, fmt.Errorf("invalid view '%s': %w", name, err)
	}

	return &view, nil
}

// ViewInfo contains metadata about a view
type ViewInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Query       string `json:"query"`
	BuiltIn     bool   `json:"builtIn"`
	Overrides   bool   `json:"overrides"`
}

// ListViews returns the builtin views followed by custom views from disk.
func (l *Loader) ListViews() ([]ViewInfo, error) {
	var infos []ViewInfo
	for _, b := range BuiltinViews() {
		info := ViewInfo{Name: b.Name, Description: b.Description, Query: b.Query, BuiltIn: true}
		if l.viewsDir != "" {
			if _, err := os.Stat(filepath.Join(l.viewsDir, b.Name+".yaml")); err == nil {
				if v, err := l.LoadView(b.Name); err == nil {
					info.Description, info.Query = v.Description, v.Query
				}
				info.BuiltIn, info.Overrides = false, true
			}
		}
		infos = append(infos, info)
	}

	if l.viewsDir == "" {
		return infos, nil
	}
	entries, err := os.ReadDir(l.viewsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return infos, nil
		}
		return nil, fmt.Errorf("failed to read views directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if builtinView(name) != nil {
			continue
		}
		info := ViewInfo{Name: name}
		if v, err := l.LoadView(name); err == nil {
			info.Description, info.Query = v.Description, v.Query
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// validateView rejects queries with unknown $keywords.
func validateView(v *View) error {
	for _, term := range ParseQuery(v.Query).Terms {
		if term.Field != FieldStatus {
			continue
		}
		switch term.Value {
		case StatusDone, StatusDue, StatusOverdue, StatusRecurring:
		default:
			return fmt.Errorf("unknown status keyword: $%s", term.Value)
		}
	}
	return nil
}
