package workspace

import "fmt"

// Workspace is the ordered set of loaded projects. A project's ID is its
// position in load order.
type Workspace struct {
	projects []*Project
	closed   bool
}

func New() *Workspace {
	return &Workspace{}
}

// Add appends a project. IDs are assigned in call order.
func (w *Workspace) Add(p *Project) error {
	if w.closed {
		return ErrClosed
	}
	w.projects = append(w.projects, p)
	return nil
}

// Len returns the number of projects.
func (w *Workspace) Len() int { return len(w.projects) }

// Projects returns all projects in ID order.
func (w *Workspace) Projects() []*Project {
	return append([]*Project(nil), w.projects...)
}

// ByID returns the project with the given ID.
func (w *Workspace) ByID(id int) (*Project, error) {
	if w.closed {
		return nil, ErrClosed
	}
	if id < 0 || id >= len(w.projects) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return w.projects[id], nil
}

// ByName returns the project with the given name.
func (w *Workspace) ByName(name string) (*Project, error) {
	if w.closed {
		return nil, ErrClosed
	}
	for _, p := range w.projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("project %q: %w", name, ErrNotFound)
}

// Close closes every project.
func (w *Workspace) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var first error
	for _, p := range w.projects {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
