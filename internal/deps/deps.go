package deps

import (
	"errors"

	"autosplit/internal/services"
)

// Requirement names an external program and how to find it. Tool is the
// configured value, Fallback the name searched when Tool is empty.
type Requirement struct {
	Name        string
	Tool        string
	Fallback    string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one Requirement.
type Status struct {
	Requirement
	Path      string
	Available bool
	Detail    string
}

// CheckBinaries resolves every requirement with ResolveTool.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Status{Requirement: req}
		path, err := ResolveTool(req.Tool, req.Fallback)
		if err != nil {
			results[i].Detail = detail(err)
			continue
		}
		results[i].Path = path
		results[i].Available = true
	}
	return results
}

// detail keeps the operator-facing part of a resolution error.
func detail(err error) string {
	var se *services.Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}
