package jobconfig

import (
	"fmt"

	"github.com/law-makers/scrapejob/pkg/models"
)

// Issue is an advisory finding about a configuration
type Issue struct {
	Index   int // field index, -1 for job-level issues
	Message string
}

func (i Issue) String() string {
	if i.Index < 0 {
		return i.Message
	}
	return fmt.Sprintf("field %d: %s", i.Index, i.Message)
}

// Lint reports values the form would normally require. It never modifies cfg and the
// transform step does not depend on it: empty and duplicate names are still sent as-is.
func Lint(cfg models.JobConfig) []Issue {
	var issues []Issue

	if cfg.URL == "" {
		issues = append(issues, Issue{Index: -1, Message: "url is empty"})
	}
	if cfg.RootSelector == "" {
		issues = append(issues, Issue{Index: -1, Message: "root selector is empty"})
	}

	seen := make(map[string]int)
	for i, f := range cfg.Fields {
		if f.Name == "" {
			issues = append(issues, Issue{Index: i, Message: "name is empty"})
		} else if first, ok := seen[f.Name]; ok {
			issues = append(issues, Issue{Index: i, Message: fmt.Sprintf("name %q duplicates field %d", f.Name, first)})
		} else {
			seen[f.Name] = i
		}
		if f.Selector == "" {
			issues = append(issues, Issue{Index: i, Message: "selector is empty"})
		}
	}

	return issues
}
