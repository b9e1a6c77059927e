package services

import (
	"math"

	"github.com/deojon/studio/types"
)

// Progress returns the completion percentage of a project's processes,
// rounded half up. A project without processes is at 0.
func Progress(processes []types.Process) int {
	if len(processes) == 0 {
		return 0
	}
	done := 0
	for _, p := range processes {
		if p.IsCompleted {
			done++
		}
	}
	return int(math.Floor(100*float64(done)/float64(len(processes)) + 0.5))
}

// StatusFor maps a progress value to a project status.
func StatusFor(progress int) types.ProjectStatus {
	if progress == 100 {
		return types.StatusCompleted
	}
	return types.StatusInProgress
}

// WithProgress returns copies of projects with Progress and Status
// derived from processes. Stored values are ignored.
func WithProgress(projects []types.Project, processes []types.Process) []types.Project {
	byProject := make(map[string][]types.Process, len(projects))
	for _, p := range processes {
		byProject[p.ProjectID] = append(byProject[p.ProjectID], p)
	}

	out := make([]types.Project, len(projects))
	for i, project := range projects {
		project.Progress = Progress(byProject[project.ID])
		project.Status = StatusFor(project.Progress)
		out[i] = project
	}
	return out
}
