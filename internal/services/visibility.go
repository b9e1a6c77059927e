package services

import "github.com/deojon/studio/types"

// VisibleTasks returns the tasks viewerID may see: their own tasks and
// every public task, in their original order.
func VisibleTasks(tasks []types.Task, viewerID string) []types.Task {
	visible := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if CanView(t, viewerID) {
			visible = append(visible, t)
		}
	}
	return visible
}

// CanView reports whether viewerID may see t: the task is public or
// viewerID wrote it.
func CanView(t types.Task, viewerID string) bool {
	return t.IsPublic || t.AuthorID == viewerID
}
