package workflow

import "lightbox/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	ingest := &laneState{kind: laneIngest, name: "ingest", notificationsEnabled: true}
	library := &laneState{kind: laneLibrary, name: "library", notificationsEnabled: false}

	if set.Scanner != nil {
		ingest.stages = append(ingest.stages, pipelineStage{
			name:             "scanner",
			handler:          set.Scanner,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusScanning,
			doneStatus:       queue.StatusScanned,
		})
	}
	if set.Grouper != nil {
		ingest.stages = append(ingest.stages, pipelineStage{
			name:             "grouper",
			handler:          set.Grouper,
			startStatus:      queue.StatusScanned,
			processingStatus: queue.StatusGrouping,
			doneStatus:       queue.StatusGrouped,
		})
	}
	// Organizing runs in its own lane so the next card's scan does not wait
	// behind a multi-gigabyte library copy.
	if set.Organizer != nil {
		library.stages = append(library.stages, pipelineStage{
			name:             "organizer",
			handler:          set.Organizer,
			startStatus:      queue.StatusGrouped,
			processingStatus: queue.StatusOrganizing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(ingest.stages) > 0 {
		ingest.finalize()
		lanes[ingest.kind] = ingest
		order = append(order, ingest.kind)
	}
	if len(library.stages) > 0 {
		library.finalize()
		lanes[library.kind] = library
		order = append(order, library.kind)
	}

	for _, lane := range lanes {
		if lane == nil {
			continue
		}
		lane.runReclaimer = len(lane.processingStatuses) > 0
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
