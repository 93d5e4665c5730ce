package atelier

import "errors"

var (
	// Registry errors.
	ErrNoRegistry         = errors.New("atelier: no registry configured")
	ErrDuplicateProject   = errors.New("atelier: project already registered")
	ErrProjectNotFound    = errors.New("atelier: project not found")
	ErrArtifactNotFound   = errors.New("atelier: artifact not found")
	ErrProjectTerminal    = errors.New("atelier: project is in a terminal state")
	ErrProjectAlreadyRuns = errors.New("atelier: project task already started")

	// Pipeline errors.
	ErrEmptyPipeline = errors.New("atelier: pipeline has no stages")
)
