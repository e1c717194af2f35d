package models

import "github.com/google/uuid"

type PageStatus string

const (
	PageCreated      PageStatus = "created"
	PageIllustrated  PageStatus = "illustrated"
	PageInsertFailed PageStatus = "insert_failed"
)

// PageOutcome records what happened to one story page during generation.
type PageOutcome struct {
	Index       int // 0-based position in the story
	PageNumber  int // 0 when the insert failed
	PageID      uuid.UUID
	Status      PageStatus
	ImageURL    string
	Err         error // page or illustration failure, if any
	Illustrated bool
}

type GenerationReport struct {
	Attempted   int
	Persisted   int
	Illustrated int
	Outcomes    []PageOutcome
}

func (r *GenerationReport) Record(o PageOutcome) {
	r.Attempted++
	if o.Status != PageInsertFailed {
		r.Persisted++
	}
	if o.Illustrated {
		r.Illustrated++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// NextPageNumber is dense: failed inserts do not consume a number.
func (r *GenerationReport) NextPageNumber() int {
	return r.Persisted + 1
}

type GenerationResult struct {
	Success bool
	BookID  uuid.UUID
	Book    *BookWithPages
	Message string
	Report  GenerationReport
}
