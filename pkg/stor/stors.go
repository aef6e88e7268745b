package stor

import (
	"errors"

	"github.com/materials-commons/mcslides/pkg/mcmodel"
)

// ErrNotFound is returned for unknown presentations and out of range slides.
var ErrNotFound = errors.New("not found")

type PresentationStor interface {
	// Put makes a finished presentation visible. Ids must be unique among live records.
	Put(p *mcmodel.Presentation) error
	Get(id string) (*mcmodel.Presentation, error)
	List() []mcmodel.PresentationSummary
	// Delete removes the slide directory for id and then the record. If the directory can't
	// be removed the record is kept.
	Delete(id string) error
	// GetSlide returns the URL of a 1-indexed slide.
	GetSlide(id string, slideNumber int) (string, error)
	// SlideDir is where the images for id live on disk.
	SlideDir(id string) string
}
