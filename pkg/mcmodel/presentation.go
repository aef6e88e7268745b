package mcmodel

import (
	"path/filepath"
	"strings"
	"time"
)

// ConversionStatus reports whether the slides of a presentation came from a real render or
// were synthesized.
type ConversionStatus string

const (
	StatusSuccess              ConversionStatus = "success"
	StatusPlaceholdersCreated  ConversionStatus = "placeholders_created"
	StatusFallbackPlaceholders ConversionStatus = "fallback_placeholders"
)

// Presentation is a converted presentation and the URLs of its slide images. Slides[i] is
// slide i+1.
type Presentation struct {
	ID            string           `json:"id"`
	OriginalName  string           `json:"originalName"`
	Slides        []string         `json:"slides"`
	SlideCount    int              `json:"slideCount"`
	ConvertedAt   time.Time        `json:"convertedAt"`
	IsPlaceholder bool             `json:"isPlaceholder"`
	Status        ConversionStatus `json:"status"`
}

// PresentationSummary is the listing view of a Presentation. It leaves out the slide list.
type PresentationSummary struct {
	ID            string    `json:"id"`
	OriginalName  string    `json:"originalName"`
	SlideCount    int       `json:"slideCount"`
	ConvertedAt   time.Time `json:"convertedAt"`
	IsPlaceholder bool      `json:"isPlaceholder"`
}

func (p Presentation) Summary() PresentationSummary {
	return PresentationSummary{
		ID:            p.ID,
		OriginalName:  p.OriginalName,
		SlideCount:    p.SlideCount,
		ConvertedAt:   p.ConvertedAt,
		IsPlaceholder: p.IsPlaceholder,
	}
}

// Clone returns a deep copy so the slide list can't be shared between the store and callers.
func (p Presentation) Clone() *Presentation {
	c := p
	c.Slides = append([]string(nil), p.Slides...)
	return &c
}

// SlideURL returns the URL for a 1-indexed slide number.
func (p Presentation) SlideURL(slideNumber int) (string, bool) {
	if slideNumber < 1 || slideNumber > len(p.Slides) {
		return "", false
	}

	return p.Slides[slideNumber-1], true
}

var presentationExtensions = map[string]bool{
	".ppt":  true,
	".pptx": true,
	".key":  true,
}

// IsPresentationFile reports whether name has an extension the converter accepts.
func IsPresentationFile(name string) bool {
	return presentationExtensions[strings.ToLower(filepath.Ext(name))]
}
