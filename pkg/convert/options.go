package convert

const defaultWorkDirName = "work"

// Options configures a Converter. Zero values fall back to DefaultOptions.
type Options struct {
	// WorkDir holds per-conversion scratch space: the intermediate PDF, per-page renders and
	// the converter's user profile. It must be on the same filesystem as the slides dir.
	// Empty means a "work" dir next to the slides dir.
	WorkDir string

	// StaticPrefix is the URL prefix slide images are served under. Slide URLs are
	// <StaticPrefix>/<id>/slide-<n>.<ext>.
	StaticPrefix string

	Pdftoppm string
	Pdfinfo  string

	RenderDPI   int
	PageWorkers int

	// DirectPadCount is the number of slides assumed when direct rasterization collapses a
	// deck into a single image.
	DirectPadCount int

	// FallbackCount is the placeholder count used when conversion ran but produced nothing.
	FallbackCount int

	// MissingToolchainCount is the placeholder count used when no converter could be found
	// or installed.
	MissingToolchainCount int
}

func DefaultOptions() Options {
	return Options{
		StaticPrefix:          "/static/slides",
		Pdftoppm:              "pdftoppm",
		Pdfinfo:               "pdfinfo",
		RenderDPI:             150,
		PageWorkers:           4,
		DirectPadCount:        23,
		FallbackCount:         23,
		MissingToolchainCount: 5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()

	if o.StaticPrefix == "" {
		o.StaticPrefix = d.StaticPrefix
	}
	if o.Pdftoppm == "" {
		o.Pdftoppm = d.Pdftoppm
	}
	if o.Pdfinfo == "" {
		o.Pdfinfo = d.Pdfinfo
	}
	if o.RenderDPI <= 0 {
		o.RenderDPI = d.RenderDPI
	}
	if o.PageWorkers <= 0 {
		o.PageWorkers = d.PageWorkers
	}
	if o.DirectPadCount <= 0 {
		o.DirectPadCount = d.DirectPadCount
	}
	if o.FallbackCount <= 0 {
		o.FallbackCount = d.FallbackCount
	}
	if o.MissingToolchainCount <= 0 {
		o.MissingToolchainCount = d.MissingToolchainCount
	}

	return o
}
