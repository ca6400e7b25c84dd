// Package cuberr defines the typed error kinds the core reports, per the
// error handling design: load-time failures are fatal for a RecoContext,
// while recognition-time structural failures surface as sentinel errors
// that callers filter rather than exceptions.
package cuberr

import "errors"

var (
	// ErrLoadMissing indicates a required data file is absent. Fatal for
	// context construction.
	ErrLoadMissing = errors.New("cube: required data file missing")

	// ErrLoadMalformed indicates a required data file has an unparseable
	// row. Fatal for required files, a warning for optional ones (e.g. the
	// folding-set file).
	ErrLoadMalformed = errors.New("cube: data file malformed")

	// ErrSegmentationUnusable indicates seg_count < 1 or > 128. Recognition
	// returns an empty alt list.
	ErrSegmentationUnusable = errors.New("cube: segmentation produced an unusable segment count")

	// ErrEmptyClassification indicates the classifier returned no
	// alternates for a segment range. The range is skipped during search,
	// not fatal to the whole recognition.
	ErrEmptyClassification = errors.New("cube: classifier returned no alternates for range")

	// ErrLatticeExhausted indicates every lattice column ended up empty
	// after pruning.
	ErrLatticeExhausted = errors.New("cube: lattice exhausted, no surviving path")

	// ErrWorstCostOnly indicates a search produced paths, but every one of
	// them is at the sentinel cost.
	ErrWorstCostOnly = errors.New("cube: all candidate costs are at the worst-cost sentinel")

	// ErrNormalizationFailed indicates size-normalization scaling returned
	// no sample; the caller should proceed with the original sample.
	ErrNormalizationFailed = errors.New("cube: size normalization failed")
)

// Wrap attaches context to a sentinel error kind while keeping it
// errors.Is-compatible with the sentinel.
func Wrap(kind error, context string) error {
	if context == "" {
		return kind
	}
	return &wrapped{kind: kind, context: context}
}

type wrapped struct {
	kind    error
	context string
}

func (w *wrapped) Error() string { return w.context + ": " + w.kind.Error() }
func (w *wrapped) Unwrap() error { return w.kind }
