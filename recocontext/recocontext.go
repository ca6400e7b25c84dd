// Package recocontext implements RecoContext (§4.1, §6): the per-language
// bundle of every loaded model a recognition needs -- character set,
// language model, classifier, and the three optional cost models -- plus
// the handful of language-specific behavior flags (reading order, case
// support, cursive joining) the rest of the engine queries by name.
package recocontext

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/cube-ocr/cube/bigrams"
	"github.com/cube-ocr/cube/charset"
	"github.com/cube-ocr/cube/classifier"
	"github.com/cube-ocr/cube/cost"
	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/langmodel"
	"github.com/cube-ocr/cube/searchobj"
	"github.com/cube-ocr/cube/sizemodel"
	"github.com/cube-ocr/cube/tuning"
	"github.com/cube-ocr/cube/unigrams"
)

// ReadOrder is a language's script direction. It is an alias for
// searchobj.ReadingOrder so a *RecoContext satisfies searchobj.Context
// directly, with no conversion at the call site.
type ReadOrder = searchobj.ReadingOrder

const (
	LeftToRight = searchobj.LeftToRight
	RightToLeft = searchobj.RightToLeft
)

// RecoContext bundles every model loaded for one language, plus the
// runtime flags (size normalization, noisy input) a caller can toggle
// after construction. The accessors below delegate the four
// word/number/OOD/punctuation toggles to the language model and case
// sensitivity to the classifier, rather than tracking them twice.
type RecoContext struct {
	lang          string
	charSet       *charset.CharSet
	langModel     *langmodel.TrieModel
	classifier    *classifier.Classifier
	sizeModel     *sizemodel.SizeModel
	bigrams       *bigrams.CharBigrams
	wordUnigrams  *unigrams.WordUnigrams
	params        tuning.Params

	sizeNormalization bool
	noisyInput        bool
}

// Lang is the language code this context was loaded for.
func (rc *RecoContext) Lang() string { return rc.lang }

// CharacterSet is the loaded class table.
func (rc *RecoContext) CharacterSet() *charset.CharSet { return rc.charSet }

// LangMod is the loaded language model.
func (rc *RecoContext) LangMod() *langmodel.TrieModel { return rc.langModel }

// Classifier is the loaded neural-net classifier.
func (rc *RecoContext) Classifier() *classifier.Classifier { return rc.classifier }

// SizeModel is the loaded size model, or nil if the language has none.
func (rc *RecoContext) SizeModel() *sizemodel.SizeModel { return rc.sizeModel }

// Bigrams is the loaded char-bigram table, or nil if the language has none.
func (rc *RecoContext) Bigrams() *bigrams.CharBigrams { return rc.bigrams }

// WordUnigramsObj is the loaded word-unigram table, or nil if the language
// has none.
func (rc *RecoContext) WordUnigramsObj() *unigrams.WordUnigrams { return rc.wordUnigrams }

// Params is the loaded tuning parameters.
func (rc *RecoContext) Params() tuning.Params { return rc.params }

// ReadingOrder is right-to-left for Arabic, left-to-right otherwise.
func (rc *RecoContext) ReadingOrder() ReadOrder {
	if rc.lang == "ara" {
		return RightToLeft
	}
	return LeftToRight
}

// HasCase reports whether the language distinguishes upper/lower case.
func (rc *RecoContext) HasCase() bool {
	return rc.lang != "ara" && rc.lang != "hin"
}

// Cursive reports whether adjacent characters join, as in Arabic script.
func (rc *RecoContext) Cursive() bool { return rc.lang == "ara" }

// HasItalics reports whether the language's font set includes an italic
// variant.
func (rc *RecoContext) HasItalics() bool {
	return rc.lang != "ara" && rc.lang != "hin" && rc.lang != "uk"
}

// Contextual reports whether a character's shape depends on its position
// in the word, as in Arabic script.
func (rc *RecoContext) Contextual() bool { return rc.lang == "ara" }

// SizeNormalization reports whether recognition should normalize sample
// size before classification.
func (rc *RecoContext) SizeNormalization() bool { return rc.sizeNormalization }

// SetSizeNormalization toggles SizeNormalization.
func (rc *RecoContext) SetSizeNormalization(enabled bool) { rc.sizeNormalization = enabled }

// NoisyInput reports whether the search should tolerate paths ending
// mid-word, not just at a valid end-of-word edge.
func (rc *RecoContext) NoisyInput() bool { return rc.noisyInput }

// SetNoisyInput toggles NoisyInput.
func (rc *RecoContext) SetNoisyInput(enabled bool) { rc.noisyInput = enabled }

// OOD, Numeric, WordList, and Punc delegate to the language model: they
// report whether out-of-dictionary, numeric, word-list, and punctuation
// paths are currently enabled in the search.
func (rc *RecoContext) OOD() bool      { return rc.langModel.OOD() }
func (rc *RecoContext) Numeric() bool  { return rc.langModel.Numeric() }
func (rc *RecoContext) WordList() bool { return rc.langModel.WordList() }
func (rc *RecoContext) Punc() bool     { return rc.langModel.Punc() }

func (rc *RecoContext) SetOOD(enabled bool)      { rc.langModel.SetOOD(enabled) }
func (rc *RecoContext) SetNumeric(enabled bool)  { rc.langModel.SetNumeric(enabled) }
func (rc *RecoContext) SetWordList(enabled bool) { rc.langModel.SetWordList(enabled) }
func (rc *RecoContext) SetPunc(enabled bool)     { rc.langModel.SetPunc(enabled) }

// CaseSensitive delegates to the classifier.
func (rc *RecoContext) CaseSensitive() bool { return rc.classifier.CaseSensitive() }

// SetCaseSensitive delegates to the classifier.
func (rc *RecoContext) SetCaseSensitive(sensitive bool) { rc.classifier.SetCaseSensitive(sensitive) }

// GetDataFilePath joins dataDir and lang the way every <lang>.cube.* file
// name is built.
func GetDataFilePath(dataDir, lang, suffix string) string {
	return filepath.Join(dataDir, lang+suffix)
}

// Load assembles a RecoContext for lang out of dataDir, in the fixed order
// dependencies require: the character set first (everything else names
// classes by id into it), the language model next (read right after the
// character set and before the classifier -- preserved exactly as laid
// out rather than reordered), then the three optional cost models,
// required tuning parameters, and finally the classifier, which needs the
// character set and the tuning parameters' feature selector.
func Load(dataDir, lang string) (*RecoContext, error) {
	charSetPath := GetDataFilePath(dataDir, lang, ".unicharset")
	cs, err := charset.Load(charSetPath)
	if err != nil {
		return nil, err
	}

	lmPath := GetDataFilePath(dataDir, lang, ".cube.lm")
	dawgPath := GetDataFilePath(dataDir, lang, ".cube.lm.dawg")
	var dawgPaths []string
	if _, err := os.Stat(dawgPath); err == nil {
		dawgPaths = append(dawgPaths, dawgPath)
	}
	lm, err := langmodel.Load(lmPath, cs, dawgPaths...)
	if err != nil {
		return nil, err
	}
	// The language model file is read a second time here, after the model
	// itself is built; the contents are discarded and only a read failure
	// is reported -- a quirk of the original's load order, preserved rather
	// than collapsed into the single read above.
	if _, err := os.ReadFile(lmPath); err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMissing, lmPath)
	}

	bg, err := loadOptionalBigrams(dataDir, lang)
	if err != nil {
		return nil, err
	}
	wu, err := loadOptionalUnigrams(dataDir, lang)
	if err != nil {
		return nil, err
	}
	sm, err := loadOptionalSizeModel(dataDir, lang)
	if err != nil {
		return nil, err
	}

	params, err := tuning.Load(dataDir, lang)
	if err != nil {
		return nil, err
	}
	lm.SetWeights(params.OODWgt, params.NumWgt)

	extractor := newExtractor(params)
	clsf, err := classifier.Load(dataDir, lang, cs, extractor)
	if err != nil {
		return nil, err
	}

	return &RecoContext{
		lang:         lang,
		charSet:      cs,
		langModel:    lm,
		classifier:   clsf,
		sizeModel:    sm,
		bigrams:      bg,
		wordUnigrams: wu,
		params:       params,
	}, nil
}

func newExtractor(params tuning.Params) classifier.Extractor {
	switch params.FeatureType {
	case tuning.FeatureChebyshev:
		return classifier.NewChebyshevExtractor()
	case tuning.FeatureHybrid:
		return classifier.NewHybridExtractor(params.ConvGridSize)
	default:
		return classifier.NewBmpExtractor(params.ConvGridSize)
	}
}

func loadOptionalBigrams(dataDir, lang string) (*bigrams.CharBigrams, error) {
	path := GetDataFilePath(dataDir, lang, ".cube.bigrams")
	bg, err := bigrams.Load(path)
	if err == nil {
		return bg, nil
	}
	if errors.Is(err, cuberr.ErrLoadMissing) {
		return nil, nil
	}
	return nil, err
}

func loadOptionalUnigrams(dataDir, lang string) (*unigrams.WordUnigrams, error) {
	path := GetDataFilePath(dataDir, lang, ".cube.word-freq")
	wu, err := unigrams.Load(path, cost.MinProbCost)
	if err == nil {
		return wu, nil
	}
	if errors.Is(err, cuberr.ErrLoadMissing) {
		return nil, nil
	}
	return nil, err
}

func loadOptionalSizeModel(dataDir, lang string) (*sizemodel.SizeModel, error) {
	path := GetDataFilePath(dataDir, lang, ".cube.size")
	sm, err := sizemodel.Load(path)
	if err == nil {
		return sm, nil
	}
	if errors.Is(err, cuberr.ErrLoadMissing) {
		return nil, nil
	}
	return nil, err
}
