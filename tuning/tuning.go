// Package tuning implements TuningParams (§4.12, §6): every weight and
// structural knob learned offline and shipped as a <lang>.cube.params
// file, plus the classifier/feature-type selectors that pick which
// concrete classifier and feature extractor a RecoContext wires up.
package tuning

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/internal/config"
)

// ClassifierType selects the concrete CharClassifier implementation.
type ClassifierType int

const (
	ClassifierNN ClassifierType = iota
	ClassifierHybridNN
)

// FeatureType selects the concrete feature extractor.
type FeatureType int

const (
	FeatureBMP FeatureType = iota
	FeatureChebyshev
	FeatureHybrid
)

// Params holds every tunable value, defaulted exactly as
// CubeTuningParams's constructor does, then overridden by whatever keys
// appear in the loaded file.
type Params struct {
	RecoWgt               float64
	SizeWgt               float64
	CharBigramsWgt        float64
	WordUnigramsWgt       float64
	MaxSegPerChar         int
	BeamWidth             int
	Classifier            ClassifierType
	FeatureType           FeatureType
	ConvGridSize          int
	HistWindWid           float64
	MinConCompSize        float64
	MaxWordAspectRatio    float64
	MinSpaceHeightRatio   float64
	MaxSpaceHeightRatio   float64
	CombinerRunThresh     float64
	CombinerClassifierThresh float64
	OODWgt                float64
	NumWgt                float64
}

// Default returns the hard-coded defaults CubeTuningParams's constructor
// assigns before any file is read.
func Default() Params {
	return Params{
		RecoWgt:                  1.0,
		SizeWgt:                  1.0,
		CharBigramsWgt:           1.0,
		WordUnigramsWgt:          0.0,
		MaxSegPerChar:            8,
		BeamWidth:                32,
		Classifier:               ClassifierNN,
		FeatureType:              FeatureBMP,
		ConvGridSize:             32,
		HistWindWid:              0,
		MaxWordAspectRatio:       10.0,
		MinSpaceHeightRatio:      0.2,
		MaxSpaceHeightRatio:      0.3,
		MinConCompSize:           0,
		CombinerRunThresh:        1.0,
		CombinerClassifierThresh: 0.5,
		OODWgt:                   1.0,
		NumWgt:                   1.0,
	}
}

// minRequiredEntries mirrors the original's sanity check that a params
// file has at least this many rows.
const minRequiredEntries = 8

// Load reads <dataPath>/<lang>.cube.params, starting from Default() and
// overriding only the keys present in the file. Unknown keys are a load
// error, matching the original's strict unknown-parameter rejection.
func Load(dataPath, lang string) (Params, error) {
	path := filepath.Join(dataPath, lang+".cube.params")
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, cuberr.Wrap(cuberr.ErrLoadMissing, path)
	}

	lines, err := config.ParseKeyValueLines(string(data))
	if err != nil {
		return Params{}, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}
	if len(lines) < minRequiredEntries {
		return Params{}, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: only %d entries, want at least %d", path, len(lines), minRequiredEntries))
	}

	p := Default()
	for _, kv := range lines {
		if err := p.apply(kv.Key, kv.Value); err != nil {
			return Params{}, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: line %d: %s", path, kv.Line, err))
		}
	}
	return p, nil
}

func (p *Params) apply(key, value string) error {
	asFloat := func() (float64, error) { return strconv.ParseFloat(value, 64) }

	switch key {
	case "RecoWgt":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.RecoWgt = v
	case "SizeWgt":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.SizeWgt = v
	case "CharBigramsWgt":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.CharBigramsWgt = v
	case "WordUnigramsWgt":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.WordUnigramsWgt = v
	case "MaxSegPerChar":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.MaxSegPerChar = int(v)
	case "BeamWidth":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.BeamWidth = int(v)
	case "Classifier":
		switch value {
		case "NN":
			p.Classifier = ClassifierNN
		case "HYBRID_NN":
			p.Classifier = ClassifierHybridNN
		default:
			return fmt.Errorf("invalid classifier type %q", value)
		}
	case "FeatureType":
		switch value {
		case "BMP":
			p.FeatureType = FeatureBMP
		case "CHEBYSHEV":
			p.FeatureType = FeatureChebyshev
		case "HYBRID":
			p.FeatureType = FeatureHybrid
		default:
			return fmt.Errorf("invalid feature type %q", value)
		}
	case "ConvGridSize":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.ConvGridSize = int(v)
	case "HistWindWid":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.HistWindWid = v
	case "MinConCompSize":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.MinConCompSize = v
	case "MaxWordAspectRatio":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.MaxWordAspectRatio = v
	case "MinSpaceHeightRatio":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.MinSpaceHeightRatio = v
	case "MaxSpaceHeightRatio":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.MaxSpaceHeightRatio = v
	case "CombinerRunThresh":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.CombinerRunThresh = v
	case "CombinerClassifierThresh":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.CombinerClassifierThresh = v
	case "OODWgt":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.OODWgt = v
	case "NumWgt":
		v, err := asFloat()
		if err != nil {
			return err
		}
		p.NumWgt = v
	default:
		return fmt.Errorf("unknown parameter %q", key)
	}
	return nil
}

// Save writes p back out in the same "Key=Value" line format Load reads,
// rounded to four decimal places like the original's "%.4f" format
// strings.
func (p Params) Save(dataPath, lang string) error {
	path := filepath.Join(dataPath, lang+".cube.params")
	lines := fmt.Sprintf(
		"RecoWgt=%.4f\nSizeWgt=%.4f\nCharBigramsWgt=%.4f\nWordUnigramsWgt=%.4f\n"+
			"MaxSegPerChar=%d\nBeamWidth=%d\nConvGridSize=%d\nHistWindWid=%.4f\n"+
			"MinConCompSize=%.4f\nMaxWordAspectRatio=%.4f\nMinSpaceHeightRatio=%.4f\n"+
			"MaxSpaceHeightRatio=%.4f\nCombinerRunThresh=%.4f\n"+
			"CombinerClassifierThresh=%.4f\nOODWgt=%.4f\nNumWgt=%.4f\n",
		p.RecoWgt, p.SizeWgt, p.CharBigramsWgt, p.WordUnigramsWgt,
		p.MaxSegPerChar, p.BeamWidth, p.ConvGridSize, p.HistWindWid,
		p.MinConCompSize, p.MaxWordAspectRatio, p.MinSpaceHeightRatio,
		p.MaxSpaceHeightRatio, p.CombinerRunThresh, p.CombinerClassifierThresh,
		p.OODWgt, p.NumWgt,
	)
	return os.WriteFile(path, []byte(lines), 0o644)
}
