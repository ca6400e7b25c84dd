// Package sizemodel implements SizeModel (§4.2): a per-font table of
// character-bigram geometry used to score whether a candidate string's
// physical character sizes are self-consistent.
package sizemodel

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cube-ocr/cube/cost"
	"github.com/cube-ocr/cube/cuberr"
)

// PairSizeInfo is the 5-tuple geometry entry for one (size_code_0,
// size_code_1) pair under one font.
type PairSizeInfo struct {
	DeltaTop int
	Width0   int
	Height0  int
	Width1   int
	Height1  int
}

// Sample is the minimal per-character geometry the size model needs:
// bounding box and the size code (class id, optionally combined with
// start/end-of-word flags for cursive scripts).
type Sample struct {
	Left, Top, Width, Height int
	SizeCode                 int
}

// SizeCode composes a class id with start/end-of-word flags the way
// cursive languages need, mirroring word_size_model.h's SizeCode helper:
// (cls_id << 2) + (end << 1) + start.
func SizeCode(classID int, start, end bool) int {
	code := classID << 2
	if end {
		code += 2
	}
	if start {
		code += 1
	}
	return code
}

type font struct {
	name  string
	table map[[2]int]PairSizeInfo
}

// SizeModel holds, per known font, a table indexed by (size_code_0,
// size_code_1) pairs of PairSizeInfo.
type SizeModel struct {
	fonts []font
}

// Load reads <lang>.cube.size: one line per font+size-code-pair, each line
// "font_name size_code_0 size_code_1 delta_top width_0 height_0 width_1 height_1 ..."
// with 10 tokens (non-contextual) or 14 (contextual, with extra fields
// ignored beyond the 5-tuple geometry this model uses).
func Load(path string) (*SizeModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMissing, path)
	}
	defer f.Close()

	sm := &SizeModel{}
	fontIdx := map[string]int{}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 10 && len(fields) != 14 {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed,
				fmt.Sprintf("%s:%d: expected 10 or 14 tokens, got %d", path, lineNo, len(fields)))
		}
		fontName := fields[0]
		nums := make([]int, 0, 8)
		for _, tok := range fields[1:9] {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s:%d: bad integer %q: %v", path, lineNo, tok, err))
			}
			nums = append(nums, v)
		}
		code0, code1 := nums[0], nums[1]
		info := PairSizeInfo{DeltaTop: nums[2], Width0: nums[3], Height0: nums[4], Width1: nums[5], Height1: nums[6]}

		idx, ok := fontIdx[fontName]
		if !ok {
			idx = len(sm.fonts)
			fontIdx[fontName] = idx
			sm.fonts = append(sm.fonts, font{name: fontName, table: make(map[[2]int]PairSizeInfo)})
		}
		sm.fonts[idx].table[[2]int{code0, code1}] = info
	}
	if err := scanner.Err(); err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}
	if len(sm.fonts) == 0 {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": no font entries found")
	}
	return sm, nil
}

// FontCount reports how many fonts this model knows about.
func (sm *SizeModel) FontCount() int { return len(sm.fonts) }

// pairCost compares the observed geometry of a character pair against one
// font's expected entry for the pair's size codes, returning the summed
// absolute error (observed values scaled by the model/observed height
// ratio of the first character). Returns (0, false) when either first-
// character height is zero -- callers skip it.
func pairCost(s0, s1 Sample, info PairSizeInfo) (float64, bool) {
	if s0.Height == 0 {
		return 0, false
	}
	if info.Height0 == 0 {
		return 0, false
	}
	scale := float64(info.Height0) / float64(s0.Height)

	widthErr := math.Abs(scale*float64(s0.Width) - float64(info.Width0))
	nextHeightErr := math.Abs(scale*float64(s1.Height) - float64(info.Height1))
	nextWidthErr := math.Abs(scale*float64(s1.Width) - float64(info.Width1))
	topDelta := float64(s1.Top - s0.Top)
	topErr := math.Abs(scale*topDelta - float64(info.DeltaTop))

	return widthErr + nextWidthErr + nextHeightErr + topErr, true
}

// Cost scores a candidate string's char samples against every known font
// and returns the cheapest mean pair cost. Fewer than two characters means
// there are no adjacent pairs to score, so the cost is zero.
func (sm *SizeModel) Cost(samples []Sample) int {
	if len(samples) < 2 {
		return 0
	}
	best := math.Inf(1)
	for _, f := range sm.fonts {
		sum := 0.0
		pairs := 0
		for i := 0; i+1 < len(samples); i++ {
			s0, s1 := samples[i], samples[i+1]
			info, ok := f.table[[2]int{s0.SizeCode, s1.SizeCode}]
			if !ok {
				continue
			}
			c, ok := pairCost(s0, s1, info)
			if !ok {
				continue
			}
			sum += c
			pairs++
		}
		if pairs == 0 {
			continue
		}
		mean := sum / float64(pairs)
		if mean < best {
			best = mean
		}
	}
	if math.IsInf(best, 1) {
		return cost.WorstCost
	}
	return int(best)
}
