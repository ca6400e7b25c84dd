// Package bigrams implements CharBigrams (§4.3): a sparse table of
// char-to-char transition costs used as one of the four weighted cost
// streams the beam search combines.
package bigrams

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cube-ocr/cube/cost"
	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/utf32"
)

const minLengthCaseInvariant = 4

// CharBigrams is the loaded char-bigram cost table, keyed first on the
// leading code point then on the trailing one, mirroring the original's
// nested char_bigram/Bigram arrays but backed by Go maps since Cube
// languages have sparse, non-contiguous code point ranges (unlike the
// original's dense array-per-char-up-to-max_char layout).
type CharBigrams struct {
	pair      map[rune]map[rune]pairInfo
	totalCnt  int
	worstCost int
}

type pairInfo struct {
	count int
	cost  int
}

// Load reads <lang>.cube.bigrams: one "<count> <hex_cp1> <hex_cp2>" row per
// line.
func Load(path string) (*CharBigrams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMissing, path)
	}
	defer f.Close()

	type row struct {
		cnt      int
		ch1, ch2 rune
	}
	var rows []row
	total := 0

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed,
				fmt.Sprintf("%s:%d: expected 3 fields, got %d", path, lineNo, len(fields)))
		}
		cnt, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s:%d: bad count: %v", path, lineNo, err))
		}
		ch1, err := strconv.ParseInt(fields[1], 16, 32)
		if err != nil {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s:%d: bad hex cp1: %v", path, lineNo, err))
		}
		ch2, err := strconv.ParseInt(fields[2], 16, 32)
		if err != nil {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s:%d: bad hex cp2: %v", path, lineNo, err))
		}
		rows = append(rows, row{cnt: cnt, ch1: rune(ch1), ch2: rune(ch2)})
		total += cnt
	}
	if err := scanner.Err(); err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}

	b := &CharBigrams{
		pair:     make(map[rune]map[rune]pairInfo),
		totalCnt: total,
	}
	if total > 0 {
		b.worstCost = int(-cost.Scale * math.Log(0.5/float64(total)))
	} else {
		b.worstCost = cost.MinProbCost
	}
	for _, r := range rows {
		c := int(-cost.Scale * math.Log(math.Max(0.5, float64(r.cnt))/float64(total)))
		if b.pair[r.ch1] == nil {
			b.pair[r.ch1] = make(map[rune]pairInfo)
		}
		b.pair[r.ch1][r.ch2] = pairInfo{count: r.cnt, cost: c}
	}
	return b, nil
}

// PairCost returns the bigram cost of transitioning from ch1 to ch2, or
// worstCost if the pair was never observed.
func (b *CharBigrams) PairCost(ch1, ch2 rune) int {
	if inner, ok := b.pair[ch1]; ok {
		if p, ok := inner[ch2]; ok {
			return p.cost
		}
	}
	return b.worstCost
}

// meanCostWithSpaces computes pair_cost(' ', s[0]) + sum(pair_cost(s[i-1],
// s[i])) + pair_cost(s[-1], ' '), divided by len+1.
func (b *CharBigrams) meanCostWithSpaces(str []rune) int {
	if len(str) == 0 {
		return b.worstCost
	}
	total := b.PairCost(' ', str[0])
	for i := 1; i < len(str); i++ {
		total += b.PairCost(str[i-1], str[i])
	}
	total += b.PairCost(str[len(str)-1], ' ')
	return int(float64(total) / float64(len(str)+1))
}

// Cost computes the mean-with-spaces char bigram cost of a UTF-32 string,
// and -- for case-invariant strings at least minLengthCaseInvariant runes
// long -- also tries the all-lower and all-upper variants and returns the
// cheapest, so that case alone never penalizes an otherwise-plausible word.
func (b *CharBigrams) Cost(str []rune) int {
	if len(str) == 0 {
		return b.worstCost
	}
	c := b.meanCostWithSpaces(str)
	if len(str) >= minLengthCaseInvariant && utf32.IsCaseInvariant(str) {
		if lower := utf32.ToLower(str); len(lower) > 0 {
			if lc := b.meanCostWithSpaces(lower); lc < c {
				c = lc
			}
		}
		if upper := utf32.ToUpper(str); len(upper) > 0 {
			if uc := b.meanCostWithSpaces(upper); uc < c {
				c = uc
			}
		}
	}
	return c
}

// WorstCost returns the sentinel cost assigned to unseen pairs.
func (b *CharBigrams) WorstCost() int { return b.worstCost }
