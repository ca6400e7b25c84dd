// Package unigrams implements WordUnigrams (§4.4): a sorted word list with
// parallel integer costs, used as one of the four weighted cost streams.
package unigrams

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/utf32"
)

const minLengthCaseInvariant = 4

// WordUnigrams is a lexicographically sorted word list with parallel
// integer costs, supporting binary-search lookup.
type WordUnigrams struct {
	words         []string
	costs         []int
	notInListCost int
}

// Load reads <lang>.cube.word-freq: first token is the word count, then
// one "<utf8> <cost>" line per word, already sorted by the data producer.
func Load(path string, notInListCost int) (*WordUnigrams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMissing, path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": empty file")
	}
	count, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: invalid word count: %v", path, err))
	}

	w := &WordUnigrams{notInListCost: notInListCost}
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed,
				fmt.Sprintf("%s:%d: expected '<utf8> <cost>', got %q", path, lineNo, line))
		}
		c, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s:%d: bad cost: %v", path, lineNo, err))
		}
		w.words = append(w.words, fields[0])
		w.costs = append(w.costs, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}
	if len(w.words) != count {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed,
			fmt.Sprintf("%s: header declared %d words, found %d", path, count, len(w.words)))
	}
	if !sort.StringsAreSorted(w.words) {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": word list must be sorted")
	}
	return w, nil
}

// costInternal binary-searches the sorted words array.
func (w *WordUnigrams) costInternal(token string) int {
	i := sort.SearchStrings(w.words, token)
	if i < len(w.words) && w.words[i] == token {
		return w.costs[i]
	}
	return w.notInListCost
}

// stripTrailingPunct removes a single trailing non-letter/digit rune, if
// present, matching "strip one trailing punctuation codepoint per token".
func stripTrailingPunct(tok string) string {
	r := []rune(tok)
	if len(r) == 0 {
		return tok
	}
	last := r[len(r)-1]
	if !((last >= 'a' && last <= 'z') || (last >= 'A' && last <= 'Z') || (last >= '0' && last <= '9')) {
		return string(r[:len(r)-1])
	}
	return tok
}

// Cost tokenizes str32 on ASCII space, strips one trailing punctuation
// code point per token, and sums each token's binary-searched cost (or
// notInListCost if absent), also trying all-lower/all-upper variants for
// case-invariant tokens of minLengthCaseInvariant+ runes.
func (w *WordUnigrams) Cost(str32 []rune) int {
	s := string(str32)
	tokens := strings.Split(s, " ")
	total := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		tok = stripTrailingPunct(tok)
		tokRunes := []rune(tok)
		c := w.costInternal(tok)
		if len(tokRunes) >= minLengthCaseInvariant && utf32.IsCaseInvariant(tokRunes) {
			lower := string(utf32.ToLower(tokRunes))
			upper := string(utf32.ToUpper(tokRunes))
			if lc := w.costInternal(lower); lc < c {
				c = lc
			}
			if uc := w.costInternal(upper); uc < c {
				c = uc
			}
		}
		total += c
	}
	return total
}

// NotInListCost returns the constant cost assigned to out-of-list tokens.
func (w *WordUnigrams) NotInListCost() int { return w.notInListCost }
