package charset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/utf32"
)

// Load reads a <lang>.unicharset file (§6): line 1 is the class count,
// then one line per class of
//
//	<utf8> <hexflags> <min_bot>,<max_bot>,<min_top>,<max_top>[,...] <script_name> <other_case_id> [<direction> <mirror_id> <normed_utf8>]
//
// Class id 0 is reserved for space and must be the first data line.
func Load(path string) (*CharSet, error) {
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
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: invalid class count: %v", path, err))
	}

	cs := New()
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed,
				fmt.Sprintf("%s:%d: expected at least 4 fields, got %d", path, lineNo, len(fields)))
		}
		str := utf32.FromUTF8(fields[0])
		// fields[1] = hexflags, fields[2] = bounding box tuple, fields[3] = script name,
		// optional fields[4] = other_case_id. None of these is tracked here:
		// the external id recorded for each class is its position among the
		// file's class lines, which is the id the surrounding system's
		// unicharset gives it.
		cs.AddClass(str, len(cs.classes))
	}
	if err := scanner.Err(); err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}
	if cs.ClassCount() != count {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed,
			fmt.Sprintf("%s: header declared %d classes, found %d", path, count, cs.ClassCount()))
	}
	return cs, nil
}
