package cube

import (
	"testing"

	"github.com/cube-ocr/cube/internal/bitmap"
)

// lineWithTwoWords draws a two-character word (its characters close
// enough together to stay in one phrase) followed by a second word far
// enough away to exceed the default MaxSpaceHeightRatio gap threshold.
func lineWithTwoWords() *bitmap.Bmp8 {
	bmp := bitmap.New(100, 10)
	square := func(left int) {
		for y := 2; y < 8; y++ {
			for x := left; x < left+4; x++ {
				bmp.Set(x, y, 0)
			}
		}
	}
	square(2)  // word 1, char 1 (occupies x in [2,6))
	square(7)  // word 1, char 2 (gap of 1 from char 1 -- within a word)
	square(60) // word 2 (gap of 50 from word 1 -- well past any space threshold)
	return bmp
}

func TestSplitGroupsCloseComponentsAndBreaksOnWideGaps(t *testing.T) {
	ctx := loadTestContext(t)
	splitter := NewPhraseSplitter(ctx, lineWithTwoWords())

	phrases := splitter.Split()
	if len(phrases) != 2 {
		t.Fatalf("Split() returned %d phrases, want 2", len(phrases))
	}
	if phrases[0].Box.Left != 2 {
		t.Fatalf("first phrase left edge = %d, want 2", phrases[0].Box.Left)
	}
	if phrases[1].Box.Left != 60 {
		t.Fatalf("second phrase left edge = %d, want 60", phrases[1].Box.Left)
	}
}

func TestSplitOnEmptyLineReturnsNoPhrases(t *testing.T) {
	ctx := loadTestContext(t)
	splitter := NewPhraseSplitter(ctx, bitmap.New(20, 10))

	if phrases := splitter.Split(); phrases != nil {
		t.Fatalf("Split() = %v, want nil on an empty line", phrases)
	}
}
