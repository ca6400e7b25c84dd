package recocontext

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeMinimalLangData writes just enough of every required file for
// Load to succeed: a 2-class unicharset ("!" in the class-0 slot, plus
// "a"), an empty
// language-model params file, and a tuning params file overriding enough
// keys to clear the minimum-entry-count check.
func writeMinimalLangData(t *testing.T, dir, lang string) {
	t.Helper()
	writeFile(t, dir, lang+".unicharset", "2\n"+
		"! 0000 0,0,0,0 Common\n"+
		"a 0000 0,0,0,0 Latin\n")
	writeFile(t, dir, lang+".cube.lm", "")
	writeFile(t, dir, lang+".cube.params", `RecoWgt=1.0
SizeWgt=1.0
CharBigramsWgt=1.0
WordUnigramsWgt=0.0
MaxSegPerChar=8
BeamWidth=32
ConvGridSize=32
HistWindWid=1.0
`)
}

func TestLoadAssemblesEveryComponent(t *testing.T) {
	dir := t.TempDir()
	writeMinimalLangData(t, dir, "eng")

	rc, err := Load(dir, "eng")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if rc.Lang() != "eng" {
		t.Fatalf("Lang() = %q, want %q", rc.Lang(), "eng")
	}
	if rc.CharacterSet() == nil || rc.LangMod() == nil || rc.Classifier() == nil {
		t.Fatal("expected CharacterSet/LangMod/Classifier to all be populated")
	}
	// the three cost models are optional and none of their files were
	// written, so all three must come back nil rather than erroring.
	if rc.SizeModel() != nil || rc.Bigrams() != nil || rc.WordUnigramsObj() != nil {
		t.Fatal("expected optional cost models to be nil when their files are absent")
	}
}

func TestLoadFailsOnMissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	writeMinimalLangData(t, dir, "eng")
	if err := os.Remove(filepath.Join(dir, "eng.cube.params")); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir, "eng"); err == nil {
		t.Fatal("expected Load() to fail with tuning params missing")
	}
}

func TestLanguageFlagsDefaultLeftToRight(t *testing.T) {
	dir := t.TempDir()
	writeMinimalLangData(t, dir, "eng")
	rc, err := Load(dir, "eng")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if rc.ReadingOrder() != LeftToRight {
		t.Fatalf("ReadingOrder() = %v, want LeftToRight", rc.ReadingOrder())
	}
	if !rc.HasCase() || rc.Cursive() || !rc.HasItalics() || rc.Contextual() {
		t.Fatal("eng should have case and italics but not be cursive or contextual")
	}
}

func TestLanguageFlagsArabicIsRightToLeftAndCursive(t *testing.T) {
	dir := t.TempDir()
	writeMinimalLangData(t, dir, "ara")
	rc, err := Load(dir, "ara")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if rc.ReadingOrder() != RightToLeft {
		t.Fatalf("ReadingOrder() = %v, want RightToLeft", rc.ReadingOrder())
	}
	if rc.HasCase() || !rc.Cursive() || rc.HasItalics() || !rc.Contextual() {
		t.Fatal("ara should be cursive, contextual, and have neither case nor italics")
	}
}

func TestRuntimeFlagTogglesDelegateToComponents(t *testing.T) {
	dir := t.TempDir()
	writeMinimalLangData(t, dir, "eng")
	rc, err := Load(dir, "eng")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	rc.SetSizeNormalization(true)
	if !rc.SizeNormalization() {
		t.Fatal("SetSizeNormalization(true) did not stick")
	}
	rc.SetNoisyInput(true)
	if !rc.NoisyInput() {
		t.Fatal("SetNoisyInput(true) did not stick")
	}

	rc.SetOOD(false)
	if rc.OOD() {
		t.Fatal("SetOOD(false) should be visible through OOD() via the language model")
	}
	rc.SetCaseSensitive(false)
	if rc.CaseSensitive() {
		t.Fatal("SetCaseSensitive(false) should be visible through CaseSensitive() via the classifier")
	}
}
