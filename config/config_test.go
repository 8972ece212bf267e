package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTarget(t *testing.T) {
	d := Default()
	if !d.IsGap() || !d.IsBlock2() || d.IsRaytheon() {
		t.Fatalf("got %+v", d)
	}
}

func TestIsYul(t *testing.T) {
	for _, v := range []Variant{VariantY1965, VariantY1966, VariantY1966L, VariantY1966E, VariantY1967} {
		tgt := Target{Variant: v}
		if !tgt.IsYul() {
			t.Errorf("%v should be a YUL variant", v)
		}
	}
	if (Target{Variant: VariantGAP}).IsYul() {
		t.Errorf("GAP should not be a YUL variant")
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	tgt, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if tgt != Default() {
		t.Fatalf("got %+v", tgt)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	tgt, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tgt != Default() {
		t.Fatalf("got %+v", tgt)
	}
}

func TestLoadOverridesDefaultFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.toml")
	contents := "origin = \"Raytheon\"\nblock = \"BLK1\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tgt, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !tgt.IsRaytheon() || !tgt.IsBlock1() {
		t.Fatalf("got %+v", tgt)
	}
	if !tgt.IsGap() {
		t.Fatalf("expected untouched fields to keep their default, got %+v", tgt)
	}
}

func TestIsMainFile(t *testing.T) {
	tgt := Default()
	if !tgt.IsMainFile("LUNAR/MAIN.agc") {
		t.Fatalf("expected MAIN.agc suffix to match")
	}
	if tgt.IsMainFile("LUNAR/SUBROUTINE.agc") {
		t.Fatalf("expected non-main file to not match")
	}
}
