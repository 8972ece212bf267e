// Package config describes the dialect/target configuration that
// drives assembler behavior (§6, §9 "Dialect dispatch"). Rather than
// subclassing per assembler variant, a single Target value is passed
// around and exposes capability predicates, the way the teacher's
// host/settings.go reflects over a tagged settings struct and the way
// BurntSushi/toml-backed config structs are conventionally declared.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Variant identifies the assembler lineage (§6).
type Variant string

const (
	VariantY1965 Variant = "Y1965"
	VariantY1966 Variant = "Y1966"
	VariantY1966L Variant = "Y1966L"
	VariantY1966E Variant = "Y1966E"
	VariantY1967 Variant = "Y1967"
	VariantGAP   Variant = "GAP"
)

// Block identifies the machine generation (§6).
type Block string

const (
	BlockI    Block = "BLK1"
	BlockII   Block = "BLK2"
)

// Origin identifies the source dialect of origin (§6).
type Origin string

const (
	OriginMIT       Origin = "MIT"
	OriginRaytheon  Origin = "Raytheon"
)

// Target is the frozen configuration consulted by every pipeline
// stage that must choose dialect-specific behavior.
type Target struct {
	Variant Variant `toml:"variant"`
	Block   Block   `toml:"block"`
	Origin  Origin  `toml:"origin"`

	// EmulateYUL66PaginationBug resolves the §9 open question: the
	// source documentation notes an off-by-one in the YUL66 xref
	// pagination and declines to reproduce it. Default false (fixed
	// behavior); set true to reproduce the historical bug for exact
	// comparison against archived printouts.
	EmulateYUL66PaginationBug bool `toml:"emulate_yul66_pagination_bug"`

	// MainFileSuffix names the aggregator file whose remarks are always
	// dropped rather than preserved (§4.1 rule 2).
	MainFileSuffix string `toml:"main_file_suffix"`
}

// Default returns the baseline Block II / GAP / MIT target.
func Default() Target {
	return Target{
		Variant:        VariantGAP,
		Block:          BlockII,
		Origin:         OriginMIT,
		MainFileSuffix: "MAIN.agc",
	}
}

// Load reads a Target from a TOML file, starting from Default() so that
// an incomplete file only overrides the fields it specifies.
func Load(path string) (Target, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return t, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return t, nil
}

// IsYul reports whether the target is a pre-1967 YUL variant.
func (t Target) IsYul() bool {
	switch t.Variant {
	case VariantY1965, VariantY1966, VariantY1966L, VariantY1966E, VariantY1967:
		return true
	default:
		return false
	}
}

// IsGap reports whether the target is the post-1967 GAP port.
func (t Target) IsGap() bool {
	return t.Variant == VariantGAP
}

// IsBlock1 reports whether the target is a Block I machine.
func (t Target) IsBlock1() bool {
	return t.Block == BlockI
}

// IsBlock2 reports whether the target is a Block II machine.
func (t Target) IsBlock2() bool {
	return t.Block == BlockII
}

// IsRaytheon reports whether the source origin allows decimal literals
// without a trailing D (§4.3 TOKEN classification).
func (t Target) IsRaytheon() bool {
	return t.Origin == OriginRaytheon
}

// IsMainFile reports whether filename is the aggregator file whose
// remarks are dropped by the lexer (§4.1 rule 2) rather than preserved.
func (t Target) IsMainFile(filename string) bool {
	suffix := t.MainFileSuffix
	if suffix == "" {
		suffix = "MAIN.agc"
	}
	n := len(filename)
	s := len(suffix)
	return n >= s && filename[n-s:] == suffix
}
