package registry

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load builds the process registry: the built-in seed, extended by the YAML
// file at path when path is non-empty.
//
// The file may add marketplaces and violation types. Seeded entries are
// immutable: redefining one with a different payload is an error, repeating it
// verbatim is allowed. When the file lists action_thresholds they replace the
// built-in bands as a whole and go through the same coverage validation.
func Load(path string) (*Registry, error) {
	seed := DefaultSeed()
	if path == "" {
		return New(seed)
	}
	ext, err := ReadSeedFile(path)
	if err != nil {
		return nil, err
	}
	merged, err := Extend(seed, ext)
	if err != nil {
		return nil, err
	}
	return New(merged)
}

// ReadSeedFile decodes a YAML reference data file. Unknown keys are rejected.
func ReadSeedFile(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read reference data file: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes YAML reference data.
func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("%w: decode reference data: %v", ErrInvalidReferenceData, err)
	}
	return seed, nil
}

// Extend merges ext into base following the immutability rules described on
// Load.
func Extend(base, ext Seed) (Seed, error) {
	out := Seed{
		Marketplaces:     append([]Marketplace(nil), base.Marketplaces...),
		ViolationTypes:   append([]ViolationType(nil), base.ViolationTypes...),
		ActionThresholds: append([]ActionThreshold(nil), base.ActionThresholds...),
	}

	markets := make(map[string]Marketplace, len(out.Marketplaces))
	for _, m := range out.Marketplaces {
		markets[NormalizeMarketplaceCode(m.Code)] = m
	}
	for _, m := range ext.Marketplaces {
		code := NormalizeMarketplaceCode(m.Code)
		m.Code = code
		if existing, ok := markets[code]; ok {
			existing.Code = code
			if existing != m {
				return Seed{}, fmt.Errorf("%w: marketplace %q is already defined differently", ErrInvalidReferenceData, code)
			}
			continue
		}
		markets[code] = m
		out.Marketplaces = append(out.Marketplaces, m)
	}

	types := make(map[string]ViolationType, len(out.ViolationTypes))
	for _, vt := range out.ViolationTypes {
		types[normalizeCode(vt.Code)] = vt
	}
	for _, vt := range ext.ViolationTypes {
		code := normalizeCode(vt.Code)
		vt.Code = code
		if existing, ok := types[code]; ok {
			existing.Code = code
			if existing != vt {
				return Seed{}, fmt.Errorf("%w: violation type %q is already defined differently", ErrInvalidReferenceData, code)
			}
			continue
		}
		types[code] = vt
		out.ViolationTypes = append(out.ViolationTypes, vt)
	}

	if len(ext.ActionThresholds) > 0 {
		out.ActionThresholds = append([]ActionThreshold(nil), ext.ActionThresholds...)
	}
	return out, nil
}
