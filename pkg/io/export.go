package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/coloriage/pkg/feature"
	"github.com/matzehuels/coloriage/pkg/pipeline"
)

// WriteJSON encodes a pipeline result as indented JSON and writes it to w.
// The output can be read back with [ReadJSON].
func WriteJSON(res *pipeline.Result, w io.Writer) error {
	out := *res
	if out.PaletteHex == nil && out.Palette != nil {
		out.PaletteHex = out.Palette.Hex()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a pipeline result to a JSON file at path.
func ExportJSON(res *pipeline.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON decodes a result written by [WriteJSON]. The palette is restored
// from its hex form and the label grid is checked against the grid size.
func ReadJSON(r io.Reader) (*pipeline.Result, error) {
	var res pipeline.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(res.Labels) != res.GridWidth*res.GridHeight {
		return nil, fmt.Errorf("decode: %d labels for a %dx%d grid", len(res.Labels), res.GridWidth, res.GridHeight)
	}
	res.Palette = make(feature.Palette, len(res.PaletteHex))
	for i, s := range res.PaletteHex {
		c, err := feature.ParseHex(s)
		if err != nil {
			return nil, fmt.Errorf("palette %d: %w", i, err)
		}
		res.Palette[i] = c
	}
	for _, id := range res.Labels {
		if id < 0 || id >= len(res.Palette) {
			return nil, fmt.Errorf("decode: label %d outside palette of %d colors", id, len(res.Palette))
		}
	}
	return &res, nil
}

// ImportJSON reads a result from the JSON file at path.
func ImportJSON(path string) (*pipeline.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
