package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/coloriage/pkg/errors"
	"github.com/matzehuels/coloriage/pkg/pipeline"
)

// optionsFromRequest merges query parameters and the options header.
func optionsFromRequest(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	if err := applyQuery(&opts, r.URL.Query()); err != nil {
		return opts, err
	}
	if h := r.Header.Get(OptionsHeader); h != "" {
		dec := json.NewDecoder(strings.NewReader(h))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&opts); err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s header", OptionsHeader)
		}
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func applyQuery(o *pipeline.Options, q url.Values) error {
	ints := map[string]*int{
		"columns":    &o.Columns,
		"colors":     &o.Colors,
		"max_iter":   &o.MaxIter,
		"contrast":   &o.Contrast,
		"saturation": &o.Saturation,
		"cell_size":  &o.CellSize,
	}
	for name, dst := range ints {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "%s: not an integer: %q", name, v)
			}
			*dst = n
		}
	}

	strs := map[string]*string{
		"feature_mode": &o.FeatureMode,
		"strategy":     &o.Strategy,
		"annotate":     &o.Annotate,
		"category":     &o.Category,
		"difficulty":   &o.Difficulty,
		"arithmetic":   &o.Arithmetic,
		"locale":       &o.Locale,
		"font":         &o.Font,
	}
	for name, dst := range strs {
		if v := q.Get(name); v != "" {
			*dst = v
		}
	}

	for name, dst := range map[string]*uint64{"seed": &o.Seed, "expr_seed": &o.ExprSeed} {
		if v := q.Get(name); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "%s: not an unsigned integer: %q", name, v)
			}
			*dst = n
		}
	}
	for name, dst := range map[string]*bool{"no_merge": &o.NoMerge, "refresh": &o.Refresh} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "%s: not a boolean: %q", name, v)
			}
			*dst = b
		}
	}
	if v := q.Get("targets"); v != "" {
		targets, err := parseFloats(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "targets")
		}
		o.Targets = targets
	}
	return nil
}

// parseFloats parses a comma-separated list. A decimal comma is not
// accepted here; use "2.5,4".
func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
