/*
Copyright © 2019 the AMRmap authors.
This file is part of AMRmap.

AMRmap is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AMRmap is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AMRmap.  If not, see <http://www.gnu.org/licenses/>.
*/

package amrmaputil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/amrmap"
	"github.com/spf13/cast"
)

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkInputFile makes sure that the input file is specified and expands
// any environment variables.
func checkInputFile(name, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("amrmap: you need to specify the %s configuration variable", name)
	}
	return os.ExpandEnv(f), nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`amrmap: you need to specify an output file configuration variable (for example: OutputFile="output.ncf")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("amrmap: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// directionFile returns the output file for the projection along dir.
// When only one direction is projected, the output file is used as is.
func directionFile(outputFile, dir string, n int) string {
	if n == 1 {
		return outputFile
	}
	ext := filepath.Ext(outputFile)
	return strings.TrimSuffix(outputFile, ext) + "_" + dir + ext
}

// toFloat64SliceE converts a configuration value into a slice of floats.
// Strings may hold a JSON array or comma-separated values, as they do
// when set from a command line argument.
func toFloat64SliceE(v interface{}) ([]float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return t, nil
	case []interface{}:
		o := make([]float64, len(t))
		for i, val := range t {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, err
			}
			o[i] = f
		}
		return o, nil
	case []string:
		o := make([]float64, len(t))
		for i, val := range t {
			f, err := cast.ToFloat64E(strings.TrimSpace(val))
			if err != nil {
				return nil, err
			}
			o[i] = f
		}
		return o, nil
	case string:
		s := strings.TrimSpace(os.ExpandEnv(t))
		if s == "" {
			return nil, nil
		}
		if strings.HasPrefix(s, "[") {
			var o []float64
			if err := json.Unmarshal([]byte(s), &o); err != nil {
				return nil, err
			}
			return o, nil
		}
		return toFloat64SliceE(strings.Split(s, ","))
	default:
		return nil, fmt.Errorf("invalid type %T for a list of numbers", v)
	}
}

// parseCenter parses a center configuration value. The keywords "bc",
// ":bc", and "boxcenter" mean the center of the box, as does an empty
// value.
func parseCenter(v interface{}) ([]float64, error) {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "bc", ":bc", "boxcenter":
			return nil, nil
		}
	}
	c, err := toFloat64SliceE(v)
	if err != nil {
		return nil, fmt.Errorf("Center: %v", err)
	}
	return c, nil
}

// parseModes parses reduction mode names. An empty name means the
// default mode of the variable.
func parseModes(names []string) ([]amrmap.Mode, error) {
	if len(names) == 0 {
		return nil, nil
	}
	o := make([]amrmap.Mode, len(names))
	for i, n := range names {
		m, err := amrmap.ParseMode(n)
		if err != nil {
			return nil, err
		}
		o[i] = m
	}
	return o, nil
}

// scaleFile is the format of scale table files, for example:
//
//	[scales.kpc]
//	factor = 3.08e21
//	dimension = "length"
type scaleFile struct {
	Scales map[string]struct {
		Factor    float64
		Dimension string
	}
}

// ReadScaleTable reads a scale table from the TOML file at path.
func ReadScaleTable(path string) (amrmap.ScaleTable, error) {
	var sf scaleFile
	if _, err := toml.DecodeFile(os.ExpandEnv(path), &sf); err != nil {
		return nil, fmt.Errorf("amrmap: reading scale file: %w", err)
	}
	s := amrmap.NewScaleTable()
	for sym, sc := range sf.Scales {
		dims, ok := amrmap.DimensionsByName(sc.Dimension)
		if !ok {
			return nil, fmt.Errorf("amrmap: scale file: unit %q has unknown dimension %q", sym, sc.Dimension)
		}
		if err := s.Add(sym, sc.Factor, dims); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// scaleTable returns the scale table named by the ScaleFile configuration
// variable, or nil if it is not set.
func scaleTable(cfg *viper.Viper) (amrmap.ScaleTable, error) {
	f := cfg.GetString("ScaleFile")
	if f == "" {
		return nil, nil
	}
	return ReadScaleTable(f)
}

// loadCellTable reads the cell table named by the CellTable configuration
// variable, adding the units in the scale file if there is one.
func loadCellTable(cfg *viper.Viper) (*amrmap.CellTable, error) {
	path, err := checkInputFile("CellTable", cfg.GetString("CellTable"))
	if err != nil {
		return nil, err
	}
	scales, err := scaleTable(cfg)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("amrmap: problem loading cell table: %w", err)
	}
	defer f.Close()
	return ReadCellTable(f, scales)
}

// gapFillConfig unmarshals the gap filling configuration.
func gapFillConfig(cfg *viper.Viper) amrmap.GapFill {
	return amrmap.GapFill{
		Enabled:      cfg.GetBool("GapFill.Enabled"),
		Threshold:    cfg.GetFloat64("GapFill.Threshold"),
		MinNeighbors: cfg.GetInt("GapFill.MinNeighbors"),
		Connectivity: cfg.GetInt("GapFill.Connectivity"),
	}
}

// RequestConfig unmarshals a viper configuration for a projection. It
// returns the request and the directions to project along.
func RequestConfig(cfg *viper.Viper) (*amrmap.Request, []string, error) {
	modes, err := parseModes(expandStringSlice(cfg.GetStringSlice("Modes")))
	if err != nil {
		return nil, nil, fmt.Errorf("Modes: %v", err)
	}
	strategy, err := amrmap.ParseStrategy(cfg.GetString("Strategy"))
	if err != nil {
		return nil, nil, fmt.Errorf("Strategy: %v", err)
	}
	center, err := parseCenter(cfg.Get("Center"))
	if err != nil {
		return nil, nil, err
	}
	req := &amrmap.Request{
		Variables:  expandStringSlice(cfg.GetStringSlice("Variables")),
		Units:      expandStringSlice(cfg.GetStringSlice("Units")),
		Modes:      modes,
		Weight:     cfg.GetString("Weight"),
		WeightUnit: cfg.GetString("WeightUnit"),
		Resolution: cfg.GetInt("Resolution"),
		PixelSize:  cfg.GetFloat64("PixelSize"),
		Center:     center,
		RangeUnit:  cfg.GetString("RangeUnit"),
		LevelMax:   cfg.GetInt("LevelMax"),
		Threads:    cfg.GetInt("Threads"),
		Strategy:   strategy,
		GapFill:    gapFillConfig(cfg),
		Verbose:    cfg.GetBool("Verbose"),
	}
	ranges := []*[]float64{&req.XRange, &req.YRange, &req.ZRange}
	for i, name := range []string{"XRange", "YRange", "ZRange"} {
		r, err := toFloat64SliceE(cfg.Get(name))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %v", name, err)
		}
		*ranges[i] = r
	}
	if len(req.Variables) == 0 {
		return nil, nil, fmt.Errorf("amrmap: there are no variables specified. Please fill in " +
			"the Variables configuration and try again")
	}
	dirs := expandStringSlice(cfg.GetStringSlice("Directions"))
	if len(dirs) == 0 {
		dirs = []string{"z"}
	}
	for _, d := range dirs {
		if _, err := amrmap.ParseDirection(d); err != nil {
			return nil, nil, err
		}
	}
	return req, dirs, nil
}

// ProfileConfig unmarshals a viper configuration for a radial profile.
func ProfileConfig(cfg *viper.Viper) (*amrmap.ProfileRequest, error) {
	modes, err := parseModes(expandStringSlice(cfg.GetStringSlice("Modes")))
	if err != nil {
		return nil, fmt.Errorf("Modes: %v", err)
	}
	center, err := parseCenter(cfg.Get("Center"))
	if err != nil {
		return nil, err
	}
	req := &amrmap.ProfileRequest{
		Variables:  expandStringSlice(cfg.GetStringSlice("Variables")),
		Units:      expandStringSlice(cfg.GetStringSlice("Units")),
		Modes:      modes,
		Weight:     cfg.GetString("Weight"),
		WeightUnit: cfg.GetString("WeightUnit"),
		Kind:       cfg.GetString("Profile.Kind"),
		Axis:       cfg.GetString("Profile.Axis"),
		Center:     center,
		RangeUnit:  cfg.GetString("RangeUnit"),
		RMin:       cfg.GetFloat64("Profile.RMin"),
		RMax:       cfg.GetFloat64("Profile.RMax"),
		Bins:       cfg.GetInt("Profile.Bins"),
		LogBins:    cfg.GetBool("Profile.Log"),
		Threads:    cfg.GetInt("Threads"),
		Verbose:    cfg.GetBool("Verbose"),
	}
	if len(req.Variables) == 0 {
		return nil, fmt.Errorf("amrmap: there are no variables specified. Please fill in " +
			"the Variables configuration and try again")
	}
	return req, nil
}

// SyntheticConfig unmarshals a viper configuration for a synthetic
// cell table.
func SyntheticConfig(cfg *viper.Viper) (amrmap.SyntheticConfig, error) {
	scales, err := scaleTable(cfg)
	if err != nil {
		return amrmap.SyntheticConfig{}, err
	}
	c := amrmap.SyntheticConfig{
		BoxLength:   cfg.GetFloat64("Synth.BoxLength"),
		Lmin:        cfg.GetInt("Synth.Lmin"),
		Lmax:        cfg.GetInt("Synth.Lmax"),
		Radius:      cfg.GetFloat64("Synth.Radius"),
		CoreRadius:  cfg.GetFloat64("Synth.CoreRadius"),
		Omega:       cfg.GetFloat64("Synth.Omega"),
		Temperature: cfg.GetFloat64("Synth.Temperature"),
		Scales:      scales,
	}
	if !(c.BoxLength > 0) {
		return c, fmt.Errorf("parsing synthetic configuration: Synth.BoxLength=%g but should be >0", c.BoxLength)
	}
	return c, nil
}
