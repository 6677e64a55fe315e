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
	"fmt"
	"io"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/amrmap"
)

// newLogger returns a logger writing to out and, if logFile is not
// empty, to a rotating log file. The returned function closes the
// log file.
func newLogger(out io.Writer, logFile string, verbose bool) (*logrus.Logger, func()) {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	log.Level = logrus.InfoLevel
	if verbose {
		log.Level = logrus.DebugLevel
	}
	log.Out = out
	if logFile == "" {
		return log, func() {}
	}
	lj := &lumberjack.Logger{
		Filename: os.ExpandEnv(logFile),
		MaxSize:  100, // megabytes
		MaxAge:   28,  // days
	}
	log.Out = io.MultiWriter(out, lj)
	return log, func() { lj.Close() }
}

// Synth creates the synthetic cell table described by c and writes it
// to outputFile.
func Synth(c amrmap.SyntheticConfig, outputFile string, log logrus.FieldLogger) error {
	t, err := amrmap.SyntheticTable(c)
	if err != nil {
		return err
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("amrmap: problem creating output file: %w", err)
	}
	if err := WriteCellTable(f, t); err != nil {
		f.Close()
		return fmt.Errorf("amrmap: writing cell table: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"cells":  humanize.Comma(int64(t.Len())),
		"levels": t.LevelCounts(),
		"file":   outputFile,
	}).Info("amrmap: wrote synthetic cell table")
	return nil
}

// Project projects t along each of dirs as specified by req and writes
// one result file per direction. The directions share a resolver cache,
// so each variable is resolved only once.
func Project(t *amrmap.CellTable, req *amrmap.Request, dirs []string, outputFile string) error {
	start := time.Now()
	log := req.Log
	if log == nil {
		log, _ = newLogger(os.Stdout, "", false)
	}
	if req.Cache == nil {
		req.Cache = amrmap.NewResolverCache(t, len(req.Variables)+1)
	}
	for _, dir := range dirs {
		r := *req
		r.Direction = dir
		res, err := amrmap.Project(t, &r)
		if err != nil {
			return fmt.Errorf("amrmap: projecting along %s: %w", dir, err)
		}
		file := directionFile(outputFile, dir, len(dirs))
		if res.Nx == 0 || res.Ny == 0 {
			log.WithField("direction", dir).Warn("amrmap: projection has no pixels; not writing output")
			continue
		}
		f, err := os.Create(file)
		if err != nil {
			return fmt.Errorf("amrmap: problem creating output file: %w", err)
		}
		if err := WriteResult(f, res); err != nil {
			f.Close()
			return fmt.Errorf("amrmap: writing projection: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fields := logrus.Fields{
			"direction": dir,
			"nx":        res.Nx,
			"ny":        res.Ny,
			"cells":     humanize.Comma(int64(res.Selected)),
			"file":      file,
		}
		for v, total := range res.Totals {
			fields["total_"+v] = total
		}
		log.WithFields(fields).Info("amrmap: wrote projection")
	}
	cached, resolved := req.Cache.Requests()
	log.WithFields(logrus.Fields{
		"requests": cached,
		"resolved": resolved,
		"elapsed":  time.Since(start),
	}).Info("amrmap: projections complete")
	return nil
}

// Profile calculates the radial profile of t specified by req and writes
// it to outputFile.
func Profile(t *amrmap.CellTable, req *amrmap.ProfileRequest, outputFile string) error {
	p, err := amrmap.RadialProfile(t, req)
	if err != nil {
		return err
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("amrmap: problem creating output file: %w", err)
	}
	if err := WriteProfile(f, p); err != nil {
		f.Close()
		return fmt.Errorf("amrmap: writing profile: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if req.Log != nil {
		req.Log.WithFields(logrus.Fields{
			"kind":  p.Kind,
			"bins":  len(p.Edges) - 1,
			"cells": humanize.Comma(int64(p.Selected)),
			"file":  outputFile,
		}).Info("amrmap: wrote profile")
	}
	return nil
}

// Summary holds the statistics of one variable of a cell table.
type Summary struct {
	Variable string
	Unit     string

	// Sum is the sum over all cells. It is only calculated for
	// extensive variables.
	Extensive bool
	Sum       float64

	amrmap.Stats
}

// Stats returns a summary of each of vars in t, in the corresponding
// units, and logs it. Statistics are weighted by the weight variable,
// which defaults to mass.
func Stats(t *amrmap.CellTable, vars, units []string, weight, weightUnit string, log logrus.FieldLogger) ([]Summary, error) {
	if len(units) != 0 && len(units) != len(vars) {
		return nil, fmt.Errorf("amrmap: have %d units for %d variables", len(units), len(vars))
	}
	if weight == "" {
		weight = amrmap.DefaultWeight
	}
	o := make([]Summary, len(vars))
	for i, v := range vars {
		s := Summary{Variable: v, Unit: amrmap.StandardUnit}
		if len(units) != 0 && units[i] != "" {
			s.Unit = units[i]
		}
		info, _, err := t.UnitFactor(v, s.Unit)
		if err != nil {
			return nil, err
		}
		s.Extensive = info.Extensive
		if s.Extensive {
			if s.Sum, err = amrmap.Sum(t, v, s.Unit, nil); err != nil {
				return nil, err
			}
		}
		if s.Stats, err = amrmap.WeightedStats(t, v, s.Unit, weight, weightUnit, nil); err != nil {
			return nil, err
		}
		o[i] = s
		fields := logrus.Fields{
			"unit":   s.Unit,
			"weight": weight,
			"mean":   s.Mean,
			"std":    s.Std,
			"median": s.Median,
			"min":    s.Min,
			"max":    s.Max,
		}
		if s.Extensive {
			fields["sum"] = s.Sum
		}
		log.WithFields(fields).Infof("amrmap: %s", v)
	}
	return o, nil
}
