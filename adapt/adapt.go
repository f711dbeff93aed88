// Package adapt turns per-element FTR error estimates into h, p or hp
// refinements of the coarse mesh, and runs the outer adaptivity loop.
package adapt

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/notargets/hp1d/ftr"
	"github.com/notargets/hp1d/mesh"
)

var (
	ErrMaxSteps = errors.New("adapt: maximum number of adaptivity steps reached")
	ErrMismatch = errors.New("adapt: estimate does not match mesh")
)

// Mode is the adaptation strategy
type Mode uint8

const (
	ModeHP Mode = iota
	ModeH
	ModeP
)

func (md Mode) String() string {
	switch md {
	case ModeHP:
		return "hp"
	case ModeH:
		return "h"
	case ModeP:
		return "p"
	}
	return fmt.Sprintf("Mode(%d)", uint8(md))
}

// ParseMode converts a configuration string into a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hp":
		return ModeHP, nil
	case "h":
		return ModeH, nil
	case "p":
		return ModeP, nil
	}
	return 0, fmt.Errorf("adapt: unknown mode %q", s)
}

// RefineMode is the reference refinement the estimator should use so that
// its element pairs carry the information this mode needs
func (md Mode) RefineMode() mesh.RefineMode {
	switch md {
	case ModeH:
		return mesh.RefineH
	case ModeP:
		return mesh.RefineP
	}
	return mesh.RefineHP
}

type Options struct {
	Mode      Mode
	Threshold float64 // refine elements whose error exceeds Threshold*max
	Logger    *zap.Logger
}

// Report lists what one adaptation pass did
type Report struct {
	MaxError float64
	Refined  []int // coarse active positions, ascending
	Split    int
	Elevated int
}

// Candidates returns the active positions whose error exceeds
// threshold times the largest error
func Candidates(errs []float64, threshold float64) (ids []int, emax float64) {
	for _, e := range errs {
		emax = max(emax, e)
	}
	for i, e := range errs {
		if e > threshold*emax {
			ids = append(ids, i)
		}
	}
	return
}

// Adapt refines the candidate elements of m in place. In hp mode the
// reference pair decides: a split pair bisects the coarse element with the
// pair's orders and a single reference element raises the order to its
// order; the reference coefficients are transplanted either way. h mode
// bisects with unchanged order and p mode raises the order by one, both
// transferring the coarse solution exactly. DOFs are reassigned on return.
func Adapt(m *mesh.Mesh, est ftr.Estimate, opt Options) (rep Report, err error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	n := m.NumActive()
	if len(est.Errors) != n || (opt.Mode == ModeHP && len(est.Pairs) != n) {
		return rep, fmt.Errorf("%w: %d errors, %d pairs, %d active elements",
			ErrMismatch, len(est.Errors), len(est.Pairs), n)
	}
	rep.Refined, rep.MaxError = Candidates(est.Errors, opt.Threshold)

	// Right to left keeps the positions of unprocessed candidates valid
	for _, i := range slices.Backward(rep.Refined) {
		e, aerr := m.Active(i)
		if aerr != nil {
			return rep, aerr
		}
		switch opt.Mode {
		case ModeH:
			_, err = m.SplitActive(i, e.P, e.P)
			rep.Split++
		case ModeP:
			err = m.SetOrder(i, e.P+1)
			rep.Elevated++
		case ModeHP:
			err = applyPair(m, i, est.Pairs[i])
			if est.Pairs[i].Split() {
				rep.Split++
			} else {
				rep.Elevated++
			}
		default:
			err = fmt.Errorf("adapt: unknown mode %v", opt.Mode)
		}
		if err != nil {
			return
		}
		log.Debug("element refined", zap.Int("elem", i), zap.Stringer("mode", opt.Mode))
	}
	m.AssignDOFs()
	m.Synchronize(0)
	log.Info("mesh adapted",
		zap.Int("refined", len(rep.Refined)),
		zap.Int("split", rep.Split),
		zap.Int("elevated", rep.Elevated),
		zap.Int("ndof", m.NumDOFs()))
	return
}

func applyPair(m *mesh.Mesh, i int, pair ftr.Pair) error {
	switch len(pair.Elems) {
	case 1:
		ref := &pair.Elems[0]
		if err := m.SetOrder(i, ref.P); err != nil {
			return err
		}
		e, err := m.Active(i)
		if err != nil {
			return err
		}
		copyCoeffs(e.Coeffs, ref.Coeffs)
	case 2:
		sons, err := m.SplitActive(i, pair.Elems[0].P, pair.Elems[1].P)
		if err != nil {
			return err
		}
		for k, s := range sons {
			copyCoeffs(m.Element(s).Coeffs, pair.Elems[k].Coeffs)
		}
	default:
		return fmt.Errorf("%w: element %d has an empty reference pair", ErrMismatch, i)
	}
	return nil
}

func copyCoeffs(dst, src [][][]float64) {
	for s := range min(len(dst), len(src)) {
		for c := range min(len(dst[s]), len(src[s])) {
			copy(dst[s][c], src[s][c])
		}
	}
}
