package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notargets/hp1d/adapt"
	"github.com/notargets/hp1d/ftr"
	"github.com/notargets/hp1d/linalg"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/newton"
	"github.com/notargets/hp1d/problems/firstorder"
)

var (
	odeSystem string
	outPath   string
)

var odeCmd = &cobra.Command{
	Use:   "ode",
	Short: "Solve y' = f(y,x) with hp-adaptivity",
	RunE:  runODE,
}

func odeSystemByName(name string) (firstorder.System, error) {
	switch strings.ToLower(name) {
	case "riccati":
		return firstorder.Riccati(), nil
	case "oscillator":
		return firstorder.Oscillator(), nil
	}
	return firstorder.System{}, fmt.Errorf("unknown ODE system %q", name)
}

// odeLoop wires the configuration into an adaptivity loop
func odeLoop(sys firstorder.System, log *zap.Logger) (*adapt.Loop, error) {
	mode, err := adapt.ParseMode(cfg.Adapt.Mode)
	if err != nil {
		return nil, err
	}
	norm, err := ftr.ParseNorm(cfg.Adapt.Norm)
	if err != nil {
		return nil, err
	}
	backend, err := linalg.ParseKind(cfg.Solver.Backend)
	if err != nil {
		return nil, err
	}
	prob := firstorder.New(sys)
	coarse := newton.Options{Tol: cfg.Newton.Tol, MaxIter: cfg.Newton.MaxIter, Backend: backend, Logger: log}
	fine := coarse
	fine.Tol = cfg.Newton.TolRef
	return &adapt.Loop{
		Problem: prob,
		Coarse:  coarse,
		Estimator: ftr.Estimator{
			Problem: prob,
			Newton:  fine,
			Norm:    norm,
			Mode:    mode.RefineMode(),
			Workers: cfg.Adapt.Workers,
			Logger:  log,
		},
		Adapt:    adapt.Options{Mode: mode, Threshold: cfg.Adapt.Threshold, Logger: log},
		TolFTR:   cfg.Adapt.TolFTR,
		MaxSteps: cfg.Adapt.MaxSteps,
		Exact:    sys.Exact,
		Logger:   log,
	}, nil
}

func runODE(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sys, err := odeSystemByName(odeSystem)
	if err != nil {
		return err
	}
	mc := cfg.Mesh
	if mc.Equations != sys.NEq {
		return fmt.Errorf("system %s has %d equations, configuration has %d", odeSystem, sys.NEq, mc.Equations)
	}
	m, err := mesh.New(mc.A, mc.B, mc.Elements, mc.Order, mc.Equations, 1)
	if err != nil {
		return err
	}
	for c, y0 := range mc.Initial {
		m.SetBCLeftDirichlet(c, y0)
	}

	loop, err := odeLoop(sys, logger)
	if err != nil {
		return err
	}
	hist, err := loop.Run(ctx, m)
	for _, st := range hist {
		fmt.Fprintf(cmd.OutOrStdout(), "step %3d  ndof %5d  ftr %.6e  exact %.6e  newton %d\n",
			st.Step, st.NDOF, st.MaxError, st.ExactRelError, st.NewtonIterations)
	}
	if err != nil {
		return err
	}
	logger.Info("adaptivity finished",
		zap.Int("steps", len(hist)),
		zap.Int("ndof", m.NumDOFs()),
		zap.Int("elements", m.NumActive()))
	return writeSolution(outPath, m, 0)
}
