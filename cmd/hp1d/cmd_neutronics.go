package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notargets/hp1d/eigen"
	"github.com/notargets/hp1d/linalg"
	"github.com/notargets/hp1d/newton"
	"github.com/notargets/hp1d/problems/neutronics"
)

var neutronicsCmd = &cobra.Command{
	Use:   "neutronics",
	Short: "Compute k-effective and the critical flux of a slab reactor",
	RunE:  runNeutronics,
}

func runNeutronics(cmd *cobra.Command, args []string) error {
	ec := cfg.Eigen
	backend, err := linalg.ParseKind(cfg.Solver.Backend)
	if err != nil {
		return err
	}
	prob, err := neutronics.New(ec.Materials)
	if err != nil {
		return err
	}
	m, err := neutronics.NewMesh(ec.Geometry, ec.Materials.Groups(), ec.InitFlux)
	if err != nil {
		return err
	}
	logger.Info("coarse mesh", zap.Int("ndof", m.NumDOFs()), zap.Int("elements", m.NumActive()))

	d := &eigen.Driver{
		Problem: prob,
		Newton:  newton.Options{Tol: ec.NewtonTol, MaxIter: cfg.Newton.MaxIter, Backend: backend},
		Tol:     ec.Tol,
		MaxIter: ec.MaxIter,
		K0:      ec.K0,
		Logger:  logger,
	}
	res, err := d.Run(m)
	if err != nil {
		return err
	}
	c, err := eigen.NormalizeToPower(m, prob, ec.Power, ec.Nu, ec.Eps)
	if err != nil {
		return err
	}
	logger.Info("source iteration converged",
		zap.Float64("k_eff", res.K),
		zap.Int("iterations", res.Iterations),
		zap.Float64("normalization", c))
	fmt.Fprintf(cmd.OutOrStdout(), "K_EFF = %.8f (%d iterations)\n", res.K, res.Iterations)
	return writeSolution(outPath, m, 0)
}
