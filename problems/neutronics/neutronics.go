// Package neutronics provides the weak forms of the multigroup neutron
// diffusion eigenvalue problem
//
//	-(D u')' + Sa u = chi/k * sum_g nSf_g u_g
//
// on slabs of different materials. The fission source is read from solution
// slot 1, the flux of the previous source iteration.
package neutronics

import (
	"errors"
	"fmt"

	"github.com/notargets/hp1d/dp"
	"github.com/notargets/hp1d/element"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/quadrature"
)

var ErrMaterials = errors.New("neutronics: inconsistent material data")

// Materials holds the cross sections, indexed [group][material]
type Materials struct {
	D   [][]float64 `yaml:"d"`
	Sa  [][]float64 `yaml:"sa"`
	NSf [][]float64 `yaml:"nsf"`
	Chi []float64   `yaml:"chi"` // fission spectrum, per group
}

// DefaultMaterials is the one-group inner core, outer core and reflector set
func DefaultMaterials() Materials {
	return Materials{
		D:   [][]float64{{0.650, 0.750, 1.150}},
		Sa:  [][]float64{{0.120, 0.100, 0.010}},
		NSf: [][]float64{{0.185, 0.150, 0.000}},
		Chi: []float64{1},
	}
}

// Groups is the number of energy groups
func (mt Materials) Groups() int { return len(mt.D) }

// NumMaterials is the number of material columns
func (mt Materials) NumMaterials() int {
	if len(mt.D) == 0 {
		return 0
	}
	return len(mt.D[0])
}

func (mt Materials) Validate() error {
	ng, nm := mt.Groups(), mt.NumMaterials()
	if ng == 0 || nm == 0 {
		return fmt.Errorf("%w: %d groups, %d materials", ErrMaterials, ng, nm)
	}
	if len(mt.Sa) != ng || len(mt.NSf) != ng || len(mt.Chi) != ng {
		return fmt.Errorf("%w: group counts differ", ErrMaterials)
	}
	for g := 0; g < ng; g++ {
		if len(mt.D[g]) != nm || len(mt.Sa[g]) != nm || len(mt.NSf[g]) != nm {
			return fmt.Errorf("%w: group %d material counts differ", ErrMaterials, g)
		}
		for m := 0; m < nm; m++ {
			if mt.D[g][m] <= 0 {
				return fmt.Errorf("%w: non-positive diffusion coefficient in group %d material %d",
					ErrMaterials, g, m)
			}
		}
	}
	return nil
}

// Problem is the diffusion problem with the eigenvalue estimate K
type Problem struct {
	*dp.DiscreteProblem
	Mat Materials
	K   float64
}

// New registers the volume forms of every material and the boundary forms.
// The left boundary takes a Neumann condition, the right one a Robin
// (albedo) condition; the values come from the mesh boundary records.
func New(mat Materials) (*Problem, error) {
	if err := mat.Validate(); err != nil {
		return nil, err
	}
	p := &Problem{DiscreteProblem: dp.New(), Mat: mat, K: 1}
	for g := 0; g < mat.Groups(); g++ {
		for m := 0; m < mat.NumMaterials(); m++ {
			p.AddMatrixForm(g, g, p.jacobianVol(g, m), m)
			p.AddVectorForm(g, p.residualVol(g, m), m)
		}
		p.AddVectorFormSurf(g, p.residualSurfLeft(g), dp.BoundaryLeft)
		p.AddMatrixFormSurf(g, g, p.jacobianSurfRight(g), dp.BoundaryRight)
		p.AddVectorFormSurf(g, p.residualSurfRight(g), dp.BoundaryRight)
	}
	return p, nil
}

// SetEigenvalue sets the k dividing the fission source
func (p *Problem) SetEigenvalue(k float64) { p.K = k }

func (p *Problem) jacobianVol(g, m int) dp.MatrixForm {
	d, sa := p.Mat.D[g][m], p.Mat.Sa[g][m]
	return dp.MatrixFormFunc(func(fd *dp.FormData, u, v dp.Basis) (sum float64) {
		for i, w := range fd.W {
			sum += (d*u.DVDX[i]*v.DVDX[i] + sa*u.V[i]*v.V[i]) * w
		}
		return
	})
}

func (p *Problem) residualVol(g, m int) dp.VectorForm {
	d, sa, chi := p.Mat.D[g][m], p.Mat.Sa[g][m], p.Mat.Chi[g]
	return dp.VectorFormFunc(func(fd *dp.FormData, v dp.Basis) (sum float64) {
		for i, w := range fd.W {
			var src float64
			for gg := range p.Mat.NSf {
				src += p.Mat.NSf[gg][m] * fd.U[1][gg][i]
			}
			sum += (d*fd.DUDX[0][g][i]*v.DVDX[i] + sa*fd.U[0][g][i]*v.V[i] -
				chi/p.K*src*v.V[i]) * w
		}
		return
	})
}

// D u' = Value at the left end
func (p *Problem) residualSurfLeft(g int) dp.VectorSurfForm {
	return dp.VectorSurfFormFunc(func(sd *dp.SurfData, v dp.SurfBasis) float64 {
		bc := sd.BC[g]
		if bc.Kind != mesh.Neumann {
			return 0
		}
		return bc.Value * v.V
	})
}

// Coef u + D u' = Value at the right end
func (p *Problem) jacobianSurfRight(g int) dp.MatrixSurfForm {
	return dp.MatrixSurfFormFunc(func(sd *dp.SurfData, u, v dp.SurfBasis) float64 {
		bc := sd.BC[g]
		if bc.Kind != mesh.Robin {
			return 0
		}
		return bc.Coef * u.V * v.V
	})
}

func (p *Problem) residualSurfRight(g int) dp.VectorSurfForm {
	return dp.VectorSurfFormFunc(func(sd *dp.SurfData, v dp.SurfBasis) float64 {
		bc := sd.BC[g]
		switch bc.Kind {
		case mesh.Robin:
			return (bc.Coef*sd.U[0][g] - bc.Value) * v.V
		case mesh.Neumann:
			return -bc.Value * v.V
		}
		return 0
	})
}

// ElementYield integrates sum_g nSf_g u_g over e for slot sln. The cross
// section is constant on an element, so a rule exact for degree P suffices.
// Elements with an unknown marker yield nothing.
func (p *Problem) ElementYield(e *element.Element, sln int) (y float64) {
	if e.Marker < 0 || e.Marker >= p.Mat.NumMaterials() {
		return 0
	}
	_, w, val, _ := e.SolutionQuad(sln, quadrature.PointsForOrder(e.P))
	for i := range w {
		var s float64
		for g := range p.Mat.NSf {
			s += p.Mat.NSf[g][e.Marker] * val[g][i]
		}
		y += s * w[i]
	}
	return
}
