package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/notargets/hp1d/mesh"
)

const pointsPerElement = 20

// writeSolution writes "x u_0 u_1 ..." rows of slot sln, one block per
// element, in a form gnuplot reads directly. An empty path is a no-op.
func writeSolution(path string, m *mesh.Mesh, sln int) (err error) {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	x, y := m.Linearize(pointsPerElement, sln)
	for i := range x {
		if i > 0 && i%pointsPerElement == 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%.10g", x[i])
		for c := range y {
			fmt.Fprintf(w, " %.10g", y[c][i])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
