// Package qp holds a dense quadratic program
//
//	min ½·xᵀQx + dᵀx   s.t.   DU·x + DS ≥ 0,  XL ≤ x ≤ XU
//
// in a resizable workspace. The first NumEq rows of DU are equalities
// (DU·x + DS = 0). Blocks are inserted additively at explicit offsets so that
// several objective terms can share one region.
package qp

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// Unbounded is the magnitude from which a variable bound is ignored.
const Unbounded = 1e8

// Growth margins applied when the workspace has to be reallocated.
const (
	marginVars = 10
	marginCons = 100
)

// Target selects one of the arrays of a Problem.
type Target int

const (
	MatrixQ Target = iota
	MatrixDU
	VectorD
	VectorDS
	VectorXL
	VectorXU
)

func (t Target) String() string {
	switch t {
	case MatrixQ:
		return "Q"
	case MatrixDU:
		return "DU"
	case VectorD:
		return "D"
	case VectorDS:
		return "DS"
	case VectorXL:
		return "XL"
	case VectorXU:
		return "XU"
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

func (t Target) IsMatrix() bool {
	return t == MatrixQ || t == MatrixDU
}

// Problem is a dense QP workspace. Storage has a capacity and a logical
// size; everything outside the logical size is kept at zero.
type Problem struct {
	nv, nc, neq int
	capV, capC  int

	q  []float64 // capV x capV
	du []float64 // capC x capV
	d  []float64
	ds []float64
	xl []float64
	xu []float64
}

func NewProblem(nv, nc, neq int) (*Problem, error) {
	p := &Problem{}
	if err := p.SetDimensions(nv, nc, neq); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Problem) NumVariables() int   { return p.nv }
func (p *Problem) NumConstraints() int { return p.nc }
func (p *Problem) NumEqualities() int  { return p.neq }

// SetDimensions sets the logical size, growing the backing storage with a
// margin when needed. Content inside the new size is preserved.
func (p *Problem) SetDimensions(nv, nc, neq int) error {
	if nv < 0 || nc < 0 || neq < 0 || neq > nc {
		return errors.Wrapf(dynamo.ErrConfiguration, "qp dimensions (%d vars, %d constraints, %d equalities)", nv, nc, neq)
	}
	if nv > p.capV || nc > p.capC {
		p.grow(max(nv, p.capV), max(nc, p.capC))
	}
	p.nv, p.nc, p.neq = nv, nc, neq
	p.zeroOutside()
	return nil
}

func (p *Problem) grow(nv, nc int) {
	capV, capC := nv+marginVars, nc+marginCons
	q := make([]float64, capV*capV)
	du := make([]float64, capC*capV)
	for r := 0; r < p.nv; r++ {
		copy(q[r*capV:r*capV+p.nv], p.q[r*p.capV:r*p.capV+p.nv])
	}
	for r := 0; r < p.nc; r++ {
		copy(du[r*capV:r*capV+p.nv], p.du[r*p.capV:r*p.capV+p.nv])
	}
	resize := func(v []float64, n int) []float64 {
		out := make([]float64, n)
		copy(out, v)
		return out
	}
	p.d = resize(p.d, capV)
	p.xl = resize(p.xl, capV)
	p.xu = resize(p.xu, capV)
	p.ds = resize(p.ds, capC)
	p.q, p.du = q, du
	p.capV, p.capC = capV, capC
}

func (p *Problem) zeroOutside() {
	for r := 0; r < p.capV; r++ {
		for c := 0; c < p.capV; c++ {
			if r >= p.nv || c >= p.nv {
				p.q[r*p.capV+c] = 0
			}
		}
	}
	for r := 0; r < p.capC; r++ {
		for c := 0; c < p.capV; c++ {
			if r >= p.nc || c >= p.nv {
				p.du[r*p.capV+c] = 0
			}
		}
	}
	for i := p.nv; i < p.capV; i++ {
		p.d[i], p.xl[i], p.xu[i] = 0, 0, 0
	}
	for i := p.nc; i < p.capC; i++ {
		p.ds[i] = 0
	}
}

// shape returns the logical dimensions of a target.
func (p *Problem) shape(t Target) (rows, cols int, err error) {
	switch t {
	case MatrixQ:
		return p.nv, p.nv, nil
	case MatrixDU:
		return p.nc, p.nv, nil
	case VectorD, VectorXL, VectorXU:
		return p.nv, 1, nil
	case VectorDS:
		return p.nc, 1, nil
	}
	return 0, 0, errors.Wrapf(dynamo.ErrConfiguration, "unknown qp target %v", t)
}

func (p *Problem) matrix(t Target) ([]float64, int) {
	if t == MatrixQ {
		return p.q, p.capV
	}
	return p.du, p.capV
}

func (p *Problem) vector(t Target) []float64 {
	switch t {
	case VectorD:
		return p.d
	case VectorDS:
		return p.ds
	case VectorXL:
		return p.xl
	default:
		return p.xu
	}
}

func (p *Problem) checkBlock(t Target, row, col, nr, nc int) error {
	rows, cols, err := p.shape(t)
	if err != nil {
		return err
	}
	if row < 0 || col < 0 || row+nr > rows || col+nc > cols {
		return errors.Wrapf(dynamo.ErrConfiguration, "block %dx%d at (%d,%d) exceeds %v of size %dx%d",
			nr, nc, row, col, t, rows, cols)
	}
	return nil
}

// AddMatrix adds m into a matrix target with its top-left corner at (row, col).
func (p *Problem) AddMatrix(m mat.Matrix, t Target, row, col int) error {
	if !t.IsMatrix() {
		return errors.Wrapf(dynamo.ErrConfiguration, "%v is not a matrix target", t)
	}
	nr, nc := m.Dims()
	if err := p.checkBlock(t, row, col, nr, nc); err != nil {
		return err
	}
	data, stride := p.matrix(t)
	if raw, ok := m.(mat.RawMatrixer); ok && raw.RawMatrix().Stride >= nc {
		rm := raw.RawMatrix()
		for i := 0; i < nr; i++ {
			dst := data[(row+i)*stride+col : (row+i)*stride+col+nc]
			src := rm.Data[i*rm.Stride : i*rm.Stride+nc]
			for j := range dst {
				dst[j] += src[j]
			}
		}
		return nil
	}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			data[(row+i)*stride+col+j] += m.At(i, j)
		}
	}
	return nil
}

// AddVector adds v into a vector target starting at row.
func (p *Problem) AddVector(v []float64, t Target, row int) error {
	if t.IsMatrix() {
		return errors.Wrapf(dynamo.ErrConfiguration, "%v is not a vector target", t)
	}
	if err := p.checkBlock(t, row, 0, len(v), 1); err != nil {
		return err
	}
	dst := p.vector(t)[row : row+len(v)]
	for i, x := range v {
		dst[i] += x
	}
	return nil
}

// Clear zeroes a whole target.
func (p *Problem) Clear(t Target) error {
	rows, cols, err := p.shape(t)
	if err != nil {
		return err
	}
	return p.ClearBlock(t, 0, 0, rows, cols)
}

// ClearBlock zeroes an nr x nc block at (row, col). Vector targets use col 0
// and nc 1.
func (p *Problem) ClearBlock(t Target, row, col, nr, nc int) error {
	if err := p.checkBlock(t, row, col, nr, nc); err != nil {
		return err
	}
	if !t.IsMatrix() {
		v := p.vector(t)
		for i := row; i < row+nr; i++ {
			v[i] = 0
		}
		return nil
	}
	data, stride := p.matrix(t)
	for i := row; i < row+nr; i++ {
		for j := col; j < col+nc; j++ {
			data[i*stride+j] = 0
		}
	}
	return nil
}

// Reset zeroes every target.
func (p *Problem) Reset() {
	for _, t := range []Target{MatrixQ, MatrixDU, VectorD, VectorDS, VectorXL, VectorXU} {
		_ = p.Clear(t)
	}
}

// FillBounds sets every variable bound to [lo, hi].
func (p *Problem) FillBounds(lo, hi float64) {
	for i := 0; i < p.nv; i++ {
		p.xl[i], p.xu[i] = lo, hi
	}
}

// Matrix returns a copy of the logical part of a matrix target.
func (p *Problem) Matrix(t Target) *mat.Dense {
	rows, cols, err := p.shape(t)
	if err != nil || !t.IsMatrix() || rows == 0 || cols == 0 {
		return nil
	}
	data, stride := p.matrix(t)
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		out.SetRow(i, data[i*stride:i*stride+cols])
	}
	return out
}

// Vector returns a copy of the logical part of a vector target.
func (p *Problem) Vector(t Target) []float64 {
	rows, _, err := p.shape(t)
	if err != nil || t.IsMatrix() {
		return nil
	}
	out := make([]float64, rows)
	copy(out, p.vector(t)[:rows])
	return out
}

// Row returns constraint row r of DU as a slice aliasing the workspace.
func (p *Problem) row(r int) []float64 {
	return p.du[r*p.capV : r*p.capV+p.nv]
}
