package qp

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
)

func TestAddMatrixIsAdditive(t *testing.T) {
	g := NewWithT(t)
	p, err := NewProblem(6, 4, 0)
	g.Expect(err).NotTo(HaveOccurred())

	block := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	g.Expect(p.AddMatrix(block, MatrixQ, 1, 2)).To(Succeed())
	once := p.Matrix(MatrixQ)
	g.Expect(p.AddMatrix(block, MatrixQ, 1, 2)).To(Succeed())
	twice := p.Matrix(MatrixQ)

	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			g.Expect(twice.At(i, j)).To(Equal(2 * once.At(i, j)))
		}
	}
	g.Expect(twice.At(2, 4)).To(Equal(12.0))
	g.Expect(twice.At(0, 0)).To(Equal(0.0))

	// transposed views go through the generic path
	g.Expect(p.AddMatrix(block.T(), MatrixDU, 0, 0)).To(Succeed())
	g.Expect(p.Matrix(MatrixDU).At(2, 1)).To(Equal(6.0))
}

func TestAddVectorIsAdditive(t *testing.T) {
	p, _ := NewProblem(4, 3, 0)
	for i := 0; i < 2; i++ {
		if err := p.AddVector([]float64{1, -2}, VectorD, 2); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]float64{0, 0, 2, -4}, p.Vector(VectorD)); diff != "" {
		t.Errorf("D mismatch (-want +got):\n%s", diff)
	}
}

func TestBlockBoundsAreChecked(t *testing.T) {
	p, _ := NewProblem(4, 3, 0)
	tests := []struct {
		name string
		err  error
	}{
		{"matrix past columns", p.AddMatrix(mat.NewDense(2, 2, nil), MatrixQ, 0, 3)},
		{"matrix past rows", p.AddMatrix(mat.NewDense(2, 2, nil), MatrixDU, 2, 0)},
		{"negative offset", p.AddMatrix(mat.NewDense(1, 1, nil), MatrixQ, -1, 0)},
		{"vector past end", p.AddVector(make([]float64, 3), VectorDS, 1)},
		{"vector into matrix", p.AddVector(make([]float64, 1), MatrixQ, 0)},
		{"matrix into vector", p.AddMatrix(mat.NewDense(1, 1, nil), VectorD, 0, 0)},
		{"unknown target", p.Clear(Target(42))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, dynamo.ErrConfiguration) {
				t.Errorf("got %v, want ErrConfiguration", tt.err)
			}
		})
	}
}

func TestClearBlock(t *testing.T) {
	g := NewWithT(t)
	p, _ := NewProblem(3, 1, 0)
	ones := mat.NewDense(3, 3, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1})
	g.Expect(p.AddMatrix(ones, MatrixQ, 0, 0)).To(Succeed())
	g.Expect(p.ClearBlock(MatrixQ, 1, 1, 2, 2)).To(Succeed())
	q := p.Matrix(MatrixQ)
	g.Expect(q.RawMatrix().Data).To(Equal([]float64{1, 1, 1, 1, 0, 0, 1, 0, 0}))

	g.Expect(p.Clear(MatrixQ)).To(Succeed())
	g.Expect(mat.Sum(p.Matrix(MatrixQ))).To(Equal(0.0))
}

func TestSetDimensionsGrowAndShrink(t *testing.T) {
	g := NewWithT(t)
	p, _ := NewProblem(2, 1, 0)
	g.Expect(p.AddMatrix(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), MatrixQ, 0, 0)).To(Succeed())
	g.Expect(p.AddVector([]float64{7}, VectorDS, 0)).To(Succeed())

	// beyond the initial capacity
	g.Expect(p.SetDimensions(40, 300, 0)).To(Succeed())
	q := p.Matrix(MatrixQ)
	g.Expect(q.At(1, 0)).To(Equal(3.0))
	g.Expect(q.At(39, 39)).To(Equal(0.0))
	g.Expect(p.Vector(VectorDS)[0]).To(Equal(7.0))

	g.Expect(p.AddMatrix(mat.NewDense(1, 1, []float64{9}), MatrixQ, 30, 30)).To(Succeed())
	g.Expect(p.SetDimensions(2, 1, 0)).To(Succeed())
	g.Expect(p.SetDimensions(40, 300, 0)).To(Succeed())
	g.Expect(p.Matrix(MatrixQ).At(30, 30)).To(Equal(0.0))

	g.Expect(errors.Is(p.SetDimensions(3, 1, 2), dynamo.ErrConfiguration)).To(BeTrue())
}
