// Package matrix implements the fixed-shape dense matrix type deepnet's
// numerical core is built on.
//
// The teacher library (milosgajdos-go-neural/pkg/matrix) wraps the now
// archived github.com/gonum/matrix/mat64 with a handful of free functions
// (Ones, AddBias, MakeRandMx, Mx2Vec, pointwise appliers). This package
// keeps that shape but targets the maintained gonum.org/v1/gonum/mat: a
// Matrix here is the (rows, cols, data) triple the spec's binary format
// requires, viewed on demand as a *mat.Dense so every elementwise or
// linear-algebra op gonum already implements (Add, Sub, Scale, MulElem,
// Mul, Apply, Copy) is delegated rather than re-implemented. Only the two
// fused operations with no gonum equivalent — DotTranspose and
// SumRowsTranspose, both needed by back-propagation's gradient step — are
// hand-rolled, directly off the reference matrix.c loops.
package matrix

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/milosgajdos/deepnet/pkg/rng"
)

// ElementFunc is a pointwise function over a matrix cell, matching
// gonum's mat.Dense.Apply signature so activation/loss callers can pass it
// straight through to Apply.
type ElementFunc func(i, j int, v float64) float64

// ShapeError is the concrete precondition-violation error spec.md §7 calls
// for: every public entry point that can receive a non-conformant shape
// returns one of these rather than indexing out of bounds.
type ShapeError struct {
	Op   string
	Want [2]int
	Got  [2]int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("matrix: %s: want %dx%d, got %dx%d", e.Op, e.Want[0], e.Want[1], e.Got[0], e.Got[1])
}

func shapeErr(op string, want, got [2]int) error {
	return &ShapeError{Op: op, Want: want, Got: got}
}

// Matrix is a fixed-shape, row-major dense array of float64. Shape is
// immutable after New/Clone; arithmetic ops assume conformant shapes,
// flagging the ones that can plausibly receive the wrong one with a
// ShapeError.
type Matrix struct {
	rows, cols int
	data       []float64
	destroyed  bool
}

// New allocates a zero-filled rows x cols matrix.
func New(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("matrix: invalid shape %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Clone deep-copies m into a freshly allocated Matrix.
func Clone(m *Matrix) *Matrix {
	m.checkAlive()
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Matrix{rows: m.rows, cols: m.cols, data: data}
}

// Destroy poisons the matrix. It is not required for memory reclamation —
// the Go runtime owns that — but it keeps the "handle becomes invalid"
// lifecycle contract of spec.md §5 enforceable: any further use panics
// immediately instead of silently operating on stale zeros.
func (m *Matrix) Destroy() {
	m.data = nil
	m.destroyed = true
}

func (m *Matrix) checkAlive() {
	if m.destroyed {
		panic("matrix: use after Destroy")
	}
}

// Dims returns the matrix shape.
func (m *Matrix) Dims() (int, int) {
	return m.rows, m.cols
}

// At returns the element at (r, c).
func (m *Matrix) At(r, c int) float64 {
	m.checkAlive()
	return m.data[r*m.cols+c]
}

// Set assigns the element at (r, c).
func (m *Matrix) Set(r, c int, v float64) {
	m.checkAlive()
	m.data[r*m.cols+c] = v
}

// Row returns a borrowed view of row r as a slice of length cols. Callers
// must not retain it past the next mutating call on m.
func (m *Matrix) Row(r int) []float64 {
	m.checkAlive()
	return m.data[r*m.cols : (r+1)*m.cols]
}

// Data returns the raw row-major backing slice. It is a borrow: mutating it
// mutates m, and it must not be used after Destroy.
func (m *Matrix) Data() []float64 {
	m.checkAlive()
	return m.data
}

// dense returns a *mat.Dense view sharing m's backing array, so writes
// through gonum land directly in m's storage with no extra allocation.
func (m *Matrix) dense() *mat.Dense {
	m.checkAlive()
	return mat.NewDense(m.rows, m.cols, m.data)
}

func sameShape(a, b *Matrix) bool {
	return a.rows == b.rows && a.cols == b.cols
}

// Clear zeroes every element of m.
func Clear(m *Matrix) {
	m.checkAlive()
	for i := range m.data {
		m.data[i] = 0
	}
}

// Fill sets every element of m to v.
func Fill(m *Matrix, v float64) {
	m.checkAlive()
	for i := range m.data {
		m.data[i] = v
	}
}

// Copy assigns dst := src elementwise. Both must share the same shape.
func Copy(dst, src *Matrix) error {
	if !sameShape(dst, src) {
		return shapeErr("Copy", [2]int{dst.rows, dst.cols}, [2]int{src.rows, src.cols})
	}
	copy(dst.Data(), src.Data())
	return nil
}

// Randomize fills m with independent uniform samples in [min, max) drawn
// from src.
func Randomize(m *Matrix, src *rng.Source, min, max float64) {
	m.checkAlive()
	for i := range m.data {
		m.data[i] = src.Float64(min, max)
	}
}

// Sum computes result := a + b elementwise. All three must share shape.
func Sum(a, b, result *Matrix) error {
	if !sameShape(a, b) || !sameShape(a, result) {
		return shapeErr("Sum", [2]int{a.rows, a.cols}, [2]int{result.rows, result.cols})
	}
	result.dense().Add(a.dense(), b.dense())
	return nil
}

// Add accumulates dst += src elementwise.
func Add(dst, src *Matrix) error {
	if !sameShape(dst, src) {
		return shapeErr("Add", [2]int{dst.rows, dst.cols}, [2]int{src.rows, src.cols})
	}
	dst.dense().Add(dst.dense(), src.dense())
	return nil
}

// Difference computes result := a - b elementwise.
func Difference(a, b, result *Matrix) error {
	if !sameShape(a, b) || !sameShape(a, result) {
		return shapeErr("Difference", [2]int{a.rows, a.cols}, [2]int{result.rows, result.cols})
	}
	result.dense().Sub(a.dense(), b.dense())
	return nil
}

// Subtract computes dst -= src elementwise.
func Subtract(dst, src *Matrix) error {
	if !sameShape(dst, src) {
		return shapeErr("Subtract", [2]int{dst.rows, dst.cols}, [2]int{src.rows, src.cols})
	}
	dst.dense().Sub(dst.dense(), src.dense())
	return nil
}

// Multiply scales every element of m by k in place.
func Multiply(m *Matrix, k float64) {
	m.dense().Scale(k, m.dense())
}

// Divide scales every element of m by 1/k in place.
func Divide(m *Matrix, k float64) {
	m.dense().Scale(1/k, m.dense())
}

// Odot computes the Hadamard product dst := dst ⊙ src in place.
func Odot(dst, src *Matrix) error {
	if !sameShape(dst, src) {
		return shapeErr("Odot", [2]int{dst.rows, dst.cols}, [2]int{src.rows, src.cols})
	}
	dst.dense().MulElem(dst.dense(), src.dense())
	return nil
}

// Dot computes result := a · b using standard matrix multiplication.
func Dot(a, b, result *Matrix) error {
	if a.cols != b.rows {
		return shapeErr("Dot", [2]int{a.rows, b.rows}, [2]int{a.rows, a.cols})
	}
	if result.rows != a.rows || result.cols != b.cols {
		return shapeErr("Dot", [2]int{a.rows, b.cols}, [2]int{result.rows, result.cols})
	}
	result.dense().Mul(a.dense(), b.dense())
	return nil
}

// Transpose computes result := mᵀ.
func Transpose(m, result *Matrix) error {
	if result.rows != m.cols || result.cols != m.rows {
		return shapeErr("Transpose", [2]int{m.cols, m.rows}, [2]int{result.rows, result.cols})
	}
	result.dense().Copy(m.dense().T())
	return nil
}

// DotTranspose computes result := (a · b)ᵀ without materializing the
// intermediate product, mirroring the reference's fused matrix_dot_transpose
// loop. a.cols must equal b.rows (the contraction dimension); result has
// shape (b.cols × a.rows).
func DotTranspose(a, b, result *Matrix) error {
	if a.cols != b.rows {
		return shapeErr("DotTranspose", [2]int{a.rows, b.rows}, [2]int{a.rows, a.cols})
	}
	if result.rows != b.cols || result.cols != a.rows {
		return shapeErr("DotTranspose", [2]int{b.cols, a.rows}, [2]int{result.rows, result.cols})
	}
	ad, bd, rd := a.Data(), b.Data(), result.Data()
	for col := 0; col < result.cols; col++ {
		for row := 0; row < result.rows; row++ {
			sum := 0.0
			for k := 0; k < a.cols; k++ {
				sum += ad[col*a.cols+k] * bd[k*b.cols+row]
			}
			rd[row*result.cols+col] = sum
		}
	}
	return nil
}

// SumRowsTranspose sums m column-wise into a single row, then replicates
// that row across every column of result. result.rows must equal m.cols;
// result.cols governs the replication width and is chosen by the caller.
func SumRowsTranspose(m, result *Matrix) error {
	if result.rows != m.cols {
		return shapeErr("SumRowsTranspose", [2]int{m.cols, result.cols}, [2]int{result.rows, result.cols})
	}
	md, rd := m.Data(), result.Data()
	for col := 0; col < m.cols; col++ {
		sum := 0.0
		for row := 0; row < m.rows; row++ {
			sum += md[row*m.cols+col]
		}
		rd[col*result.cols] = sum
	}
	for col := 1; col < result.cols; col++ {
		for row := 0; row < result.rows; row++ {
			rd[row*result.cols+col] = rd[row*result.cols]
		}
	}
	return nil
}

// Apply maps f over every element of m in place.
func Apply(m *Matrix, f ElementFunc) {
	m.dense().Apply(f, m.dense())
}

// FrobeniusNorm returns the Frobenius norm of m, used by the SGD gradient
// clipping step.
func FrobeniusNorm(m *Matrix) float64 {
	return mat.Norm(m.dense(), 2)
}

// Write serializes m as int32 rows, int32 cols, f64[rows*cols] in host byte
// order.
func Write(m *Matrix, w io.Writer) error {
	if err := binary.Write(w, binary.NativeEndian, int32(m.rows)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.NativeEndian, int32(m.cols)); err != nil {
		return err
	}
	return binary.Write(w, binary.NativeEndian, m.Data())
}

// Read deserializes a Matrix written by Write.
func Read(r io.Reader) (*Matrix, error) {
	var rows, cols int32
	if err := binary.Read(r, binary.NativeEndian, &rows); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.NativeEndian, &cols); err != nil {
		return nil, err
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("matrix: invalid shape %dx%d in stream", rows, cols)
	}
	data := make([]float64, int(rows)*int(cols))
	if err := binary.Read(r, binary.NativeEndian, data); err != nil {
		return nil, err
	}
	return &Matrix{rows: int(rows), cols: int(cols), data: data}, nil
}

// Save writes m to a file at path, creating or truncating it.
func Save(m *Matrix, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(m, f)
}

// Load reads a Matrix previously written with Save.
func Load(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
