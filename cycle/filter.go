package cycle

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Butterworth designs a digital low-pass Butterworth filter.
//
// The analog prototype is pre-warped and mapped with the bilinear transform, yielding transfer
// function coefficients normalized so that a[0] == 1.
//
// Arguments:
// - order: Filter order (number of poles).
// - cutoff: Cutoff frequency in Hz.
// - fs: Sampling rate in Hz.
//
// Returns:
// - b: Numerator coefficients, length order+1.
// - a: Denominator coefficients, length order+1.
// - error if the order is not positive or the cutoff is not below the Nyquist frequency.
//
// @example
// b, a, err := Butterworth(3, 3.0, 30.0)
func Butterworth(order int, cutoff, fs float64) ([]float64, []float64, error) {
	if order < 1 {
		return nil, nil, errors.Errorf("filter order must be positive, got %d", order)
	}
	if fs <= 0 {
		return nil, nil, errors.Errorf("sampling rate must be positive, got %g", fs)
	}

	wn := cutoff / (fs / 2)
	if wn <= 0 || wn >= 1 {
		return nil, nil, errors.Errorf("cutoff %g Hz must lie strictly between 0 and the Nyquist frequency %g Hz", cutoff, fs/2)
	}

	// Pre-warped analog cutoff for a bilinear transform with fs = 2.
	warped := 4 * math.Tan(math.Pi*wn/2)

	poles := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		p := -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order)))
		poles = append(poles, p*complex(warped, 0))
	}
	gain := math.Pow(warped, float64(order))

	const fs2 = 4.0
	digitalPoles := make([]complex128, order)
	denom := complex(1, 0)
	for i, p := range poles {
		digitalPoles[i] = (fs2 + p) / (fs2 - p)
		denom *= fs2 - p
	}
	gain /= real(denom)

	zeros := make([]complex128, order)
	for i := range zeros {
		zeros[i] = -1
	}

	bc := polyFromRoots(zeros)
	ac := polyFromRoots(digitalPoles)

	b := make([]float64, order+1)
	a := make([]float64, order+1)
	for i := range b {
		b[i] = gain * real(bc[i])
		a[i] = real(ac[i])
	}
	return b, a, nil
}

// polyFromRoots expands prod(x - r) into descending-power coefficients.
func polyFromRoots(roots []complex128) []complex128 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}
	return c
}

// lfilterZi computes the steady-state initial conditions of a step response for a transposed
// direct form II filter.
func lfilterZi(b, a []float64) ([]float64, error) {
	n := len(a) - 1
	if n < 1 || len(b) != len(a) {
		return nil, errors.Errorf("invalid filter coefficients: len(b)=%d len(a)=%d", len(b), len(a))
	}

	// (I - C^T) zi = b[1:] - a[1:] * b[0], with C the companion matrix of a.
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
		m.Set(i, 0, m.At(i, 0)+a[i+1])
		if i+1 < n {
			m.Set(i, i+1, m.At(i, i+1)-1)
		}
	}

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(m, rhs); err != nil {
		return nil, errors.Wrap(err, "failed to solve filter initial conditions")
	}
	return zi.RawVector().Data, nil
}

// lfilter runs a transposed direct form II IIR filter with initial state zi.
func lfilter(b, a, x, zi []float64) []float64 {
	n := len(a) - 1
	z := make([]float64, n)
	copy(z, zi)

	y := make([]float64, len(x))
	for t, xv := range x {
		yv := b[0]*xv + z[0]
		for i := 0; i < n-1; i++ {
			z[i] = b[i+1]*xv + z[i+1] - a[i+1]*yv
		}
		z[n-1] = b[n]*xv - a[n]*yv
		y[t] = yv
	}
	return y
}

// PadLength returns the number of samples reflected on each side by FiltFilt.
func PadLength(b, a []float64) int {
	return 3 * max(len(a), len(b))
}

// FiltFilt applies a filter forward and backward for zero phase distortion.
//
// The signal is extended on both ends by odd reflection over PadLength samples and each pass
// starts from the steady-state initial conditions scaled to the first sample.
//
// Arguments:
// - b: Numerator coefficients.
// - a: Denominator coefficients (a[0] == 1).
// - x: The signal.
//
// Returns:
// - The filtered signal, same length as x.
// - error if the signal is not longer than the padding.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	pad := PadLength(b, a)
	if len(x) <= pad {
		return nil, errors.Errorf("signal of %d samples is too short to filter, need more than %d", len(x), pad)
	}

	zi, err := lfilterZi(b, a)
	if err != nil {
		return nil, err
	}

	n := len(x)
	ext := make([]float64, 0, n+2*pad)
	for i := pad; i > 0; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 0; i < pad; i++ {
		ext = append(ext, 2*x[n-1]-x[n-2-i])
	}

	y := lfilter(b, a, ext, scaled(zi, ext[0]))
	reverse(y)
	y = lfilter(b, a, y, scaled(zi, y[0]))
	reverse(y)

	return y[pad : pad+n], nil
}

func scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
