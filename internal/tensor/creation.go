package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with random values from a normal distribution
// (mean=0, std=1) using the Box-Muller transform. Only float types.
// Note: uses math/rand (not crypto/rand), appropriate for numeric workloads.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32, float64:
		for i := 0; i < len(data); i += 2 {
			u1 := rand.Float64() //nolint:gosec // G404: math/rand intentionally, reproducible
			u2 := rand.Float64() //nolint:gosec // G404: math/rand intentionally, reproducible
			z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
			z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
			data[i] = T(z0)
			if i+1 < len(data) {
				data[i+1] = T(z1)
			}
		}
	default:
		panic("Randn only supports float32 and float64 types")
	}
	return t
}

// Rand creates a tensor with random values uniformly distributed in [0, 1).
// Only float types.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32, float64:
		for i := range data {
			data[i] = T(rand.Float64()) //nolint:gosec // G404: math/rand intentionally
		}
	default:
		panic("Rand only supports float32 and float64 types")
	}
	return t
}

// Arange creates a 1D tensor with values from start to end (exclusive),
// stepping by 1.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := int(float64(end) - float64(start))
	if n < 0 {
		n = 0
	}
	if n == 0 {
		n = 1 // Shape{0} is invalid; keep a single element at start
	}
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	v := start
	for i := range data {
		data[i] = v
		v += T(1)
	}
	return t
}
