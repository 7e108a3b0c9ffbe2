package opt

// simd.go provides batch kernels over float32 slices used by vector distance
// computations. The loops are unrolled 4-way, which the Go compiler can
// auto-vectorize on amd64/arm64. Accumulation happens in float64.

// AddFloat32 computes dst[i] = a[i] + b[i] for all i.
// len(dst) must equal len(a) and len(b).
func AddFloat32(dst, a, b []float32) {
	n := len(dst)
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = a[i] + b[i]
		dst[i+1] = a[i+1] + b[i+1]
		dst[i+2] = a[i+2] + b[i+2]
		dst[i+3] = a[i+3] + b[i+3]
	}
	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}

// SubFloat32 computes dst[i] = a[i] - b[i] for all i.
func SubFloat32(dst, a, b []float32) {
	n := len(dst)
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = a[i] - b[i]
		dst[i+1] = a[i+1] - b[i+1]
		dst[i+2] = a[i+2] - b[i+2]
		dst[i+3] = a[i+3] - b[i+3]
	}
	for ; i < n; i++ {
		dst[i] = a[i] - b[i]
	}
}

// ScaleFloat32 computes dst[i] = a[i] * s for all i.
func ScaleFloat32(dst, a []float32, s float32) {
	n := len(dst)
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = a[i] * s
		dst[i+1] = a[i+1] * s
		dst[i+2] = a[i+2] * s
		dst[i+3] = a[i+3] * s
	}
	for ; i < n; i++ {
		dst[i] = a[i] * s
	}
}

// DotFloat32 returns the inner product of a and b. len(a) must equal len(b).
func DotFloat32(a, b []float32) float64 {
	n := len(a)
	var s0, s1, s2, s3 float64
	i := 0
	for ; i <= n-4; i += 4 {
		s0 += float64(a[i]) * float64(b[i])
		s1 += float64(a[i+1]) * float64(b[i+1])
		s2 += float64(a[i+2]) * float64(b[i+2])
		s3 += float64(a[i+3]) * float64(b[i+3])
	}
	for ; i < n; i++ {
		s0 += float64(a[i]) * float64(b[i])
	}
	return s0 + s1 + s2 + s3
}

// SquaredL2Float32 returns sum((a[i]-b[i])^2). len(a) must equal len(b).
func SquaredL2Float32(a, b []float32) float64 {
	n := len(a)
	var s0, s1, s2, s3 float64
	i := 0
	for ; i <= n-4; i += 4 {
		d0 := float64(a[i]) - float64(b[i])
		d1 := float64(a[i+1]) - float64(b[i+1])
		d2 := float64(a[i+2]) - float64(b[i+2])
		d3 := float64(a[i+3]) - float64(b[i+3])
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	for ; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		s0 += d * d
	}
	return s0 + s1 + s2 + s3
}

// SumSquaresFloat32 returns sum(a[i]^2).
func SumSquaresFloat32(a []float32) float64 {
	return DotFloat32(a, a)
}
