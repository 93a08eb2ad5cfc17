package spec

import "math"

// OctDecode decodes an oct-encoded unit vector whose components are
// unsigned integers in [0, rangeMax].
func OctDecode(x, y, rangeMax float64) [3]float64 {
	u := x/rangeMax*2 - 1
	v := y/rangeMax*2 - 1
	z := 1 - math.Abs(u) - math.Abs(v)
	if z < 0 {
		u, v = (1-math.Abs(v))*signNotZero(u), (1-math.Abs(u))*signNotZero(v)
	}
	length := math.Sqrt(u*u + v*v + z*z)
	return [3]float64{u / length, v / length, z / length}
}

func signNotZero(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Dequantize maps a quantized position in [0, 65535] into the quantized volume.
func Dequantize(q, offset, scale [3]float64) [3]float64 {
	const rangeMax = 65535
	return [3]float64{
		offset[0] + q[0]/rangeMax*scale[0],
		offset[1] + q[1]/rangeMax*scale[1],
		offset[2] + q[2]/rangeMax*scale[2],
	}
}
