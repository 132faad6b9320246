// Package axisrange holds the linear rescale helper the input source
// adapter uses to map a physical device's declared axis range onto the
// virtual gamepad's fixed logical range. Grounded on the inline min/max
// clamping idiom in the teacher's hidapi state-application code, pulled out
// here into a single reusable function since this module applies the same
// rescale to four sticks and two triggers.
package axisrange

// Rescale linearly maps v from [srcMin, srcMax] to [dstMin, dstMax] and
// clamps the result to the destination range. A degenerate source range
// (srcMin == srcMax) maps everything to dstMin.
func Rescale(v, srcMin, srcMax, dstMin, dstMax int32) int32 {
	if srcMax == srcMin {
		return dstMin
	}
	if v < srcMin {
		v = srcMin
	}
	if v > srcMax {
		v = srcMax
	}
	span := int64(dstMax) - int64(dstMin)
	pos := int64(v) - int64(srcMin)
	total := int64(srcMax) - int64(srcMin)
	result := int64(dstMin) + (pos*span)/total
	if result < int64(dstMin) {
		result = int64(dstMin)
	}
	if result > int64(dstMax) {
		result = int64(dstMax)
	}
	return int32(result)
}
