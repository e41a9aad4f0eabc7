package optim

import "github.com/born-ml/holocron/internal/tensor"

// TrustRatio computes the layer-wise scaling factor of the LARS family:
//
//	trust = ||p|| / (||u|| + weight_decay*||p|| + eps)
//
// If either norm is zero the ratio is exactly 1. When clip is non-nil the
// computed ratio is clamped into [clip[0], clip[1]].
//
// The result is one scalar for the whole tensor, not a per-element factor.
func TrustRatio(paramNorm, updateNorm, weightDecay, eps float64, clip *[2]float64) float64 {
	if paramNorm == 0 || updateNorm == 0 {
		return 1
	}
	ratio := paramNorm / (updateNorm + weightDecay*paramNorm + eps)
	if clip != nil {
		ratio = min(max(ratio, clip[0]), clip[1])
	}
	return ratio
}

// TrustRatioOf is TrustRatio over tensors.
func TrustRatioOf(p, u *tensor.Tensor, weightDecay, eps float64, clip *[2]float64) float64 {
	return TrustRatio(p.Norm(), u.Norm(), weightDecay, eps, clip)
}
