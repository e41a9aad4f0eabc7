package optim

import "math"

// BiasCorrection returns 1 - beta^step.
//
// step is 1-indexed: it must be the step count after the increment for the
// current update. The result approaches 1 as step grows.
func BiasCorrection(step int64, beta float64) float64 {
	return 1 - math.Pow(beta, float64(step))
}

// rectification holds the RAdam variance-rectification terms for one step.
type rectification struct {
	rho    float64 // ρ_t, the approximated SMA length at step t
	factor float64 // r_t, valid only when adaptive is true
	// adaptive is true when ρ_t > 4 and the second moment is trusted.
	adaptive bool
}

// rectify computes ρ_t and, when ρ_t > 4, the multiplier
//
//	r_t = sqrt((ρ_t-4)(ρ_t-2)ρ_∞ / ((ρ_∞-4)(ρ_∞-2)ρ_t))
//
// with ρ_∞ = 2/(1-β2) - 1 and ρ_t = ρ_∞ - 2·t·β2^t / (1-β2^t).
func rectify(step int64, beta2 float64) rectification {
	rhoInf := 2/(1-beta2) - 1
	beta2t := math.Pow(beta2, float64(step))
	rho := rhoInf - 2*float64(step)*beta2t/(1-beta2t)
	if rho <= 4 {
		return rectification{rho: rho}
	}
	r := math.Sqrt((rho - 4) * (rho - 2) * rhoInf / ((rhoInf - 4) * (rhoInf - 2) * rho))
	return rectification{rho: rho, factor: r, adaptive: true}
}
