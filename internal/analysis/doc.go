// Package analysis post-processes recorded runs.
//
// The tools work on stored frames and metric series rather than on a live
// simulator:
//
//   - [MSDCurve]: mean squared displacement averaged over time origins
//   - [FitDiffusion]: diffusion coefficient from the slope of an MSD curve
//   - [VACF]: velocity autocorrelation of the tracked particles
//   - [Autocorrelation]: normalised autocorrelation of a metric series
//   - [PowerSpectrum]: FFT power spectrum of a metric series
//
// # Diffusion
//
// For free Brownian motion in d dimensions the MSD grows as 2dDt:
//
//	lags, msd := analysis.MSDCurve(frames, len(frames)/2)
//	fit, err := analysis.FitDiffusion(lags, msd, 3)
//	// fit.D is close to kT/gamma
package analysis
