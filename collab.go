package fiff

import (
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/fiff/format"
)

// CovarianceEstimator computes a noise covariance estimate from an open
// measurement file. Implementations decide which epochs enter the estimate;
// reject holds per-channel-kind peak-to-peak rejection thresholds in channel
// units, and kinds missing from the map are never rejected.
//
// The result is a square named matrix with one row and column per accepted
// channel, both keyed by channel name.
//
// Estimators live outside this module; the container only fixes the
// contract so their output can be written back as a named matrix.
type CovarianceEstimator interface {
	EstimateCovariance(f *File, info *MeasInfo, reject map[format.ChKind]float64) (*NamedMatrix, error)
}

// TimeFrequency transforms single-trial data into induced power and
// phase-locking estimates.
//
// Each trial is a channels-by-samples matrix, and every trial must share
// the same shape. The result holds one frequencies-by-samples matrix per
// channel: power carries the induced signal power and phaseLock the
// inter-trial phase consistency, with values strictly between 0 and 1.
type TimeFrequency interface {
	Transform(trials []*mat.Dense, sfreq float64, freqs []float64) (power, phaseLock []*mat.Dense, err error)
}
