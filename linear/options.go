package linear

// Option configures a LinearRegression.
type Option func(*LinearRegression)

// WithFitIntercept sets whether to calculate the intercept.
// Without it the data is assumed to be centered.
func WithFitIntercept(fit bool) Option {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// WithRCond sets the cutoff ratio for small singular values. Singular values
// at or below rcond times the largest one are treated as zero. A value <= 0
// selects machine epsilon times max(n_samples, n_features).
func WithRCond(rcond float64) Option {
	return func(lr *LinearRegression) {
		lr.rcond = rcond
	}
}

// WithFeatureNames records the column names reported by Weights.
func WithFeatureNames(names ...string) Option {
	return func(lr *LinearRegression) {
		lr.SetFeatureNames(names)
	}
}
