package returns

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PriceToReturns converts an ordered price sequence into simple net returns,
// R[t] = (P[t+1] - P[t]) / P[t], one return per consecutive price pair.
// Fewer than two prices is ErrInsufficientData. A zero or negative base price
// is ErrInvalidInput; the conversion never emits Inf or NaN.
func PriceToReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least two prices to compute a return, got %d", ErrInsufficientData, len(prices))
	}

	res := make([]float64, len(prices)-1)
	for i := 0; i < len(prices)-1; i++ {
		if prices[i] <= 0 {
			return nil, fmt.Errorf("%w: base price at position %d is %v, prices must be positive", ErrInvalidInput, i, prices[i])
		}
		res[i] = (prices[i+1] - prices[i]) / prices[i]
	}

	return res, nil
}

// Cumulate compounds a return sequence into gross cumulative values, the
// strictly left-to-right running product of (1+R). The first element already
// reflects one period of growth; there is no leading base value of 1.
func Cumulate(rets []float64) []float64 {
	res := make([]float64, len(rets))
	acc := 1.0
	for i, r := range rets {
		acc *= 1 + r
		res[i] = acc
	}
	return res
}

// Mean is the unweighted arithmetic mean of a return sequence.
func Mean(rets []float64) (float64, error) {
	if len(rets) == 0 {
		return 0, fmt.Errorf("%w: mean requires at least one return", ErrEmptyInput)
	}
	return stat.Mean(rets, nil), nil
}

// Gmean is the geometric mean return, the constant periodic rate reproducing
// the compounded growth over the sequence: [prod(1+R)]^(1/T) - 1. Computed in
// log space so long sequences do not overflow. Any gross return at or below
// zero makes the fractional power undefined over the reals and is
// ErrInvalidInput.
func Gmean(rets []float64) (float64, error) {
	if len(rets) == 0 {
		return 0, fmt.Errorf("%w: gmean requires at least one return", ErrEmptyInput)
	}

	var logSum float64
	for i, r := range rets {
		if 1+r <= 0 {
			return 0, fmt.Errorf("%w: gross return at position %d is %v, geometric mean is undefined", ErrInvalidInput, i, 1+r)
		}
		logSum += math.Log1p(r)
	}

	return math.Expm1(logSum / float64(len(rets))), nil
}

// TotalReturn is the holding-period return over the whole sequence,
// prod(1+R) - 1.
func TotalReturn(rets []float64) (float64, error) {
	if len(rets) == 0 {
		return 0, fmt.Errorf("%w: total return requires at least one return", ErrEmptyInput)
	}

	acc := 1.0
	for _, r := range rets {
		acc *= 1 + r
	}
	return acc - 1, nil
}

// LogReturns converts simple returns to continuously compounded returns,
// ln(1+R) elementwise.
func LogReturns(rets []float64) ([]float64, error) {
	res := make([]float64, len(rets))
	for i, r := range rets {
		if 1+r <= 0 {
			return nil, fmt.Errorf("%w: gross return at position %d is %v, log return is undefined", ErrInvalidInput, i, 1+r)
		}
		res[i] = math.Log1p(r)
	}
	return res, nil
}

// Annualize converts a periodic rate into an annual rate: (1+r)^k - 1 under
// simple compounding or e^(r*k) - 1 under continuous compounding, where k is
// the period's annualization factor.
func Annualize(rate float64, period Period, compounding Compounding) (float64, error) {
	factor, err := period.AnnualizationFactor()
	if err != nil {
		return 0, err
	}

	switch compounding {
	case Simple:
		return math.Pow(1+rate, float64(factor)) - 1, nil
	case Continuous:
		return math.Expm1(rate * float64(factor)), nil
	default:
		return 0, fmt.Errorf("%w: compounding code %d is not recognized", ErrInvalidInput, uint8(compounding))
	}
}

// Skew is the sample skewness of a return sequence.
func Skew(rets []float64) (float64, error) {
	if len(rets) == 0 {
		return 0, fmt.Errorf("%w: skew requires at least one return", ErrEmptyInput)
	}
	return stat.Skew(rets, nil), nil
}

// ExcessKurtosis is the sample kurtosis of a return sequence relative to the
// normal distribution.
func ExcessKurtosis(rets []float64) (float64, error) {
	if len(rets) == 0 {
		return 0, fmt.Errorf("%w: kurtosis requires at least one return", ErrEmptyInput)
	}
	return stat.ExKurtosis(rets, nil), nil
}

// JarqueBera is the Jarque-Bera normality statistic, n/6 * (S^2 + K^2/4) over
// the population skewness S and excess kurtosis K. A constant sequence has no
// defined statistic and is ErrInvalidInput.
func JarqueBera(rets []float64) (float64, error) {
	n := len(rets)
	if n == 0 {
		return 0, fmt.Errorf("%w: jarque-bera requires at least one return", ErrEmptyInput)
	}

	mean := stat.Mean(rets, nil)
	var m2, m3, m4 float64
	for _, r := range rets {
		d := r - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}

	nf := float64(n)
	m2 /= nf
	m3 /= nf
	m4 /= nf

	if m2 == 0 {
		return 0, fmt.Errorf("%w: variance is zero, jarque-bera is undefined", ErrInvalidInput)
	}

	skew := m3 / math.Pow(m2, 1.5)
	exKurt := m4/(m2*m2) - 3
	return nf / 6 * (skew*skew + exKurt*exKurt/4), nil
}

// IsNormal reports whether a return sequence is consistent with a normal
// distribution at significance level alpha, using the Jarque-Bera statistic
// against a chi-squared distribution with two degrees of freedom.
func IsNormal(rets []float64, alpha float64) (bool, error) {
	jb, err := JarqueBera(rets)
	if err != nil {
		return false, err
	}

	chi2 := distuv.ChiSquared{K: 2}
	return chi2.Survival(jb) > alpha, nil
}
