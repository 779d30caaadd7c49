package regression

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"carsales/internal/dataset"
)

var (
	// ErrInsufficientData is returned when there are not more rows than terms.
	ErrInsufficientData = errors.New("not enough rows to fit model")
	// ErrSingular is returned when the design matrix has no unique solution.
	ErrSingular = errors.New("design matrix is singular")
	// ErrInvalidTestRatio is returned for a test ratio outside [0, 0.9].
	ErrInvalidTestRatio = errors.New("test ratio must be within [0, 0.9]")
)

// Confidence level of reported intervals.
const Confidence = 0.95

// FitOptions controls the train/test split of a live fit.
type FitOptions struct {
	TestRatio float64 `json:"test_ratio"`
	Seed      uint64  `json:"seed"`
}

// Diagnostics reports how well a live model fits.
type Diagnostics struct {
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	R2Train   float64 `json:"r2_train"`
	R2Test    float64 `json:"r2_test"`
	RMSETest  float64 `json:"rmse_test"`
}

// OLSResult is a least-squares fit of y on an intercept and predictors.
type OLSResult struct {
	Coefficients []Coefficient
	DF           int
	Sigma        float64
	R2           float64
}

// Predict evaluates the fitted equation on one predictor row.
func (r *OLSResult) Predict(x []float64) float64 {
	v := r.Coefficients[0].Estimate
	for j, xv := range x {
		v += r.Coefficients[j+1].Estimate * xv
	}
	return v
}

// OLS regresses y on an intercept and the columns of x, one row per
// observation. Predictors are standardised before solving and the
// estimates mapped back, so columns on very different scales (model year
// against odometer) stay well conditioned.
func OLS(terms []string, x [][]float64, y []float64) (*OLSResult, error) {
	n, k := len(y), len(terms)
	p := k + 1
	if len(x) != n {
		return nil, fmt.Errorf("ols: %d predictor rows for %d observations", len(x), n)
	}
	if n <= p {
		return nil, fmt.Errorf("%w: %d rows for %d terms", ErrInsufficientData, n, p)
	}

	means := make([]float64, k)
	sds := make([]float64, k)
	col := make([]float64, n)
	for j := 0; j < k; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		means[j], sds[j] = stat.MeanStdDev(col, nil)
		if sds[j] == 0 || math.IsNaN(sds[j]) {
			return nil, fmt.Errorf("%w: %s is constant", ErrSingular, terms[j])
		}
	}

	z := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		z.Set(i, 0, 1)
		for j := 0; j < k; j++ {
			z.Set(i, j+1, (x[i][j]-means[j])/sds[j])
		}
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	var gamma mat.VecDense
	if err := gamma.SolveVec(z, yv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(z, &gamma)
	resid.SubVec(yv, &fitted)
	df := n - p
	sse := mat.Dot(&resid, &resid)
	sigma2 := sse / float64(df)

	var ztz, ztzInv mat.Dense
	ztz.Mul(z.T(), z)
	if err := ztzInv.Inverse(&ztz); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}

	// beta = A*gamma undoes the standardisation.
	a := mat.NewDense(p, p, nil)
	a.Set(0, 0, 1)
	for j := 0; j < k; j++ {
		a.Set(0, j+1, -means[j]/sds[j])
		a.Set(j+1, j+1, 1/sds[j])
	}
	var beta mat.VecDense
	beta.MulVec(a, &gamma)

	var cov, tmp mat.Dense
	tmp.Mul(a, &ztzInv)
	cov.Mul(&tmp, a.T())
	cov.Scale(sigma2, &cov)

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	q := tdist.Quantile(1 - (1-Confidence)/2)

	names := append([]string{"const"}, terms...)
	coefs := make([]Coefficient, p)
	for j := 0; j < p; j++ {
		est := beta.AtVec(j)
		se := math.Sqrt(cov.At(j, j))
		c := Coefficient{
			Term:     names[j],
			Estimate: est,
			StdErr:   se,
			CILow:    est - q*se,
			CIHigh:   est + q*se,
		}
		if se > 0 {
			c.TStat = est / se
			c.PValue = 2 * tdist.Survival(math.Abs(c.TStat))
		}
		coefs[j] = c
	}

	return &OLSResult{
		Coefficients: coefs,
		DF:           df,
		Sigma:        math.Sqrt(sigma2),
		R2:           stat.RSquaredFrom(fitted.RawVector().Data, y, nil),
	}, nil
}

type modelSpec struct {
	name     string
	response string
	terms    []string
	y        func(dataset.Record) float64
	x        func(dataset.Record) []float64
}

var liveSpecs = []modelSpec{
	{
		name:     "Scenario 1: year, odometer and condition → selling price",
		response: "sellingprice",
		terms:    []string{"year", "odometer", "condition"},
		y:        func(r dataset.Record) float64 { return r.SellingPrice },
		x: func(r dataset.Record) []float64 {
			return []float64{float64(r.Year), r.Odometer, r.Condition}
		},
	},
	{
		name:     "Scenario 2: year and odometer → condition",
		response: "condition",
		terms:    []string{"year", "odometer"},
		y:        func(r dataset.Record) float64 { return r.Condition },
		x: func(r dataset.Record) []float64 {
			return []float64{float64(r.Year), r.Odometer}
		},
	},
}

// Fit refits both report models on the rows of t that carry a model year.
// Rows are shuffled with opts.Seed and split so the last TestRatio share is
// held out for the test metrics.
func Fit(ctx context.Context, t *dataset.Table, opts FitOptions) (*Report, error) {
	if opts.TestRatio < 0 || opts.TestRatio > 0.9 || math.IsNaN(opts.TestRatio) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTestRatio, opts.TestRatio)
	}

	rows := t.Filter(func(r dataset.Record) bool { return r.Year != 0 })
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	nTest := int(math.Round(float64(len(rows)) * opts.TestRatio))
	train, test := rows[:len(rows)-nTest], rows[len(rows)-nTest:]

	report := &Report{
		Title: "Linear regression refitted on the loaded data",
		Intro: fmt.Sprintf("Ordinary least squares on %d training rows, %d held out.", len(train), len(test)),
		Live:  true,
	}
	for _, spec := range liveSpecs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := fitSpec(spec, train, test)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.response, err)
		}
		report.Models = append(report.Models, *m)
	}
	return report, nil
}

func fitSpec(spec modelSpec, train, test []dataset.Record) (*Model, error) {
	x := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, r := range train {
		x[i], y[i] = spec.x(r), spec.y(r)
	}

	res, err := OLS(spec.terms, x, y)
	if err != nil {
		return nil, err
	}

	diag := &Diagnostics{TrainRows: len(train), TestRows: len(test), R2Train: res.R2}
	if len(test) > 0 {
		pred := make([]float64, len(test))
		actual := make([]float64, len(test))
		var sq float64
		for i, r := range test {
			pred[i], actual[i] = res.Predict(spec.x(r)), spec.y(r)
			d := pred[i] - actual[i]
			sq += d * d
		}
		diag.R2Test = stat.RSquaredFrom(pred, actual, nil)
		diag.RMSETest = math.Sqrt(sq / float64(len(test)))
	}

	return &Model{
		Name:         spec.name,
		Response:     spec.response,
		Predictors:   spec.terms,
		Equation:     equation(spec.response, res.Coefficients),
		Coefficients: res.Coefficients,
		Diagnostics:  diag,
		Notes: []string{
			fmt.Sprintf("Residual standard error %.4g on %d degrees of freedom.", res.Sigma, res.DF),
			fmt.Sprintf("Test R² %.4f, RMSE %.4g.", diag.R2Test, diag.RMSETest),
		},
	}, nil
}

func equation(response string, coefs []Coefficient) string {
	s := fmt.Sprintf("%s = %.6g", response, coefs[0].Estimate)
	for _, c := range coefs[1:] {
		sign, v := "+", c.Estimate
		if v < 0 {
			sign, v = "−", -v
		}
		s += fmt.Sprintf(" %s %.6g·%s", sign, v, c.Term)
	}
	return s
}
