// Package regression holds the regression section of the dashboard: the
// static report of the two published models and a live least-squares refit
// over a loaded table.
package regression

// Coefficient is one estimated term of a linear model.
type Coefficient struct {
	Term     string  `json:"term"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err,omitempty"`
	TStat    float64 `json:"t,omitempty"`
	PValue   float64 `json:"p_value"`
	CILow    float64 `json:"ci_low"`
	CIHigh   float64 `json:"ci_high"`
}

// Model is a fitted linear model with its narrative.
type Model struct {
	Name           string        `json:"name"`
	Response       string        `json:"response"`
	Predictors     []string      `json:"predictors"`
	Equation       string        `json:"equation"`
	Latex          string        `json:"latex"`
	Coefficients   []Coefficient `json:"coefficients"`
	Notes          []string      `json:"notes"`
	Interpretation string        `json:"interpretation,omitempty"`
	Diagnostics    *Diagnostics  `json:"diagnostics,omitempty"`
}

// Report is the regression section content.
type Report struct {
	Title  string  `json:"title"`
	Intro  string  `json:"intro"`
	Models []Model `json:"models"`
	// Live is true when the models were fitted on the loaded table.
	Live bool `json:"live"`
}

// StaticReport returns the two published model summaries. It does not
// depend on any loaded data.
func StaticReport() *Report {
	return &Report{
		Title: "Linear regression and correlation",
		Intro: "Which factors influence selling price and vehicle condition, and how strongly?",
		Models: []Model{
			{
				Name:       "Scenario 1: year, odometer and condition → selling price",
				Response:   "sellingprice",
				Predictors: []string{"year", "odometer", "condition"},
				Equation:   "SellingPrice = -1.514e6 + 760.66·year − 0.056·odometer + 88.30·condition",
				Latex: `\hat{SellingPrice} = -1.514 \times 10^{6} + 760.66 \cdot \text{year} ` +
					`- 0.056 \cdot \text{odometer} + 88.30 \cdot \text{condition}`,
				Coefficients: []Coefficient{
					{Term: "const", Estimate: -1.514e6},
					{Term: "year", Estimate: 760.66, PValue: 0, CILow: 750.84, CIHigh: 770.47},
					{Term: "odometer", Estimate: -0.056, PValue: 0, CILow: -0.0566, CIHigh: -0.0552},
					{Term: "condition", Estimate: 88.30, PValue: 0, CILow: 86.38, CIHigh: 90.23},
				},
				Notes: []string{
					"Standard errors are small, indicating precise estimates.",
					"All p-values are 0.000: every predictor is statistically significant.",
				},
				Interpretation: "Newer cars in better condition sell for more; cars with higher mileage sell for less.",
			},
			{
				Name:       "Scenario 2: year and odometer → condition",
				Response:   "condition",
				Predictors: []string{"year", "odometer"},
				Equation:   "Condition = -1583.87 + 0.804·year − 0.000035·odometer",
				Latex: `\widehat{Condition} = -1583.87 + 0.804 \cdot \text{year} ` +
					`- 0.000035 \cdot \text{odometer}`,
				Coefficients: []Coefficient{
					{Term: "const", Estimate: -1583.87},
					{Term: "year", Estimate: 0.804, PValue: 0, CILow: 0.788, CIHigh: 0.820},
					{Term: "odometer", Estimate: -0.000035, PValue: 0, CILow: -0.000036, CIHigh: -0.000033},
				},
				Notes: []string{
					"Standard errors are very small, indicating high precision.",
					"All p-values are 0.000: every predictor is statistically significant.",
				},
				Interpretation: "Each additional model year raises condition by about 0.8 points, while every " +
					"10,000 units on the odometer lower it by about 0.35 points. Newer, less driven cars " +
					"tend to be in better condition.",
			},
		},
	}
}
