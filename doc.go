// Package tabreg analyzes a tabular dataset and fits an ordinary least
// squares model on it.
//
// A run goes through the following stages, each narrated to the console:
//
//  1. Load a CSV or Excel file into a dataframe.Frame with an explicit
//     per-column schema (numeric or categorical).
//  2. Explore it: preview, column info, descriptive statistics, missing
//     counts and category frequencies.
//  3. Draw a histogram, a bar chart and a scatter plot.
//  4. Fill missing values, encode categories, drop leftover text columns.
//  5. Split the rows into train and test sets.
//  6. Fit linear.LinearRegression and report MAE and R² on the test set.
//
// # Quick Start
//
//	f, err := dataframe.Load("data/raw/dados_exemplo.csv", dataframe.LoadOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f, _, _ = preprocessing.Impute(f, preprocessing.StrategyMedian, preprocessing.StrategyMostFrequent)
//	f, _, _ = preprocessing.Encode(f, []string{"sexo", "categoria"}, preprocessing.EncodingOneHot)
//	f, _, _ = preprocessing.DropNonNumeric(f, "target")
//
//	split, err := preprocessing.TrainTestSplit(f.Drop("id"), "target", preprocessing.DefaultSplitOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model, err := linear.FitFrame(split)
//	...
//
// The same flow is available as a command:
//
//	tabreg run data/raw/dados_exemplo.csv
//
// # Packages
//
//   - dataframe: typed columns, CSV/XLSX loading
//   - explore: read-only exploratory analysis and table rendering
//   - visualize: gonum/plot figures written as png, svg or pdf
//   - preprocessing: imputation, encoding, column selection, split, scaling
//   - linear: least squares regression via SVD
//   - metrics: MAE, MSE, RMSE, R² and friends
//   - pipeline: the staged runner used by cmd/tabreg
//   - config: viper-backed settings with validation
//   - core/model: shared interfaces, fitted state and saved weights
//   - pkg/errors, pkg/log: error types and structured logging
package tabreg
