// Package dataset loads and cleans the used-car sales table that every
// dashboard view is computed from.
//
// # Loading
//
// Load validates the source path, reads it as CSV or XLSX, and cleans it
// into an immutable Table:
//
//	table, stats, err := dataset.Load(ctx, "data/car_prices.csv", dataset.Options{})
//	if err != nil {
//	    return err
//	}
//	logger.Info("dataset ready", slog.Int("rows", stats.RowsKept))
//
// # Cleaning rules
//
//   - rows missing sellingprice, saledate, odometer or condition are dropped
//   - missing categorical values become "Unknown" before normalisation
//   - make, model and body are lower-cased and trimmed, state is upper-cased and trimmed
//   - saledate is converted to UTC and stored without a location
//   - a missing year or mmr is kept as 0
//
// # Ownership
//
// A Table is never mutated after construction. Accessors hand out values or
// fresh slices, so views can filter and aggregate without coordination.
package dataset
