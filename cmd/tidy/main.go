// Command tidy cleans tabular exports (bank statements, sales extracts,
// weather observations) through a configured pipeline of stages, runs the
// configured analysis and saves the results.
//
// Example:
//
//	tidy run configs/pipelines/sales.yaml
//	tidy run --recipe bank --source data/statement.xlsx
//	tidy inspect data/raw.csv --starter > configs/pipelines/raw.yaml
package main

import "os"

func main() {
	os.Exit(execute())
}
