// Package all registers every built-in storage backend. Import it for side
// effects:
//
//	import _ "github.com/Haashiraaa/data-analysis-projects/internal/storage/all"
//
// Kinds made available: "parquet", "csv", "sqlite", "postgres", "mssql",
// "mysql".
// A binary that needs only a subset can import the backend packages directly.
package all

import (
	_ "github.com/Haashiraaa/data-analysis-projects/internal/storage/csv"
	_ "github.com/Haashiraaa/data-analysis-projects/internal/storage/mssql"
	_ "github.com/Haashiraaa/data-analysis-projects/internal/storage/mysql"
	_ "github.com/Haashiraaa/data-analysis-projects/internal/storage/parquet"
	_ "github.com/Haashiraaa/data-analysis-projects/internal/storage/postgres"
	_ "github.com/Haashiraaa/data-analysis-projects/internal/storage/sqlite"
)
