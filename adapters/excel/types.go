package excel

// RawRowData represents a row of raw table data as header -> cell text
type RawRowData map[string]string

// TableData represents a complete sample table
type TableData struct {
	Headers []string     // Column headers, trimmed
	Rows    []RawRowData // Data rows
}

// Column names recognised in sample tables, lower case
var (
	powerColumns     = []string{"power", "powers"}
	weightColumns    = []string{"weights", "weight"}
	frequencyColumns = []string{"frequency", "rho", "pdf"}
	directionColumns = []string{"direction", "winddirection", "winddirections"}
	speedColumns     = []string{"speed", "windspeed", "windspeeds"}
)
