package domain

// Label identifies a period on the shared axis. Labels are opaque strings
// ordered by the axis comparator; within one axis they are unique.
type Label = string

// FileID identifies a loaded input file.
type FileID = string

// Float returns a pointer to v, for building nullable value slices.
func Float(v float64) *float64 {
	return &v
}

// InputFileMeta describes a loaded input file: its series names (the values
// of the Name column) and its period-label columns.
type InputFileMeta struct {
	ID      FileID   `json:"id"`
	Name    string   `json:"name"`
	Series  []string `json:"series"`
	Columns []Label  `json:"columns"`
}

// FileSeries is one file's values for a series, aligned 1:1 with the axis.
// Missing observations are nil.
type FileSeries struct {
	File   FileID     `json:"file"`
	Values []*float64 `json:"values"`
}

// SeriesData is the result of fetching a series across selected files: the
// shared axis labels and one aligned value array per file.
type SeriesData struct {
	Labels []Label      `json:"labels"`
	Series []FileSeries `json:"series"`
}
