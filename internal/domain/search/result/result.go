package result

// Row is one result row keyed by column name.
type Row map[string]any

// Page is one page of search results plus the total number of matches.
type Page struct {
	Rows   []Row
	Total  int
	Limit  int
	Offset int
}

// Export is the outcome of an export: the rows returned and the rows available.
type Export struct {
	Rows    []Row
	Columns []string
	Total   int
}

// Truncated reports whether the export returned fewer rows than are available.
func (e Export) Truncated() bool { return len(e.Rows) < e.Total }
