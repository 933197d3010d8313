package field

// Kind is the value domain of a searchable field.
type Kind string

// Field kind constants.
const (
	Text    Kind = "text"
	Integer Kind = "integer"
	// Date values are ISO calendar dates (YYYY-MM-DD) compared as text.
	Date Kind = "date"
	// YesNo values are the literals "Yes" and "No".
	YesNo Kind = "yes_no"
)

// SupportsLike reports whether substring matching makes sense for the kind.
func (k Kind) SupportsLike() bool { return k == Text || k == Date }

// SupportsOrdering reports whether range comparisons make sense for the kind.
func (k Kind) SupportsOrdering() bool { return k != YesNo }

// Searchable field names. They double as column names of the search view.
const (
	CompanyName     = "company_name"
	RootDomain      = "root_domain"
	CompanyCategory = "company_category"
	Country         = "country"
	City            = "city"
	State           = "state"
	PostalCode      = "postal_code"
	Spend           = "spend"
	FirstIndexed    = "first_indexed"
	LastIndexed     = "last_indexed"
	TechName        = "tech_name"
	TechCategory    = "tech_category"
	ParentTechName  = "parent_tech_name"
	Premium         = "premium"
	Description     = "description"
)

// Source locates the base-table column behind a typeahead-capable field.
// FullTextTable is empty when no FTS index is declared for the field.
type Source struct {
	Table          string
	Column         string
	FullTextTable  string
	FullTextColumn string
}

// HasFullText reports whether a full-text index is declared for the source.
func (s Source) HasFullText() bool { return s.FullTextTable != "" && s.FullTextColumn != "" }

// Field is an immutable entry of the searchable field catalogue.
type Field struct {
	name    string
	kind    Kind
	label   string
	suggest *Source
}

// Name returns the field name (also its column in the search view).
func (f Field) Name() string { return f.name }

// Kind returns the value domain of the field.
func (f Field) Kind() Kind { return f.kind }

// Label returns the human-readable column header.
func (f Field) Label() string { return f.label }

// IsZero reports whether f is the zero Field (not from the catalogue).
func (f Field) IsZero() bool { return f.name == "" }

// Suggest returns the typeahead source, if the field supports typeahead.
func (f Field) Suggest() (Source, bool) {
	if f.suggest == nil {
		return Source{}, false
	}
	return *f.suggest, true
}

var catalogue = []Field{
	{
		name: CompanyName, kind: Text, label: "Company Name",
		suggest: &Source{Table: "company", Column: "name", FullTextTable: "company_fts", FullTextColumn: "name"},
	},
	{
		name: RootDomain, kind: Text, label: "Domain",
		suggest: &Source{
			Table: "company", Column: "root_domain", FullTextTable: "company_fts", FullTextColumn: "root_domain",
		},
	},
	{name: CompanyCategory, kind: Text, label: "Category", suggest: &Source{Table: "company", Column: "category"}},
	{name: Country, kind: Text, label: "Country", suggest: &Source{Table: "company", Column: "country"}},
	{name: City, kind: Text, label: "City", suggest: &Source{Table: "company", Column: "city"}},
	{name: State, kind: Text, label: "State", suggest: &Source{Table: "company", Column: "state"}},
	{name: PostalCode, kind: Text, label: "Postal Code"},
	{name: Spend, kind: Integer, label: "Spend"},
	{name: FirstIndexed, kind: Date, label: "First Detected"},
	{name: LastIndexed, kind: Date, label: "Last Detected"},
	{
		name: TechName, kind: Text, label: "Technology Name",
		suggest: &Source{
			Table: "technology", Column: "name", FullTextTable: "technology_fts", FullTextColumn: "name",
		},
	},
	{
		name: TechCategory, kind: Text, label: "Technology Category",
		suggest: &Source{
			Table: "technology", Column: "category", FullTextTable: "technology_fts", FullTextColumn: "category",
		},
	},
	{
		name: ParentTechName, kind: Text, label: "Parent Technology",
		suggest: &Source{Table: "technology", Column: "parent_name"},
	},
	{name: Premium, kind: YesNo, label: "Premium"},
	{name: Description, kind: Text, label: "Description"},
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(catalogue))
	for _, f := range catalogue {
		m[f.name] = f
	}
	return m
}()

// Lookup resolves a field name against the catalogue.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// MustLookup resolves a catalogue name and panics when it is missing.
// Intended for package-level projections built from the constants above.
func MustLookup(name string) Field {
	f, ok := Lookup(name)
	if !ok {
		panic("field: unknown catalogue entry " + name)
	}
	return f
}

// All returns the catalogue in display order.
func All() []Field {
	out := make([]Field, len(catalogue))
	copy(out, catalogue)
	return out
}

// FullTextTables lists the distinct FTS tables the catalogue declares, in
// catalogue order.
func FullTextTables() []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range catalogue {
		if f.suggest == nil || !f.suggest.HasFullText() || seen[f.suggest.FullTextTable] {
			continue
		}
		seen[f.suggest.FullTextTable] = true
		out = append(out, f.suggest.FullTextTable)
	}
	return out
}
