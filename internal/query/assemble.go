package query

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/domain/search/request"
)

// Projection is the fixed column list of one call site.
type Projection struct {
	name    string
	columns []field.Field
}

func newProjection(name string, names ...string) Projection {
	cols := make([]field.Field, len(names))
	for i, n := range names {
		cols[i] = field.MustLookup(n)
	}
	return Projection{name: name, columns: cols}
}

// Name returns the projection name, used in errors and metrics.
func (p Projection) Name() string { return p.name }

// Columns returns the projected column names in order.
func (p Projection) Columns() []string {
	out := make([]string, len(p.columns))
	for i, f := range p.columns {
		out[i] = f.Name()
	}
	return out
}

// Fields returns the projected catalogue fields in order.
func (p Projection) Fields() []field.Field {
	out := make([]field.Field, len(p.columns))
	copy(out, p.columns)
	return out
}

func (p Projection) has(name string) bool {
	for _, f := range p.columns {
		if f.Name() == name {
			return true
		}
	}
	return false
}

// Call-site projections.
var (
	PageProjection = newProjection("page",
		field.CompanyName, field.RootDomain, field.CompanyCategory, field.Country, field.Spend,
		field.TechName, field.TechCategory, field.FirstIndexed, field.LastIndexed,
	)
	ExportProjection = newProjection("export",
		field.CompanyName, field.RootDomain, field.CompanyCategory, field.Country, field.City,
		field.State, field.PostalCode, field.Spend, field.FirstIndexed, field.LastIndexed,
		field.TechName, field.TechCategory, field.ParentTechName, field.Premium, field.Description,
	)
)

// defaultSort applies when the request has none; tiebreakers are always
// appended so every row-returning statement has a total order over the
// projection. (root_domain, tech_name) is unique per projected row.
var (
	defaultSort = field.CompanyName
	tiebreakers = []string{field.RootDomain, field.TechName}
)

// Plan is a row statement and the count statement over the same filtered projection.
type Plan struct {
	Rows  Compiled
	Count Compiled
}

// Assembler builds page, count and export statements over one view.
type Assembler struct {
	view string
	sb   sq.StatementBuilderType
}

// NewAssembler creates an Assembler reading from view. The view name is
// trusted configuration, never client input.
func NewAssembler(view string) *Assembler {
	return &Assembler{view: view, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

// Search compiles the filter tree once and returns the page statement and
// its matching count statement.
func (a *Assembler) Search(req request.Request) (Plan, error) {
	where, err := CompileGroup(req.Filters())
	if err != nil {
		return Plan{}, err
	}
	return a.plan(PageProjection, where, req.Sorts(), req.Limit(), req.Offset())
}

// Export returns the capped export statement and the count of all rows
// available for the same filters.
func (a *Assembler) Export(exp request.Export) (Plan, error) {
	search := exp.Search()
	where, err := CompileGroup(search.Filters())
	if err != nil {
		return Plan{}, err
	}
	return a.plan(ExportProjection, where, search.Sorts(), exp.Limit(), 0)
}

func (a *Assembler) plan(p Projection, where Compiled, sorts []request.Sort, limit, offset int) (Plan, error) {
	rows, err := a.selectRows(p, where, sorts, limit, offset)
	if err != nil {
		return Plan{}, err
	}
	count, err := a.count(p, where)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Rows: rows, Count: count}, nil
}

// filtered is "SELECT DISTINCT <cols> FROM <view> WHERE 1=1 AND <fragment>".
func (a *Assembler) filtered(p Projection, where Compiled) sq.SelectBuilder {
	return a.sb.Select(p.Columns()...).
		Distinct().
		From(a.view).
		Where(sqlTrue).
		Where(where)
}

// selectRows builds the ordered row statement. limit <= 0 means no LIMIT.
func (a *Assembler) selectRows(
	p Projection, where Compiled, sorts []request.Sort, limit, offset int,
) (Compiled, error) {
	order, err := orderBy(p, sorts)
	if err != nil {
		return Compiled{}, err
	}

	b := a.filtered(p, where).OrderBy(order...)
	if limit > 0 {
		b = b.Suffix("LIMIT ?", limit)
		if offset > 0 {
			b = b.Suffix("OFFSET ?", offset)
		}
	}
	return render(b)
}

func (a *Assembler) count(p Projection, where Compiled) (Compiled, error) {
	return render(a.sb.Select("COUNT(*)").FromSelect(a.filtered(p, where), "filtered"))
}

func orderBy(p Projection, sorts []request.Sort) ([]string, error) {
	terms := make([]string, 0, len(sorts)+len(tiebreakers)+1)
	used := make(map[string]struct{}, cap(terms))

	for i, s := range sorts {
		name := s.Field().Name()
		if !p.has(name) {
			return nil, fmt.Errorf("sort[%d]: field %q is not a %s result column", i, name, p.name)
		}
		if s.Direction() != request.Asc && s.Direction() != request.Desc {
			return nil, fmt.Errorf("sort[%d]: invalid direction %q", i, s.Direction())
		}
		terms = append(terms, name+" "+string(s.Direction()))
		used[name] = struct{}{}
	}
	if len(sorts) == 0 {
		terms = append(terms, defaultSort+" "+string(request.Asc))
		used[defaultSort] = struct{}{}
	}
	for _, name := range tiebreakers {
		if _, ok := used[name]; !ok {
			terms = append(terms, name+" "+string(request.Asc))
		}
	}
	return terms, nil
}
