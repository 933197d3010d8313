package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/techsearch/internal/db/sqldb"
)

// FixtureOptions controls the generated test dataset.
type FixtureOptions struct {
	// SkipFullText omits the FTS5 tables so typeahead falls back to substring matching.
	SkipFullText bool
}

// Schema is the dataset layout: base tables plus the flattened search view.
// Dates are stored as TEXT so every driver returns them as "YYYY-MM-DD".
const Schema = `
CREATE TABLE company (
	id            INTEGER PRIMARY KEY,
	root_domain   TEXT NOT NULL,
	name          TEXT,
	category      TEXT,
	country       TEXT,
	city          TEXT,
	state         TEXT,
	postal_code   TEXT,
	spend         INTEGER,
	first_indexed TEXT,
	last_indexed  TEXT
);
CREATE TABLE technology (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	parent_name TEXT,
	premium     TEXT,
	description TEXT,
	category    TEXT
);
CREATE TABLE company_tech (
	company_id INTEGER NOT NULL REFERENCES company(id),
	tech_id    INTEGER NOT NULL REFERENCES technology(id),
	PRIMARY KEY (company_id, tech_id)
);
CREATE VIEW v_company_tech AS
SELECT
	c.name          AS company_name,
	c.root_domain   AS root_domain,
	c.category      AS company_category,
	c.country       AS country,
	c.city          AS city,
	c.state         AS state,
	c.postal_code   AS postal_code,
	c.spend         AS spend,
	c.first_indexed AS first_indexed,
	c.last_indexed  AS last_indexed,
	t.name          AS tech_name,
	t.category      AS tech_category,
	t.parent_name   AS parent_tech_name,
	t.premium       AS premium,
	t.description   AS description
FROM company c
JOIN company_tech ct ON ct.company_id = c.id
JOIN technology t ON t.id = ct.tech_id;
`

// FullTextSchema builds the FTS5 indexes typeahead prefers.
const FullTextSchema = `
CREATE VIRTUAL TABLE company_fts USING fts5(name, root_domain);
INSERT INTO company_fts (rowid, name, root_domain) SELECT id, name, root_domain FROM company;
CREATE VIRTUAL TABLE technology_fts USING fts5(name, category);
INSERT INTO technology_fts (rowid, name, category) SELECT id, name, category FROM technology;
`

const fixtureData = `
INSERT INTO company VALUES
	(1, 'acme.com',     'Acme Corp',     'Retail',   'US', 'Austin',    'TX', '73301', 1200, '2023-01-10', '2024-05-01'),
	(2, 'globex.ca',    'Globex',        'Software', 'CA', 'Toronto',   'ON', 'M5H',   5000, '2022-07-01', '2024-06-15'),
	(3, 'initech.com',  'Initech',       'Software', 'US', 'Austin',    'TX', '73301',  300, '2023-03-03', '2024-01-20'),
	(4, 'umbrella.de',  'Umbrella GmbH', 'Pharma',   'DE', 'Berlin',    '',   '10115', 9000, '2021-11-11', '2024-07-07'),
	(5, 'hooli.com',    'Hooli',         'Software', 'US', 'Palo Alto', 'CA', '94301',  NULL, '2024-02-02', '2024-08-08');
INSERT INTO technology VALUES
	(1, 'React',     'JavaScript Frameworks', 'No',  'UI library',            'JavaScript'),
	(2, 'Preact',    'React',                 'No',  'Fast React alternative', 'JavaScript'),
	(3, 'Vue',       'JavaScript Frameworks', 'No',  'Progressive framework',  'JavaScript'),
	(4, 'jQuery',    NULL,                    'No',  'DOM helpers',            'JavaScript'),
	(5, 'Shopify',   NULL,                    'Yes', 'Hosted commerce',        'Ecommerce'),
	(6, 'Salesforce', NULL,                   'Yes', 'CRM',                    'CRM');
INSERT INTO company_tech VALUES
	(1, 1), (1, 4), (1, 5),
	(2, 1), (2, 6),
	(3, 2), (3, 3),
	(4, 1), (4, 4), (4, 6),
	(5, 1), (5, 2), (5, 3), (5, 5);
`

// CreateFixture writes the sample dataset to a new database file at path.
func CreateFixture(ctx context.Context, path string, opts FixtureOptions) error {
	pool, err := sql.Open(Dialect.Name, "file:"+path)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer pool.Close()

	stmts := []string{Schema, fixtureData}
	if !opts.SkipFullText {
		stmts = append(stmts, FullTextSchema)
	}
	for _, s := range stmts {
		if _, err := pool.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("create fixture: %w", err)
		}
	}
	return nil
}

// NewStoreForTest creates the sample dataset in a temp dir and opens it.
// The store is closed by t.Cleanup.
func NewStoreForTest(tb testing.TB, opts FixtureOptions) *sqldb.Store {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "techsearch.db")
	if err := CreateFixture(context.Background(), path, opts); err != nil {
		tb.Fatalf("create fixture: %v", err)
	}
	s, err := Open(Config{Path: path, MaxOpenConns: 4})
	if err != nil {
		tb.Fatalf("open fixture: %v", err)
	}
	tb.Cleanup(func() { _ = s.Close() })
	return s
}
