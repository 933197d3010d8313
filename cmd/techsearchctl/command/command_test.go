package command

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/techsearch/internal/db/sqlite"
)

const germanyRequest = `{"filters":{"operator":"AND","conditions":[{"field":"country","operator":"=","value":"DE"}]}}`

func fixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.db")
	if err := sqlite.CreateFixture(context.Background(), path, sqlite.FixtureOptions{}); err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCompile(t *testing.T) {
	db := fixtureDB(t)
	stdout, _, err := run(t, germanyRequest, "compile", "--db", db, "--request", "-", "--limit", "7")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var got compileOut
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}
	if !strings.Contains(got.Page.SQL, "country = ?") {
		t.Errorf("page sql = %s", got.Page.SQL)
	}
	if len(got.Page.Args) != 2 || got.Page.Args[0] != "DE" || got.Page.Args[1] != float64(25) {
		t.Errorf("page args = %v", got.Page.Args)
	}
	if len(got.Count.Args) != 1 || got.Count.Args[0] != "DE" {
		t.Errorf("count args = %v", got.Count.Args)
	}
	if n := len(got.Export.Args); n != 2 || got.Export.Args[1] != float64(7) {
		t.Errorf("export args = %v", got.Export.Args)
	}
}

func TestCompile_RequestFile(t *testing.T) {
	db := fixtureDB(t)
	reqPath := filepath.Join(t.TempDir(), "search.json")
	if err := os.WriteFile(reqPath, []byte(`{"sort":{"field":"spend","direction":"desc"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := run(t, "", "compile", "--db", db, "--request", reqPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(stdout, "spend DESC") {
		t.Errorf("output missing sort: %s", stdout)
	}
}

func TestCompile_ValidationError(t *testing.T) {
	db := fixtureDB(t)
	body := `{"filters":{"operator":"AND","conditions":[{"field":"ssn","operator":"=","value":"x"}]}}`
	_, _, err := run(t, body, "compile", "--db", db, "--request", "-")
	if err == nil || !strings.Contains(err.Error(), "ssn") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestExport_Stdout(t *testing.T) {
	db := fixtureDB(t)
	stdout, stderr, err := run(t, germanyRequest, "export", "--db", db, "--request", "-")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d csv lines, want header + 3:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "Company Name,") {
		t.Errorf("header = %s", lines[0])
	}
	if strings.TrimSpace(stderr) != "exported 3 of 3 records" {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExport_FileTruncated(t *testing.T) {
	db := fixtureDB(t)
	out := filepath.Join(t.TempDir(), "out.csv")
	_, stderr, err := run(t, "", "export", "--db", db, "--limit", "2", "--out", out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if n := strings.Count(strings.TrimSpace(string(data)), "\n"); n != 2 {
		t.Errorf("got %d data rows, want 2", n)
	}
	if !strings.Contains(stderr, "exported 2 of 14 records (truncated)") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExport_EnvOverrides(t *testing.T) {
	db := fixtureDB(t)
	t.Setenv("TECHSEARCH_DB", db)
	t.Setenv("TECHSEARCH_EXPORT_MAX", "3")

	_, stderr, err := run(t, "", "export", "--limit", "10")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(stderr, "exported 3 of 14 records (truncated)") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSuggest(t *testing.T) {
	db := fixtureDB(t)
	stdout, _, err := run(t, "", "suggest", "--db", db, "--field", "tech_name", "--q", "Rea")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	got := strings.Fields(stdout)
	if len(got) != 2 || got[0] != "React" || got[1] != "Preact" {
		t.Errorf("suggestions = %v", got)
	}

	if _, _, err := run(t, "", "suggest", "--db", db, "--field", "spend", "--q", "1"); err == nil {
		t.Error("expected error for non-typeahead field")
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing db", []string{"compile"}, "--db"},
		{"unknown driver", []string{"compile", "--db", "x.db", "--driver", "postgres"}, "unknown driver"},
		{"missing request file", []string{"export", "--db", "x.db", "--request", "/nonexistent/req.json"}, "open request"},
		{"unknown flag", []string{"compile", "--nope"}, "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TECHSEARCH_DB", "")
			_, _, err := run(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestNormalizeFlag(t *testing.T) {
	db := fixtureDB(t)
	_, stderr, err := run(t, "", "export", "--db", db, "--export_max", "1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(stderr, "exported 1 of 14") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "", "--version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout, "dev") {
		t.Errorf("version output = %q", stdout)
	}
}
