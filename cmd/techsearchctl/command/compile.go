package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	techsearch "github.com/kailas-cloud/techsearch/pkg/sdk"
)

type statementOut struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

type compileOut struct {
	Page   statementOut `json:"page"`
	Count  statementOut `json:"count"`
	Export statementOut `json:"export"`
}

func newStatementOut(s techsearch.Statement) statementOut {
	args := s.Args
	if args == nil {
		args = []any{}
	}
	return statementOut{SQL: s.SQL, Args: args}
}

func (cl *commandline) compileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the SQL statements a search request compiles to",
		Example: `  techsearchctl compile --db companies.db --request search.json
  echo '{"filters":{"operator":"AND","conditions":[{"field":"country","operator":"=","value":"DE"}]}}' | techsearchctl compile --db companies.db --request -`,
		Args:    cobra.NoArgs,
		PreRunE: cl.bindLocal,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := cl.readRequest()
			if err != nil {
				return err
			}
			c, err := cl.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			q, err := c.Compile(req, cl.v.GetInt(keyLimit))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cl.stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(compileOut{
				Page:   newStatementOut(q.Page),
				Count:  newStatementOut(q.Count),
				Export: newStatementOut(q.Export),
			}); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String(keyRequest, "", `request JSON file, "-" for stdin`)
	cmd.Flags().Int(keyLimit, 0, "export limit used for the export statement (0 means the default)")
	return cmd
}
