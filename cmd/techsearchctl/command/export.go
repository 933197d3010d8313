package command

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func (cl *commandline) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run a search and write every matching record as CSV",
		Example: `  techsearchctl export --db companies.db --request search.json --limit 5000 --out companies.csv
  TECHSEARCH_DB=companies.db techsearchctl export --request search.json`,
		Args:    cobra.NoArgs,
		PreRunE: cl.bindLocal,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			req, err := cl.readRequest()
			if err != nil {
				return err
			}
			c, err := cl.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Export(cmd.Context(), req, cl.v.GetInt(keyLimit))
			if err != nil {
				return err
			}

			var w io.Writer = cl.stdout
			out := cl.v.GetString(keyOut)
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = fmt.Errorf("close output: %w", cerr)
					}
				}()
				w = f
			}
			if err := res.WriteCSV(w); err != nil {
				return err
			}

			note := ""
			if res.Truncated {
				note = " (truncated)"
			}
			fmt.Fprintf(cl.stderr, "exported %d of %d records%s\n", len(res.Rows), res.Total, note)
			return nil
		},
	}
	cmd.Flags().String(keyRequest, "", `request JSON file, "-" for stdin`)
	cmd.Flags().Int(keyLimit, 0, "maximum number of records (0 means 1000)")
	cmd.Flags().String(keyOut, "", `output file, empty or "-" for stdout`)
	return cmd
}
