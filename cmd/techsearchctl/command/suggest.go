package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (cl *commandline) suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "suggest",
		Short:   "List typeahead suggestions for a field",
		Example: `  techsearchctl suggest --db companies.db --field tech_name --q Rea`,
		Args:    cobra.NoArgs,
		PreRunE: cl.bindLocal,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cl.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			values, err := c.Suggest(cmd.Context(), cl.v.GetString(keyField), cl.v.GetString(keyQuery))
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cl.stdout, v)
			}
			return nil
		},
	}
	cmd.Flags().String(keyField, "", "typeahead field, e.g. tech_name")
	cmd.Flags().String(keyQuery, "", "text to complete")
	return cmd
}
