package main

import (
	"strconv"

	"github.com/deppfellow/go-absl/accessor"
	"github.com/deppfellow/go-absl/internal/lib/utils"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}
			return rt.app.Migrate(cmd.Context())
		},
	}
}

func newTablesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Show the registered table definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}

			acc := rt.app.Accessor
			defs := make([]accessor.TableDefinition, 0)
			for _, name := range acc.Tables() {
				def, err := acc.Definition(name)
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}
			return utils.PrintJSON(cmd.OutOrStdout(), defs)
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var columns string

	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "Print every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := useTable(cmd, opts, args[0])
			if err != nil {
				return err
			}
			out, err := table.ListJSON(cmd.Context(), utils.SplitList(columns)...)
			if err != nil {
				return err
			}
			return writeLine(cmd, out)
		},
	}
	cmd.Flags().StringVar(&columns, "columns", "", "comma-separated columns (default all)")
	return cmd
}

func newFetchCommand(opts *rootOptions) *cobra.Command {
	var columns string

	cmd := &cobra.Command{
		Use:   "fetch <table> <column> <value>",
		Short: "Print the first row whose column equals value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := useTable(cmd, opts, args[0])
			if err != nil {
				return err
			}

			cols := utils.SplitList(columns)
			if len(cols) == 0 {
				cols = table.Definition().Columns
			}
			out, err := table.FetchJSON(cmd.Context(), cols, args[1], accessor.Text(args[2]))
			if err != nil {
				return err
			}
			return writeLine(cmd, out)
		},
	}
	cmd.Flags().StringVar(&columns, "columns", "", "comma-separated columns (default all declared)")
	return cmd
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <table> <column> <pattern>",
		Short: "Print rows whose column matches the regular expression ^pattern",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := useTable(cmd, opts, args[0])
			if err != nil {
				return err
			}
			rows, err := table.Search(cmd.Context(), args[2], args[1])
			if err != nil {
				return err
			}
			out, err := accessor.MarshalRows(rows)
			if err != nil {
				return err
			}
			return writeLine(cmd, out)
		},
	}
}

func newPageCommand(opts *rootOptions) *cobra.Command {
	var (
		size    int
		columns string
	)

	cmd := &cobra.Command{
		Use:   "page <table> <number>",
		Short: "Print one page of a table ordered by its primary key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			table, err := useTable(cmd, opts, args[0])
			if err != nil {
				return err
			}
			page, err := table.WithPageRowCount(size).Paginate(cmd.Context(), number, utils.SplitList(columns)...)
			if err != nil {
				return err
			}
			out, err := page.MarshalJSON()
			if err != nil {
				return err
			}
			return writeLine(cmd, out)
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "rows per page (default accessor.page_row_count)")
	cmd.Flags().StringVar(&columns, "columns", "", "comma-separated columns (default all)")
	return cmd
}

func useTable(cmd *cobra.Command, opts *rootOptions, name string) (*accessor.Table, error) {
	rt, err := opts.runtime(cmd.Context())
	if err != nil {
		return nil, err
	}
	return rt.app.Accessor.UseTable(name)
}

func writeLine(cmd *cobra.Command, out []byte) error {
	_, err := cmd.OutOrStdout().Write(append(out, '\n'))
	return err
}
