package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/search"
	"github.com/iguana-project/iguana/internal/ui"
)

var (
	searchKindFilter    string
	searchProjectFilter string
)

var searchCmd = &cobra.Command{
	Use:   "search <expression>",
	Short: "Search the tracker",
	Long: `Search the tracker with a query expression.

Structured queries name an entity field with a comparator:

  Issue.title ~~ "login" AND Issue.priority >= 3 SORT Issue.due_date ASC
  Project.name == "Iguana" OR User.username ~ "^a"

Comparators: == != < <= > >= ~ (regex) ~~ (case-insensitive contains).
Dates are written as yyyymmdd. AND/OR are upper-case; operands combined
with them must be at least 3 characters long.

Anything that does not parse as a structured query runs as a full-text
search across all entities, honoring " OR " and " AND ".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		user, err := actingUser(db)
		if err != nil {
			return handleError(ErrUserNotFound, err, "")
		}

		results, err := newFrontend(db).Query(args[0], user)
		if err != nil {
			return searchError(err)
		}

		results, err = applyResultFilters(results)
		if err != nil {
			return err
		}

		if isJSONOutput() {
			outputSuccess(results, &Meta{Count: len(results)})
			return nil
		}

		if len(results) == 0 {
			fmt.Println(ui.Muted.Render("no results"))
			return nil
		}
		renderResults(results)
		return nil
	},
}

// applyResultFilters narrows results by the --type and --project flags.
func applyResultFilters(results []search.Result) ([]search.Result, error) {
	if searchKindFilter != "" {
		kind, ok := matchKind(searchKindFilter)
		if !ok {
			return nil, handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("unknown entity type %q", searchKindFilter),
				"Valid types: issue, project, user, comment, tag, commit.")
		}
		results = filterResults(results, func(r search.Result) bool {
			return r.Kind == kind
		})
	}
	if searchProjectFilter != "" {
		results = filterResults(results, func(r search.Result) bool {
			return strings.EqualFold(r.ProjectCode, searchProjectFilter)
		})
	}
	return results, nil
}

func matchKind(s string) (model.Kind, bool) {
	for _, k := range model.Kinds {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

func filterResults(results []search.Result, keep func(search.Result) bool) []search.Result {
	filtered := results[:0]
	for _, r := range results {
		if keep(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func renderResults(results []search.Result) {
	display := ui.NewDisplayContext()
	tbl := ui.NewResultsTable(display, ui.SearchLayout)
	titleWidth := tbl.ContentWidth("title")
	for i, r := range results {
		tbl.AddRow(ui.ResultRow{
			Num: i + 1,
			Cells: []string{
				ui.FormatRowNum(i+1, len(results)),
				ui.TruncateWithEllipsis(r.Title, titleWidth),
				string(r.Kind),
				r.Project,
			},
		})
	}
	fmt.Println(tbl.Render())
	fmt.Println(ui.Muted.Render(fmt.Sprintf("%d result(s)", len(results))))
}

// searchError maps query failures onto the CLI error taxonomy.
func searchError(err error) error {
	var lexErr *search.LexError
	var parseErr *search.ParseError
	var fieldErr *search.FieldError
	switch {
	case errors.As(err, &lexErr), errors.As(err, &parseErr):
		return handleError(ErrQueryInvalid, err, "See 'iguana search --help' for the query syntax.")
	case errors.As(err, &fieldErr):
		return handleError(ErrQueryInvalid, err, "Run a bare-word query to see matching entities.")
	default:
		return handleError(ErrInternal, err, "")
	}
}

func init() {
	searchCmd.Flags().StringVar(&searchKindFilter, "type", "", "Only show results of this entity type")
	searchCmd.Flags().StringVarP(&searchProjectFilter, "project", "p", "", "Only show results from this project")
	rootCmd.AddCommand(searchCmd)
}
