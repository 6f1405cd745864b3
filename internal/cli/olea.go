package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/olea"
	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/ui"
)

var (
	oleaProject string
	oleaSprint  int
)

var oleaCmd = &cobra.Command{
	Use:   "olea <expression>",
	Short: "Create or edit an issue with a one-line expression",
	Long: `Apply a one-line olea expression against a project.

An expression either opens a new issue with a title, or references an
existing one with >NUMBER or >CODE-NUMBER. Directives follow, separated
by single spaces:

  @user     assign a user            #tag      attach a tag
  ;text     set the description      &column   move to a kanban column
  !0-4      set the priority         $points   set story points
  :Task     set the issue type       ~REF      add a dependency
  +1d2h10m  log time spent

Examples:
  iguana olea 'Fix the login flow :Bug !3 @ali'
  iguana olea '>PRJ-4 &Done +2h30m'`,
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
		project, err := resolveProject(db, oleaProject)
		if err != nil {
			return handleError(ErrProjectNotFound, err, "")
		}

		proc := newProcessor(db)
		if oleaSprint > 0 {
			sprint, err := db.SprintBySeqnum(project.ID, oleaSprint)
			if err != nil {
				return handleErrorMsg(ErrInvalidInput,
					fmt.Sprintf("no sprint %d in project %s", oleaSprint, project.NameShort), "")
			}
			proc.Sprint = &sprint
		}

		result, err := proc.Apply(args[0], project, user)
		if err != nil {
			return oleaError(err)
		}

		ticket := model.TicketID(project.NameShort, result.Issue.Number)
		if result.Issue.ProjectID != project.ID {
			if p, perr := db.ProjectByID(result.Issue.ProjectID); perr == nil {
				ticket = model.TicketID(p.NameShort, result.Issue.Number)
			}
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"ticket":  ticket,
				"created": result.Created,
				"changed": result.Changed,
				"issue":   result.Issue,
			}, nil)
			return nil
		}

		if result.Created {
			fmt.Println(ui.Successf("created %s: %s", ui.Accent.Render(ticket), result.Issue.Title))
		} else {
			fmt.Println(ui.Successf("updated %s", ui.Accent.Render(ticket)))
		}
		if len(result.Changed) > 0 {
			fmt.Println(ui.Muted.Render("changed: " + strings.Join(result.Changed, ", ")))
		}
		return nil
	},
}

// oleaError maps processor failures onto the CLI error taxonomy.
func oleaError(err error) error {
	var lexErr *olea.LexError
	var resErr *olea.ResolutionError
	switch {
	case errors.As(err, &lexErr):
		return handleError(ErrOleaInvalid, err, "Directives are separated by single spaces; see 'iguana olea --help'.")
	case errors.As(err, &resErr):
		return handleError(ErrOleaInvalid, err, "")
	case errors.Is(err, store.ErrPermissionDenied):
		return handleError(ErrPermissionDenied, err, "Only project developers and managers can edit issues.")
	default:
		return handleError(ErrInternal, err, "")
	}
}

func init() {
	oleaCmd.Flags().StringVarP(&oleaProject, "project", "p", "", "Project code (defaults to the active project)")
	oleaCmd.Flags().IntVar(&oleaSprint, "sprint", 0, "Sprint to place new issues into")
	rootCmd.AddCommand(oleaCmd)
}
