package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/ui"
)

var commentCmd = &cobra.Command{
	Use:   "comment <ticket> <text>",
	Short: "Comment on an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, number, err := parseTicket(args[0])
		if err != nil {
			return handleError(ErrInvalidInput, err, "Ticket IDs look like PRJ-4.")
		}
		text := strings.TrimSpace(args[1])
		if text == "" {
			return handleErrorMsg(ErrMissingArgument, "comment text must not be empty", "")
		}

		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		user, err := actingUser(db)
		if err != nil {
			return handleError(ErrUserNotFound, err, "")
		}

		issue, err := db.IssueByNumber(strings.ToUpper(code), number)
		if errors.Is(err, store.ErrNotFound) {
			return handleErrorMsg(ErrIssueNotFound, fmt.Sprintf("no issue %s", args[0]), "")
		}
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		allowed, err := db.DeveloperAllowed(issue.ProjectID, user.ID)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if !allowed {
			return handleErrorMsg(ErrPermissionDenied,
				fmt.Sprintf("not a developer of the project owning %s", args[0]), "")
		}

		comment, err := store.AddComment(db.DB(), issue.ID, user.ID, text)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(comment, nil)
			return nil
		}
		fmt.Println(ui.Successf("commented on %s (#%d)", strings.ToUpper(args[0]), comment.Seqnum))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commentCmd)
}
