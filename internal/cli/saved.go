package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/ui"
)

var (
	savedShowHistory bool
	savedSharedWith  string
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved searches",
	Long: `Manage saved searches.

Every query you run is recorded in your search history; only the most
recent entries are kept. 'saved keep' promotes a history entry to a
permanent saved search, which can then be shared with projects.`,
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your saved searches",
	Args:  cobra.NoArgs,
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

		var searches []model.Search
		if savedSharedWith != "" {
			project, err := resolveProject(db, savedSharedWith)
			if err != nil {
				return handleError(ErrProjectNotFound, err, "")
			}
			searches, err = db.SharedSearches(project.ID)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
		} else {
			searches, err = db.SearchesByCreator(user.ID, !savedShowHistory)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
		}

		if isJSONOutput() {
			outputSuccess(searches, &Meta{Count: len(searches)})
			return nil
		}
		if len(searches) == 0 {
			fmt.Println(ui.Muted.Render("no saved searches"))
			return nil
		}
		tbl := ui.NewTable(3)
		for _, s := range searches {
			tbl.AddRow(
				ui.Accent.Render(fmt.Sprintf("#%d", s.ID)),
				s.Expression,
				ui.Muted.Render(s.Description))
		}
		fmt.Print(tbl.String())
		return nil
	},
}

var savedKeepCmd = &cobra.Command{
	Use:   "keep <id>",
	Short: "Promote a history entry to a saved search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSearch(args[0], func(db *store.Database, user model.User, id int64) error {
			if err := db.MakePersistent(id, user.ID); err != nil {
				return savedError(err)
			}
			return savedOK(fmt.Sprintf("search #%d saved", id))
		})
	},
}

var savedRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a saved search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSearch(args[0], func(db *store.Database, user model.User, id int64) error {
			if err := db.DeletePersistent(id, user.ID); err != nil {
				return savedError(err)
			}
			return savedOK(fmt.Sprintf("search #%d deleted", id))
		})
	},
}

var savedShareCmd = &cobra.Command{
	Use:   "share <id> <project>",
	Short: "Share a saved search with a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSearch(args[0], func(db *store.Database, user model.User, id int64) error {
			project, err := resolveProject(db, args[1])
			if err != nil {
				return handleError(ErrProjectNotFound, err, "")
			}
			if err := db.ShareSearch(id, project.ID, user.ID); err != nil {
				return savedError(err)
			}
			return savedOK(fmt.Sprintf("search #%d shared with %s", id, project.NameShort))
		})
	},
}

var savedDescribeCmd = &cobra.Command{
	Use:   "describe <id> <text>",
	Short: "Set the description of a saved search",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSearch(args[0], func(db *store.Database, user model.User, id int64) error {
			s, err := db.SearchByID(id)
			if err != nil {
				return savedError(err)
			}
			if err := db.UpdateSearch(id, user.ID, args[1], s.Expression); err != nil {
				return savedError(err)
			}
			return savedOK(fmt.Sprintf("search #%d described", id))
		})
	},
}

var savedRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Run a saved search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSearch(args[0], func(db *store.Database, user model.User, id int64) error {
			ok, err := db.CanReadSearch(id, user.ID)
			if err != nil {
				return savedError(err)
			}
			if !ok {
				return handleErrorMsg(ErrPermissionDenied,
					fmt.Sprintf("search #%d is not shared with you", id), "")
			}
			s, err := db.SearchByID(id)
			if err != nil {
				return savedError(err)
			}
			results, err := newFrontend(db).Query(s.Expression, user)
			if err != nil {
				return searchError(err)
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
		})
	},
}

// withSearch wraps the shared open/auth/id-parsing preamble of the saved
// subcommands.
func withSearch(rawID string, fn func(db *store.Database, user model.User, id int64) error) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("invalid search ID %q", rawID), "")
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
	return fn(db, user, id)
}

func savedError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return handleError(ErrSearchNotFound, err, "Run 'iguana saved list --history' to see your search history.")
	case errors.Is(err, store.ErrPermissionDenied):
		return handleError(ErrPermissionDenied, err, "Only the creator or a manager of a shared project can do this.")
	default:
		return handleError(ErrDatabaseError, err, "")
	}
}

func savedOK(message string) error {
	if isJSONOutput() {
		outputSuccess(map[string]string{"message": message}, nil)
		return nil
	}
	fmt.Println(ui.Successf("%s", message))
	return nil
}

func init() {
	savedListCmd.Flags().BoolVar(&savedShowHistory, "history", false, "List recent history entries instead of saved searches")
	savedListCmd.Flags().StringVar(&savedSharedWith, "shared", "", "List searches shared with the given project")
	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedKeepCmd)
	savedCmd.AddCommand(savedRmCmd)
	savedCmd.AddCommand(savedShareCmd)
	savedCmd.AddCommand(savedDescribeCmd)
	savedCmd.AddCommand(savedRunCmd)
	rootCmd.AddCommand(savedCmd)
}
