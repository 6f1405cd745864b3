package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/ui"
)

var (
	userFirstName string
	userLastName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage tracker users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user to the tracker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		user, err := db.CreateUser(args[0], userFirstName, userLastName)
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}

		if isJSONOutput() {
			outputSuccess(user, nil)
			return nil
		}
		fmt.Println(ui.Successf("added user %s", user.Username))
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracker users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		users, err := db.Users()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(users, &Meta{Count: len(users)})
			return nil
		}
		tbl := ui.NewTable(2)
		for _, u := range users {
			tbl.AddRow(ui.Accent.Render(u.Username), ui.Muted.Render(u.DisplayName()))
		}
		fmt.Print(tbl.String())
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userFirstName, "first", "", "First name")
	userAddCmd.Flags().StringVar(&userLastName, "last", "", "Last name")
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
}
