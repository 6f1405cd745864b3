package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/config"
	"github.com/iguana-project/iguana/internal/slugs"
	"github.com/iguana-project/iguana/internal/ui"
)

var (
	projectCode        string
	projectDescription string
	memberRole         string
	sprintStart        string
	sprintEnd          string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Long: `Create a project. The short code used in ticket references (PRJ-1) is
derived from the project name unless --code is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			return handleErrorMsg(ErrMissingArgument, "project name must not be empty", "")
		}

		code := strings.ToUpper(projectCode)
		if code == "" {
			code = slugs.ShortCode(name)
		}
		if !slugs.ValidCode(code) {
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("invalid project code %q", code),
				"Codes are 1-4 ASCII letters, e.g. PRJ.")
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

		project, err := db.CreateProject(name, code, projectDescription, user.ID)
		if err != nil {
			return handleError(ErrDuplicateName, err, "Project names and codes must be unique.")
		}

		if isJSONOutput() {
			outputSuccess(project, nil)
			return nil
		}
		fmt.Println(ui.Successf("created project %s (%s)", project.Name, project.NameShort))
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		projects, err := db.Projects()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(projects, &Meta{Count: len(projects)})
			return nil
		}
		st := getState()
		tbl := ui.NewTable(3)
		for _, p := range projects {
			marker := " "
			if st != nil && st.ActiveProject == p.NameShort {
				marker = "*"
			}
			tbl.AddRow(marker, ui.Accent.Render(p.NameShort), p.Name)
		}
		fmt.Print(tbl.String())
		return nil
	},
}

var projectMemberCmd = &cobra.Command{
	Use:   "member <code> <username>",
	Short: "Add a member to a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		project, err := resolveProject(db, args[0])
		if err != nil {
			return handleError(ErrProjectNotFound, err, "")
		}
		member, err := db.UserByUsername(args[1])
		if err != nil {
			return handleErrorMsg(ErrUserNotFound,
				fmt.Sprintf("no user named %q", args[1]),
				"Add the user first with 'iguana user add'.")
		}

		switch memberRole {
		case "dev", "developer":
			err = db.AddDeveloper(project.ID, member.ID)
		case "manager":
			err = db.AddManager(project.ID, member.ID)
		default:
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("unknown role %q", memberRole),
				"Valid roles are 'dev' and 'manager'.")
		}
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{
				"project": project.NameShort,
				"user":    member.Username,
				"role":    memberRole,
			}, nil)
			return nil
		}
		fmt.Println(ui.Successf("added %s to %s as %s", member.Username, project.NameShort, memberRole))
		return nil
	},
}

var projectUseCmd = &cobra.Command{
	Use:   "use <code>",
	Short: "Set the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		project, err := db.ProjectByCode(strings.ToUpper(args[0]))
		if err != nil {
			return handleErrorMsg(ErrProjectNotFound,
				fmt.Sprintf("no project with code %q", strings.ToUpper(args[0])), "")
		}

		st := getState()
		if st == nil {
			st = &config.State{Version: config.StateVersion}
		}
		st.ActiveProject = project.NameShort
		if err := config.SaveState(getStatePath(), st); err != nil {
			return handleError(ErrInternal, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{"active_project": project.NameShort}, nil)
			return nil
		}
		fmt.Println(ui.Successf("active project is now %s", project.NameShort))
		return nil
	},
}

var projectSprintCmd = &cobra.Command{
	Use:   "sprint <code>",
	Short: "Start a sprint for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		project, err := resolveProject(db, args[0])
		if err != nil {
			return handleError(ErrProjectNotFound, err, "")
		}

		start, err := parseSprintDate(sprintStart)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Dates are written as yyyy-mm-dd.")
		}
		end, err := parseSprintDate(sprintEnd)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Dates are written as yyyy-mm-dd.")
		}

		sprint, err := db.CreateSprint(project.ID, start, end)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(sprint, nil)
			return nil
		}
		fmt.Println(ui.Successf("started sprint %d for %s", sprint.Seqnum, project.NameShort))
		return nil
	},
}

func parseSprintDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	return &t, nil
}

var projectTagCmd = &cobra.Command{
	Use:   "tag <code> <text>",
	Short: "Create a tag in a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		project, err := resolveProject(db, args[0])
		if err != nil {
			return handleError(ErrProjectNotFound, err, "")
		}

		tag, err := db.CreateTag(project.ID, args[1], tagColor)
		if err != nil {
			return handleError(ErrDuplicateName, err, "Tag texts must be unique within a project.")
		}

		if isJSONOutput() {
			outputSuccess(tag, nil)
			return nil
		}
		fmt.Println(ui.Successf("created tag %s in %s", ui.TagBadge(tag.Text, tag.Color), project.NameShort))
		return nil
	},
}

var tagColor string

func init() {
	projectAddCmd.Flags().StringVar(&projectCode, "code", "", "Short code for ticket references (1-4 letters)")
	projectAddCmd.Flags().StringVar(&projectDescription, "description", "", "Project description")
	projectMemberCmd.Flags().StringVar(&memberRole, "role", "dev", "Member role (dev or manager)")
	projectSprintCmd.Flags().StringVar(&sprintStart, "start", "", "Sprint start date (yyyy-mm-dd)")
	projectSprintCmd.Flags().StringVar(&sprintEnd, "end", "", "Sprint end date (yyyy-mm-dd)")
	projectTagCmd.Flags().StringVar(&tagColor, "color", "", "Tag color (#RRGGBB)")
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectMemberCmd)
	projectCmd.AddCommand(projectUseCmd)
	projectCmd.AddCommand(projectSprintCmd)
	projectCmd.AddCommand(projectTagCmd)
	rootCmd.AddCommand(projectCmd)
}
