package cli

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/olea"
	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/ui"
)

// seedFile is the YAML layout accepted by 'iguana import'.
type seedFile struct {
	Users    []seedUser    `yaml:"users"`
	Projects []seedProject `yaml:"projects"`
	Issues   []seedIssue   `yaml:"issues"`
}

type seedUser struct {
	Username string `yaml:"username"`
	First    string `yaml:"first"`
	Last     string `yaml:"last"`
}

type seedProject struct {
	Name        string    `yaml:"name"`
	Code        string    `yaml:"code"`
	Description string    `yaml:"description"`
	Creator     string    `yaml:"creator"`
	Managers    []string  `yaml:"managers"`
	Developers  []string  `yaml:"developers"`
	Tags        []seedTag `yaml:"tags"`
	Sprints     int       `yaml:"sprints"`
}

type seedTag struct {
	Text  string `yaml:"text"`
	Color string `yaml:"color"`
}

type seedIssue struct {
	Project     string        `yaml:"project"`
	Title       string        `yaml:"title"`
	Type        string        `yaml:"type"`
	Priority    *int          `yaml:"priority"`
	Points      int           `yaml:"points"`
	Description string        `yaml:"description"`
	Due         string        `yaml:"due"`
	Column      string        `yaml:"column"`
	Creator     string        `yaml:"creator"`
	Assignees   []string      `yaml:"assignees"`
	Tags        []string      `yaml:"tags"`
	Depends     []int         `yaml:"depends"`
	Comments    []seedComment `yaml:"comments"`
	Timelogs    []seedTimelog `yaml:"timelogs"`
	Commits     []seedCommit  `yaml:"commits"`
}

type seedComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

type seedTimelog struct {
	User     string `yaml:"user"`
	Duration string `yaml:"duration"`
}

type seedCommit struct {
	Name    string `yaml:"name"`
	Author  string `yaml:"author"`
	Message string `yaml:"message"`
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import users, projects and issues from a YAML file",
	Long: `Import seed data from a YAML file.

The file may define users, projects (with members, tags and sprints) and
issues (with assignees, tags, dependencies, comments, timelogs and linked
commits). Durations use the olea form, e.g. 1d2h10m.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		var seed seedFile
		if err := yaml.Unmarshal(raw, &seed); err != nil {
			return handleError(ErrImportInvalid, fmt.Errorf("invalid seed file: %w", err), "")
		}

		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		imp := &importer{db: db}
		if isJSONOutput() {
			if err := imp.run(seed); err != nil {
				return handleError(ErrImportInvalid, err, "")
			}
			outputSuccess(map[string]int{
				"users":    len(seed.Users),
				"projects": len(seed.Projects),
				"issues":   len(seed.Issues),
			}, nil)
			return nil
		}

		spin := ui.NewSpinner("importing " + args[0])
		spin.Start()
		err = imp.run(seed)
		if err != nil {
			spin.Stop()
			return handleError(ErrImportInvalid, err, "")
		}
		spin.StopWithCheck(fmt.Sprintf("imported %d users, %d projects, %d issues",
			len(seed.Users), len(seed.Projects), len(seed.Issues)))
		return nil
	},
}

// importer resolves seed names against rows created earlier in the same run.
type importer struct {
	db       *store.Database
	users    map[string]model.User
	projects map[string]model.Project
	tags     map[string]map[string]model.Tag
}

func (im *importer) run(seed seedFile) error {
	im.users = make(map[string]model.User)
	im.projects = make(map[string]model.Project)
	im.tags = make(map[string]map[string]model.Tag)

	for _, u := range seed.Users {
		user, err := im.db.CreateUser(u.Username, u.First, u.Last)
		if err != nil {
			return fmt.Errorf("user %q: %w", u.Username, err)
		}
		im.users[u.Username] = user
	}
	for _, p := range seed.Projects {
		if err := im.importProject(p); err != nil {
			return fmt.Errorf("project %q: %w", p.Code, err)
		}
	}
	for _, is := range seed.Issues {
		if err := im.importIssue(is); err != nil {
			return fmt.Errorf("issue %q: %w", is.Title, err)
		}
	}
	return nil
}

func (im *importer) user(username string) (model.User, error) {
	if u, ok := im.users[username]; ok {
		return u, nil
	}
	u, err := im.db.UserByUsername(username)
	if err != nil {
		return model.User{}, fmt.Errorf("unknown user %q", username)
	}
	im.users[username] = u
	return u, nil
}

func (im *importer) project(code string) (model.Project, error) {
	if p, ok := im.projects[code]; ok {
		return p, nil
	}
	p, err := im.db.ProjectByCode(code)
	if err != nil {
		return model.Project{}, fmt.Errorf("unknown project %q", code)
	}
	im.projects[code] = p
	return p, nil
}

func (im *importer) importProject(p seedProject) error {
	creator, err := im.user(p.Creator)
	if err != nil {
		return err
	}
	project, err := im.db.CreateProject(p.Name, strings.ToUpper(p.Code), p.Description, creator.ID)
	if err != nil {
		return err
	}
	im.projects[project.NameShort] = project

	for _, name := range p.Managers {
		u, err := im.user(name)
		if err != nil {
			return err
		}
		if err := im.db.AddManager(project.ID, u.ID); err != nil {
			return err
		}
	}
	for _, name := range p.Developers {
		u, err := im.user(name)
		if err != nil {
			return err
		}
		if err := im.db.AddDeveloper(project.ID, u.ID); err != nil {
			return err
		}
	}
	im.tags[project.NameShort] = make(map[string]model.Tag)
	for _, t := range p.Tags {
		tag, err := im.db.CreateTag(project.ID, t.Text, t.Color)
		if err != nil {
			return err
		}
		im.tags[project.NameShort][t.Text] = tag
	}
	for i := 0; i < p.Sprints; i++ {
		if _, err := im.db.CreateSprint(project.ID, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) importIssue(is seedIssue) error {
	project, err := im.project(strings.ToUpper(is.Project))
	if err != nil {
		return err
	}

	issue := model.Issue{
		ProjectID:   project.ID,
		Title:       is.Title,
		Priority:    model.DefaultPriority,
		Storypoints: is.Points,
		Description: is.Description,
	}
	if is.Type != "" {
		issue.Type, err = model.ParseIssueType(is.Type)
		if err != nil {
			return err
		}
	}
	if is.Priority != nil {
		issue.Priority = model.Priority(*is.Priority)
		if !issue.Priority.Valid() {
			return fmt.Errorf("invalid priority %d", *is.Priority)
		}
	}
	if is.Due != "" {
		due, err := time.Parse("2006-01-02", is.Due)
		if err != nil {
			return fmt.Errorf("invalid due date %q", is.Due)
		}
		issue.DueDate = &due
	}
	if is.Creator != "" {
		creator, err := im.user(is.Creator)
		if err != nil {
			return err
		}
		issue.CreatorID = &creator.ID
	}

	column, err := im.resolveColumn(project, is.Column)
	if err != nil {
		return err
	}
	issue.KanbanColID = column.ID

	return im.db.WithTx(func(tx *sql.Tx) error {
		created, err := store.CreateIssue(tx, issue)
		if err != nil {
			return err
		}
		for _, name := range is.Assignees {
			u, err := im.user(name)
			if err != nil {
				return err
			}
			if err := store.AddAssignee(tx, created.ID, u.ID); err != nil {
				return err
			}
		}
		for _, text := range is.Tags {
			tag, ok := im.tags[project.NameShort][text]
			if !ok {
				return fmt.Errorf("unknown tag %q in project %s", text, project.NameShort)
			}
			if err := store.AddIssueTag(tx, created.ID, tag.ID); err != nil {
				return err
			}
		}
		for _, n := range is.Depends {
			dep, err := store.IssueByNumber(tx, project.NameShort, n)
			if err != nil {
				return fmt.Errorf("dependency %s-%d: %w", project.NameShort, n, err)
			}
			if err := store.AddDependency(tx, created.ID, dep.ID); err != nil {
				return err
			}
		}
		for _, c := range is.Comments {
			author, err := im.user(c.Author)
			if err != nil {
				return err
			}
			if _, err := store.AddComment(tx, created.ID, author.ID, c.Text); err != nil {
				return err
			}
		}
		for _, t := range is.Timelogs {
			u, err := im.user(t.User)
			if err != nil {
				return err
			}
			dur, err := olea.ParseDuration(t.Duration)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", t.Duration, err)
			}
			if _, err := store.AddTimelog(tx, created.ID, u.ID, dur); err != nil {
				return err
			}
		}
		for _, c := range is.Commits {
			commit := model.Commit{
				IssueID: created.ID,
				Name:    c.Name,
				Author:  c.Author,
				Message: c.Message,
			}
			if _, err := store.AddCommit(tx, commit); err != nil {
				return err
			}
		}
		return nil
	})
}

func (im *importer) resolveColumn(project model.Project, name string) (model.KanbanColumn, error) {
	if name == "" {
		return store.FirstColumn(im.db.DB(), project.ID)
	}
	columns, err := im.db.Columns(project.ID)
	if err != nil {
		return model.KanbanColumn{}, err
	}
	for _, col := range columns {
		if strings.EqualFold(col.Name, name) {
			return col, nil
		}
	}
	return model.KanbanColumn{}, fmt.Errorf("unknown column %q in project %s", name, project.NameShort)
}

func init() {
	rootCmd.AddCommand(importCmd)
}
