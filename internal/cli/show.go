package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/model"
	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <ticket>",
	Short: "Show an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, number, err := parseTicket(args[0])
		if err != nil {
			return handleError(ErrInvalidInput, err, "Ticket IDs look like PRJ-4.")
		}

		db, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		issue, err := db.IssueByNumber(strings.ToUpper(code), number)
		if errors.Is(err, store.ErrNotFound) {
			return handleErrorMsg(ErrIssueNotFound, fmt.Sprintf("no issue %s", args[0]), "")
		}
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		detail, err := loadIssueDetail(db, issue)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(detail, nil)
			return nil
		}
		renderIssue(detail)
		return nil
	},
}

// issueDetail bundles an issue with its relations for display.
type issueDetail struct {
	model.Issue
	Ticket       string          `json:"ticket"`
	ProjectName  string          `json:"project_name"`
	Column       string          `json:"column"`
	Assignees    []string        `json:"assignees,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Comments     []model.Comment `json:"comments,omitempty"`
	Timelogs     []model.Timelog `json:"timelogs,omitempty"`
	Commits      []model.Commit  `json:"commits,omitempty"`
}

func loadIssueDetail(db *store.Database, issue model.Issue) (issueDetail, error) {
	detail := issueDetail{Issue: issue}

	project, err := db.ProjectByID(issue.ProjectID)
	if err != nil {
		return detail, err
	}
	detail.Ticket = model.TicketID(project.NameShort, issue.Number)
	detail.ProjectName = project.Name

	columns, err := db.Columns(project.ID)
	if err != nil {
		return detail, err
	}
	for _, col := range columns {
		if col.ID == issue.KanbanColID {
			detail.Column = col.Name
		}
	}

	q := db.DB()
	if detail.Assignees, err = store.Assignees(q, issue.ID); err != nil {
		return detail, err
	}
	if detail.Tags, err = store.IssueTags(q, issue.ID); err != nil {
		return detail, err
	}
	deps, err := store.Dependencies(q, issue.ID)
	if err != nil {
		return detail, err
	}
	for _, n := range deps {
		detail.Dependencies = append(detail.Dependencies, model.TicketID(project.NameShort, n))
	}
	if detail.Comments, err = store.Comments(q, issue.ID); err != nil {
		return detail, err
	}
	if detail.Timelogs, err = store.Timelogs(q, issue.ID); err != nil {
		return detail, err
	}
	if detail.Commits, err = store.Commits(q, issue.ID); err != nil {
		return detail, err
	}
	return detail, nil
}

func renderIssue(d issueDetail) {
	display := ui.NewDisplayContext()

	fmt.Printf("%s %s\n", ui.AccentBold.Render(d.Ticket), ui.Bold.Render(d.Title))
	fmt.Println(ui.Muted.Render(fmt.Sprintf("%s / %s / %s", d.ProjectName, d.Type, d.Priority)))

	facts := []string{}
	if d.Column != "" {
		facts = append(facts, "column: "+d.Column)
	}
	if d.Storypoints > 0 {
		facts = append(facts, fmt.Sprintf("points: %d", d.Storypoints))
	}
	if d.DueDate != nil {
		facts = append(facts, "due: "+d.DueDate.Format("2006-01-02"))
	}
	if d.LoggedTotal > 0 {
		facts = append(facts, "logged: "+formatDuration(d.LoggedTotal))
	}
	if len(facts) > 0 {
		fmt.Println(ui.Muted.Render(strings.Join(facts, "  ")))
	}
	if len(d.Assignees) > 0 {
		fmt.Printf("assigned: %s\n", strings.Join(d.Assignees, ", "))
	}
	if len(d.Tags) > 0 {
		badges := make([]string, len(d.Tags))
		for i, t := range d.Tags {
			badges[i] = ui.TagBadge(t, "")
		}
		fmt.Println(strings.Join(badges, " "))
	}
	if len(d.Dependencies) > 0 {
		fmt.Printf("depends on: %s\n", strings.Join(d.Dependencies, ", "))
	}

	if d.Description != "" {
		rendered, err := ui.RenderMarkdown(d.Description, display.AvailableWidth(ui.MarkdownRenderMargin))
		if err != nil {
			rendered = d.Description + "\n"
		}
		fmt.Print("\n" + rendered)
	}

	if len(d.Timelogs) > 0 {
		fmt.Println()
		fmt.Println(ui.Header("Timelogs"))
		list := ui.NewList()
		for _, t := range d.Timelogs {
			list.Add(fmt.Sprintf("%s %s", formatDuration(t.Time),
				ui.Muted.Render(t.CreatedAt.Format("2006-01-02"))))
		}
		fmt.Print(list.String())
	}

	if len(d.Comments) > 0 {
		fmt.Println()
		for _, c := range d.Comments {
			fmt.Printf("%s %s\n", ui.Accent.Render(fmt.Sprintf("#%d", c.Seqnum)),
				ui.Muted.Render(c.When.Format("2006-01-02 15:04")))
			fmt.Println(c.Text)
		}
	}

	if len(d.Commits) > 0 {
		fmt.Println()
		for _, c := range d.Commits {
			name := c.Name
			if len(name) > 8 {
				name = name[:8]
			}
			fmt.Printf("%s %s\n", ui.Accent.Render(name), c.Message)
		}
	}
}

// formatDuration renders a duration the way olea timelogs are written, e.g. "1d2h10m".
func formatDuration(d time.Duration) string {
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh", hours)
	}
	if minutes > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%dm", minutes)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(showCmd)
}
