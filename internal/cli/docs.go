package cli

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/docs"
	"github.com/iguana-project/iguana/internal/ui"
)

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Show the bundled reference documentation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := docsTopics()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if len(args) == 0 {
			if isJSONOutput() {
				outputSuccess(topics, &Meta{Count: len(topics)})
				return nil
			}
			fmt.Println(ui.Header("Topics"))
			list := ui.NewList()
			for _, topic := range topics {
				list.Add(topic)
			}
			fmt.Print(list.String())
			fmt.Println(ui.Hint("run 'iguana docs <topic>' to read one"))
			return nil
		}

		topic := strings.ToLower(args[0])
		content, err := fs.ReadFile(docs.FS, "reference/"+topic+".md")
		if err != nil {
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("no documentation topic %q", topic),
				"Run 'iguana docs' to list topics.")
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{"topic": topic, "content": string(content)}, nil)
			return nil
		}
		display := ui.NewDisplayContext()
		rendered, err := ui.RenderMarkdown(string(content), display.AvailableWidth(ui.MarkdownRenderMargin))
		if err != nil {
			fmt.Println(string(content))
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func docsTopics() ([]string, error) {
	entries, err := fs.ReadDir(docs.FS, "reference")
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".md"); ok {
			topics = append(topics, name)
		}
	}
	sort.Strings(topics)
	return topics, nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
