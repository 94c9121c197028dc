// Package lessonscmder provides the shared-lessons cobra commands.
package lessonscmder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chorus/pkg/cliui"
	"github.com/papercomputeco/chorus/pkg/lessons"
	"github.com/papercomputeco/chorus/pkg/orchdir"
)

type lessonsCommander struct {
	workspace string
	category  string
}

const lessonsLongDesc string = `Show the shared lessons file of a workspace, rendered for the terminal.
Use "lessons search" to score lessons against keywords.`

const lessonsShortDesc string = "Show the shared lessons file"

func NewLessonsCmd() *cobra.Command {
	cmder := &lessonsCommander{}

	cmd := &cobra.Command{
		Use:   "lessons",
		Short: lessonsShortDesc,
		Long:  lessonsLongDesc,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.PersistentFlags().StringVarP(&cmder.workspace, "workspace", "w", ".", "Workspace root containing the .orchestration/ directory")
	cmd.Flags().StringVarP(&cmder.category, "category", "c", "", "Show only one category")

	cmd.AddCommand(newSearchCmd(cmder))

	return cmd
}

func (c *lessonsCommander) run() error {
	ws, err := filepath.Abs(c.workspace)
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}

	if c.category != "" {
		category, err := lessons.ParseCategory(c.category)
		if err != nil {
			return err
		}
		got, err := lessons.NewStore().ListByCategory(ws, category)
		if err != nil {
			return err
		}
		return printLessons(got)
	}

	// The whole document renders nicely as-is; keep its original markdown.
	data, err := os.ReadFile(orchdir.LessonsPath(ws))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Println(cliui.Dim("no lessons recorded yet"))
			return nil
		}
		return fmt.Errorf("reading lessons: %w", err)
	}

	rendered, err := cliui.RenderMarkdown(string(data))
	if err != nil {
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(rendered)
	return nil
}

func newSearchCmd(parent *lessonsCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Score lessons against keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ws, err := filepath.Abs(parent.workspace)
			if err != nil {
				return fmt.Errorf("resolving workspace: %w", err)
			}

			got, err := lessons.NewStore().Search(ws, args)
			if err != nil {
				return err
			}
			if len(got) == 0 {
				fmt.Println(cliui.Dim(fmt.Sprintf("no lessons match %s", strings.Join(args, ", "))))
				return nil
			}
			return printLessons(got)
		},
	}
}

func printLessons(got []lessons.Lesson) error {
	var b strings.Builder
	for _, l := range got {
		b.WriteString(fmt.Sprintf("## [%s] %s\n%s\n\n", l.Category, l.Timestamp.Format("2006-01-02 15:04"), l.Body))
	}

	rendered, err := cliui.RenderMarkdown(b.String())
	if err != nil {
		fmt.Println(b.String())
		return nil
	}
	fmt.Println(rendered)
	return nil
}
