package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Ayala-Braverman/practicod3-1/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Strikethrough(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func ok(cmd *cobra.Command, msg string) {
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ "+msg))
}

func statusLabel(isComplete bool) string {
	if isComplete {
		return "done"
	}
	return "pending"
}

func renderTask(t model.Task) string {
	box, name := "☐", pendingStyle.Render(t.Name)
	if t.IsComplete {
		box, name = "☑", doneStyle.Render(t.Name)
	}
	return fmt.Sprintf("%s %s %s", box, mutedStyle.Render(fmt.Sprintf("#%-4d", t.ID)), name)
}

func renderTasks(user *model.UserProfile, tasks []model.Task) string {
	title := "Tasks"
	if user != nil {
		title = user.UserName + "'s tasks"
	}

	done := 0
	lines := []string{titleStyle.Render(title), ""}
	for _, t := range tasks {
		if t.IsComplete {
			done++
		}
		lines = append(lines, renderTask(t))
	}
	if len(tasks) == 0 {
		lines = append(lines, mutedStyle.Render("nothing to do"))
	}
	lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("%d/%d done", done, len(tasks))))

	return panelStyle.Render(strings.Join(lines, "\n"))
}
