package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/redmonkez12/accounts-api/internal/user"
)

func PrintTitle(title string) {
	fmt.Println(titleStyle.Render(title))
}

func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render("✓ " + msg))
}

func PrintError(msg string) {
	fmt.Println(errorStyle.Render("✗ " + msg))
}

// RenderUsers draws users as a table, in the order given
func RenderUsers(users []*user.User) string {
	if len(users) == 0 {
		return subtleStyle.Render("no users")
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.Email,
			u.Name,
			yesNo(u.IsStaff),
			yesNo(u.IsSuperuser),
			yesNo(u.IsActive),
			u.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(subtleStyle).
		Headers("EMAIL", "NAME", "STAFF", "SUPERUSER", "ACTIVE", "JOINED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.Render()
}

// PrintUsers writes the user table and a count to w
func PrintUsers(w io.Writer, users []*user.User) {
	fmt.Fprintln(w, RenderUsers(users))
	fmt.Fprintln(w, subtleStyle.Render(fmt.Sprintf("%d user(s)", len(users))))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
