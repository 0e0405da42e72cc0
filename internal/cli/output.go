package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	deperrors "github.com/matzehuels/deprank/pkg/errors"
	"github.com/matzehuels/deprank/pkg/rank"
)

// Output formats of the rank command.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

// unknown marks absent values in table output.
const unknown = "—"

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatCSV:
		return nil
	}
	return deperrors.New(deperrors.ErrCodeInvalidFormat, "unknown format %q (want table, json or csv)", format)
}

// writeResult renders res to w in the given format.
func writeResult(w io.Writer, res *rank.Result, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case formatCSV:
		return writeCSV(w, res.Rows)
	case formatTable:
		_, err := fmt.Fprintln(w, renderTable(res.Rows))
		return err
	}
	return validateFormat(format)
}

func writeCSV(w io.Writer, rows rank.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "dependents", "repo_url", "dependents_url"}); err != nil {
		return err
	}
	for _, r := range rows {
		dependents := ""
		if r.Dependents != nil {
			dependents = strconv.Itoa(*r.Dependents)
		}
		if err := cw.Write([]string{r.Name, dependents, deref(r.RepoURL), deref(r.DependentsURL)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderTable(rows rank.Table) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	data := make([][]string, len(rows))
	for i, r := range rows {
		count := unknown
		if r.Dependents != nil {
			count = formatCount(*r.Dependents)
		}
		repo, link := unknown, unknown
		if r.RepoURL != nil {
			repo = *r.RepoURL
		}
		if r.DependentsURL != nil {
			link = *r.DependentsURL
		}
		data[i] = []string{strconv.Itoa(i + 1), r.Name, count, repo, link}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Name", "Dependents", "Repository", "Dependents page").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			switch col {
			case 0:
				return cell.Foreground(colorDim).Align(lipgloss.Right)
			case 2:
				if rows[row].Dependents == nil {
					return cell.Foreground(colorDim).Align(lipgloss.Right)
				}
				return cell.Foreground(colorCyan).Align(lipgloss.Right)
			case 3, 4:
				if rows[row].RepoURL == nil {
					return cell.Foreground(colorDim)
				}
				return cell.Foreground(colorBlue)
			}
			return cell
		})

	return t.Render()
}

// formatCount groups digits by thousands: 1234567 → "1,234,567".
func formatCount(n int) string {
	s := strconv.Itoa(n)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
