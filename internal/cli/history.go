package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/pkg/store"
)

// historyCommand creates the history command for browsing stored papers and
// their generated content.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit int
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previously analyzed papers and generated content",
		Long:  "History lists papers persisted to the database. Interactive mode lets you pick a paper and see every artifact generated from it; --plain prints a flat listing instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			papers, err := st.ListPapers(ctx, limit)
			if err != nil {
				return err
			}
			if len(papers) == 0 {
				printInfo("No papers analyzed yet")
				return nil
			}

			if plain {
				for _, p := range papers {
					fmt.Println(StyleValue.Render(p.Analysis.Title) + " " +
						StyleDim.Render(p.CreatedAt.Format("Jan 2, 2006")))
				}
				return nil
			}

			model := newPaperListModel(papers)
			out, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			final, ok := out.(paperListModel)
			if !ok || final.selected == nil {
				return nil
			}
			return printPaperContent(ctx, st, *final.selected)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of papers to list")
	cmd.Flags().BoolVar(&plain, "plain", false, "print a non-interactive listing")
	return cmd
}

// printPaperContent prints every content record generated from a paper.
func printPaperContent(ctx context.Context, st store.Store, p store.PaperRecord) error {
	content, err := st.ListContent(ctx, p.ID)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(p.Analysis.Title))
	printKeyValue("Authors", strings.Join(p.Analysis.Authors, ", "))
	printKeyValue("Analyzed", p.CreatedAt.Format("Jan 2, 2006 15:04"))

	if len(content) == 0 {
		printInfo("No content generated yet")
		return nil
	}
	for _, rec := range content {
		line := fmt.Sprintf("%-7s %s", rec.Kind, rec.Title)
		fmt.Println("  " + StyleValue.Render(line) + " " + StyleDim.Render(formatRelativeTime(rec.CreatedAt)))
		if rec.ArtifactPath != "" {
			printFile(rec.ArtifactPath)
		}
	}
	return nil
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// paperListModel is the bubbletea model for interactive paper selection.
type paperListModel struct {
	papers   []store.PaperRecord
	cursor   int
	selected *store.PaperRecord
	height   int
	offset   int
}

func newPaperListModel(papers []store.PaperRecord) paperListModel {
	return paperListModel{papers: papers, height: 15}
}

func (m paperListModel) Init() tea.Cmd {
	return nil
}

func (m paperListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.papers)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			paper := m.papers[m.cursor]
			m.selected = &paper
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m paperListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Paper"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.papers) {
		end = len(m.papers)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		p := m.papers[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		authors := "—"
		if len(p.Analysis.Authors) > 0 {
			authors = p.Analysis.Authors[0]
			if len(p.Analysis.Authors) > 1 {
				authors += " et al."
			}
		}

		level := p.Analysis.ComplexityLevel
		if level == "" {
			level = "—"
		}

		rows = append(rows, []string{cursor, p.Analysis.Title, authors, level, formatRelativeTime(p.CreatedAt)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Title", "Authors", "Level", "Analyzed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.papers))))

	return b.String()
}

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
