package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/directory"
)

const rule = "================================================================================"

var (
	styleHeader = color.New(color.FgCyan, color.OpBold)
	styleAgent  = color.New(color.FgGreen, color.OpBold)
	styleError  = color.New(color.FgRed)
	styleMuted  = color.New(color.FgGray)
)

// printer writes REPL output, coloured when enabled.
type printer struct {
	out    io.Writer
	colour bool
}

func (p printer) paint(s color.Style, text string) string {
	if !p.colour {
		return text
	}
	return s.Render(text)
}

func (p printer) println(a ...any) { _, _ = fmt.Fprintln(p.out, a...) }

func (p printer) printf(format string, a ...any) { _, _ = fmt.Fprintf(p.out, format, a...) }

func (p printer) banner(title string) {
	p.println()
	p.println(rule)
	p.println(p.paint(styleHeader, title))
	p.println(rule)
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}

// agentTable renders agents, marking the selected ones when selected is
// non-nil.
func agentTable(out io.Writer, agents []directory.Agent, selected func(core.AgentID) bool) {
	header := []string{"ID", "Name", "Role"}
	if selected != nil {
		header = append(header, "Selected")
	}
	table := newTable(out, header)
	for _, a := range agents {
		row := []string{a.ID.String(), a.DisplayName(), a.Role}
		if selected != nil {
			mark := ""
			if selected(a.ID) {
				mark = "yes"
			}
			row = append(row, mark)
		}
		table.Append(row)
	}
	table.Render()
}

func channelTable(out io.Writer, channels []directory.Channel) {
	table := newTable(out, []string{"ID", "Name", "Agents", "Description"})
	for _, c := range channels {
		ids := make([]string, len(c.AgentIDs))
		for i, id := range c.AgentIDs {
			ids[i] = id.String()
		}
		table.Append([]string{c.ID, c.Name, strings.Join(ids, ","), c.Description})
	}
	table.Render()
}
