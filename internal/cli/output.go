package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// printer writes human output, colored when enabled
type printer struct {
	out       io.Writer
	useColors bool
}

func newPrinter(out io.Writer, useColors bool) *printer {
	return &printer{out: out, useColors: useColors}
}

func (p *printer) paint(attr color.Attribute, s string) string {
	if !p.useColors {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func (p *printer) Header(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(color.Bold, fmt.Sprintf(format, args...)))
}

func (p *printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint(color.FgGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func (p *printer) Up(s string) string   { return p.paint(color.FgGreen, s) }
func (p *printer) Down(s string) string { return p.paint(color.FgRed, s) }

// table renders rows without borders
func (p *printer) table(header []string, rows [][]string) error {
	t := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	t.Header(header)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}
