package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/robalobadob/motmystere/internal/content"
	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/ids"
	"github.com/robalobadob/motmystere/internal/mystery"
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleSubtle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleInvalid = lipgloss.NewStyle().Background(lipgloss.Color("9")).Foreground(lipgloss.Color("0"))
)

func init() {
	var poemFile string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Validate a poem file and show its mystery word and palette",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(poemFile)
			if err != nil {
				return err
			}
			var doc content.Document
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", poemFile, err)
			}
			p, err := doc.Poem()
			if err != nil {
				return err
			}
			model := grammar.NewModel(cfg.Game.NeutralColor, cfg.Game.UnknownLetter)
			out, verr := renderPreview(p, model)
			fmt.Fprint(cmd.OutOrStdout(), out)
			return verr
		},
	}
	cmd.Flags().StringVar(&poemFile, "poem", "", "Poem JSON file (required)")
	_ = cmd.MarkFlagRequired("poem")
	RootCmd.AddCommand(cmd)
}

func swatch(c grammar.ColorToken) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.DisplayHex("#888888")))
}

// renderPreview draws the mystery word, its sources and the palette. The
// returned error is the poem's validation failure, if any.
func renderPreview(p *grammar.Poem, m grammar.Model) (string, error) {
	units := mystery.BuildUnits(p, m)
	entries := mystery.Preview(p.TargetWord, units, m.Neutral)

	var b strings.Builder
	b.WriteString(styleHeader.Render(p.Label()) + "\n\n")

	for _, e := range entries {
		if !e.IsValid {
			b.WriteString(styleInvalid.Render(e.Letter))
			continue
		}
		b.WriteString(swatch(e.Color).Render(e.Letter))
	}
	b.WriteString("\n")
	for _, e := range entries {
		src := e.SourceLabel
		if !e.IsValid {
			src = "(no word)"
		} else if e.IsGroup {
			src += " [group]"
		}
		fmt.Fprintf(&b, "  %s  %s %s\n", swatch(e.Color).Render(e.Letter), src, styleSubtle.Render(string(e.Color)))
	}

	b.WriteString("\n")
	for _, e := range mystery.BuildPalette(p, m, ids.NewSequence("cli")) {
		b.WriteString(swatch(e.Color).Render(e.Letter) + " ")
	}
	b.WriteString("\n\n")

	err := mystery.ValidatePoem(p, m)
	if err != nil {
		b.WriteString(styleError.Render("invalid: "+err.Error()) + "\n")
	} else {
		fmt.Fprintf(&b, "%s %d letters, %s\n", styleOK.Render("valid:"), len(entries), p.TargetGender)
	}
	return b.String(), err
}
