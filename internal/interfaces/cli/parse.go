package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/identifier"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// IdentifierReport lists the identifiers found in a text.
type IdentifierReport struct {
	Identifiers identifier.Identifiers `json:"identifiers"`
}

func (r IdentifierReport) String() string {
	names := r.Identifiers.Names()
	if len(names) == 0 {
		return "no identifiers found"
	}
	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, fmt.Sprintf("%-10s %s", n, r.Identifiers[identifier.Kind(n)]))
	}
	return strings.Join(lines, "\n")
}

func (r IdentifierReport) TableHeaders() []string { return []string{"KIND", "VALUE"} }

func (r IdentifierReport) TableRows() [][]string {
	names := r.Identifiers.Names()
	rows := make([][]string, 0, len(names))
	for _, n := range names {
		rows = append(rows, []string{n, r.Identifiers[identifier.Kind(n)]})
	}
	return rows
}

// NewParseCmd extracts identifiers from OCR text given as arguments or on
// stdin.
func NewParseCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "parse [TEXT...]",
		Short: "Extract product identifiers from OCR text",
		Example: `  cfdetect parse "Model No. AX-200 Batch: 23B77"
  tesseract label.png - | cfdetect parse --kind imei`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}

			if kind == "" {
				return PrintResult(cmd, IdentifierReport{Identifiers: identifier.Parse(text)})
			}
			k, ok := identifier.ParseKind(kind)
			if !ok {
				return errors.InvalidParam(fmt.Sprintf("unknown identifier kind %q", kind))
			}
			ids := identifier.Identifiers{}
			if v, found := identifier.ParseKindOnly(k, text); found {
				ids[k] = v
			}
			return PrintResult(cmd, IdentifierReport{Identifiers: ids})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only extract this kind (isbn, imei, brand, publisher, model, batch)")
	return cmd
}

//Personal.AI order the ending
