package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/app"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/evaluation"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/profile"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// EvaluateOptions holds the evaluate command flags.
type EvaluateOptions struct {
	SignaturePath string
	ProductPath   string
	ReferencePath string
	Tenant        string
}

// NewEvaluateCmd evaluates a stored vision signature against an optional
// product profile and reference fingerprint read from JSON files. It needs
// no database or vision provider.
func NewEvaluateCmd() *cobra.Command {
	opts := &EvaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a vision signature offline",
		Example: `  cfdetect evaluate --signature sig.json
  cfdetect evaluate --signature sig.json --product product.json --reference ref.json -o table
  cat sig.json | cfdetect evaluate --signature -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.SignaturePath, "signature", "", `vision signature JSON file, "-" for stdin`)
	cmd.Flags().StringVar(&opts.ProductPath, "product", "", "product profile JSON file")
	cmd.Flags().StringVar(&opts.ReferencePath, "reference", "", "reference fingerprint JSON file")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "offline", "tenant the evaluation runs as")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}

func runEvaluate(cmd *cobra.Command, opts *EvaluateOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	req := evaluation.Request{TenantID: common.TenantID(opts.Tenant)}
	if err := readJSON(cmd, opts.SignaturePath, &req.Signature); err != nil {
		return err
	}
	if opts.ProductPath != "" {
		req.Product = &scan.ProductProfile{}
		if err := readJSON(cmd, opts.ProductPath, req.Product); err != nil {
			return err
		}
	}

	refs := fileReferences{}
	if opts.ReferencePath != "" {
		fp := &scan.ReferenceFingerprint{}
		if err := readJSON(cmd, opts.ReferencePath, fp); err != nil {
			return err
		}
		if fp.ID == "" {
			fp.ID = "reference"
		}
		refs[fp.ID] = fp
		id := fp.ID
		req.ReferenceID = &id
	}

	p, err := profile.New(cliCtx.Config.Detection)
	if err != nil {
		return fmt.Errorf("detection profile: %w", err)
	}
	svc, err := app.NewEvaluator(cliCtx.Config.Evaluation, profile.NewStore(p), evaluation.Dependencies{
		References: refs,
		Logger:     cliCtx.Logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd, cliCtx)
	defer cancel()
	res, err := svc.Evaluate(ctx, req)
	if err != nil {
		return err
	}
	return PrintResult(cmd, EvaluationReport{EvaluationResult: res})
}

// readJSON decodes path, or stdin for "-", into v.
func readJSON(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, fmt.Sprintf("decode %s", path))
	}
	return nil
}

// fileReferences serves fingerprints loaded from the command line.
type fileReferences map[common.ID]*scan.ReferenceFingerprint

func (f fileReferences) GetFingerprint(_ context.Context, _ common.TenantID, id common.ID) (*scan.ReferenceFingerprint, error) {
	fp, ok := f[id]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("reference %s not found", id))
	}
	return fp, nil
}

func (f fileReferences) ListActiveFingerprints(_ context.Context, _ common.TenantID, productID common.ID) ([]*scan.ReferenceFingerprint, error) {
	var out []*scan.ReferenceFingerprint
	for _, fp := range f {
		if fp.Active && fp.ProductID == productID {
			out = append(out, fp)
		}
	}
	return out, nil
}

// EvaluationReport renders an evaluation result for the terminal.
type EvaluationReport struct {
	*scan.EvaluationResult
}

func (r EvaluationReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "status:     %s\n", r.Status)
	fmt.Fprintf(&sb, "risk score: %d\n", r.RiskScore)
	fmt.Fprintf(&sb, "mode:       %s\n", r.Mode)
	if len(r.Violations) == 0 {
		sb.WriteString("violations: none")
		return sb.String()
	}
	sb.WriteString("violations:")
	for _, v := range r.Violations {
		fmt.Fprintf(&sb, "\n  %+4d  %-24s %s", v.Weight, v.Kind, v.Message)
	}
	return sb.String()
}

// TableHeaders implements the table output.
func (r EvaluationReport) TableHeaders() []string {
	return []string{"KIND", "WEIGHT", "MESSAGE"}
}

// TableRows lists one row per violation.
func (r EvaluationReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		rows = append(rows, []string{v.Kind.String(), strconv.Itoa(v.Weight), v.Message})
	}
	return rows
}

//Personal.AI order the ending
