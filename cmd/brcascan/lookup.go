package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oncoatlas/brcascan/internal/annotate"
)

func (c *cli) newLookupCmd() *cobra.Command {
	var (
		offline bool
		format  string
	)

	cmd := &cobra.Command{
		Use:   "lookup <hgvs>...",
		Short: "Resolve the clinical annotation of HGVS identifiers",
		Long: `Query ClinVar for transcript-qualified HGVS c. identifiers and show
the annotation after local overrides are applied. Useful to check
registry connectivity.`,
		Example: `  brcascan lookup NM_007294.4:c.68_69delAG
  brcascan lookup --format json NM_000059.4:c.5946delT NM_007294.4:c.5266dupC`,
		Args: minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return usageErrorf("unknown output format %q (want text or json)", format)
			}

			s := loadSettings()
			cat, err := c.buildCatalog(s)
			if err != nil {
				return err
			}
			resolver, err := c.buildResolver(s, offline)
			if err != nil {
				return err
			}

			candidates := cat.Entries()
			anns := make([]annotate.ClinicalAnnotation, 0, len(args))
			for _, id := range args {
				anns = append(anns, resolver.Resolve(cmd.Context(), id, candidates))
			}

			if format == formatJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(anns)
			}
			for _, a := range anns {
				c.printAnnotation(a)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Do not query ClinVar; use local annotations only")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json")

	return cmd
}

func (c *cli) printAnnotation(a annotate.ClinicalAnnotation) {
	fmt.Fprintln(c.stdout, a.Identifier)
	fmt.Fprintf(c.stdout, "  Significance:  %s\n", orDash(a.ClinicalSignificance))
	fmt.Fprintf(c.stdout, "  Review status: %s\n", orDash(a.ReviewStatus))
	fmt.Fprintf(c.stdout, "  Conditions:    %s\n", orDash(strings.Join(a.Conditions, ", ")))
	fmt.Fprintf(c.stdout, "  Origin:        %s\n", a.Origin)
	if a.RegistryID != "" {
		fmt.Fprintf(c.stdout, "  ClinVar UID:   %s\n", a.RegistryID)
	}
	if a.Title != "" {
		fmt.Fprintf(c.stdout, "  Title:         %s\n", a.Title)
	}
	if a.Error != "" {
		fmt.Fprintf(c.stdout, "  Registry:      %s\n", a.Error)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
