package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oncoatlas/brcascan/internal/catalog"
	"github.com/oncoatlas/brcascan/internal/fasta"
	"github.com/oncoatlas/brcascan/internal/reference"
)

func (c *cli) newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the pathogenic variant catalog",
		Long: `Inspect the catalog of curated pathogenic variants. Variants are
recognized by the length and MD5 digest of the patient sequence.
A custom catalog file can be configured with catalog.path.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(c.newCatalogListCmd())
	cmd.AddCommand(c.newCatalogFingerprintCmd())

	return cmd
}

func (c *cli) newCatalogListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Example: `  brcascan catalog list
  brcascan catalog list --format yaml > catalog.yaml   # starting point for catalog.path`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.buildCatalog(loadSettings())
			if err != nil {
				return err
			}

			switch format {
			case "yaml":
				return catalog.WriteYAML(c.stdout, cat.Entries())
			case formatTab:
				return c.writeCatalogTab(cat.Entries())
			default:
				return usageErrorf("unknown output format %q (want tab or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTab, "Output format: tab, yaml")
	return cmd
}

func (c *cli) writeCatalogTab(entries []catalog.Entry) error {
	w := bufio.NewWriter(c.stdout)
	w.WriteString("#Gene\tCode\tTranscript\tHGVSc\tHGVSp\tPathogenicity\tLength\tMD5\n")
	for _, e := range entries {
		values := []string{
			e.Gene,
			e.Code,
			e.Transcript,
			e.HGVSc,
			orDash(e.HGVSp),
			orDash(e.Pathogenicity),
			strconv.Itoa(e.Fingerprint.Length),
			e.Fingerprint.Hash,
		}
		w.WriteString(strings.Join(values, "\t") + "\n")
	}
	return w.Flush()
}

func (c *cli) newCatalogFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <fasta>...",
		Short: "Print the fingerprint of FASTA files and any catalog match",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.buildCatalog(loadSettings())
			if err != nil {
				return err
			}

			w := bufio.NewWriter(c.stdout)
			w.WriteString("#File\tLength\tMD5\tMatches\n")
			for _, path := range args {
				rec, err := fasta.ReadFile(path)
				if err != nil {
					return err
				}
				fp := catalog.Compute(rec.Seq)

				var codes []string
				for _, gene := range []string{reference.GeneBRCA1, reference.GeneBRCA2} {
					for _, e := range cat.Match(rec.Seq, gene) {
						codes = append(codes, e.Code)
					}
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", path, fp.Length, fp.Hash, orDash(strings.Join(codes, ",")))
			}
			return w.Flush()
		},
	}
}
