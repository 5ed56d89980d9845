package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oncoatlas/brcascan/internal/duckdb"
)

func (c *cli) newHistoryCmd() *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse analyses saved with analyze --store",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&storePath, "store", "", "DuckDB file with saved analyses (default: store.path)")

	open := func() (*duckdb.Store, error) {
		path := storePath
		if path == "" {
			path = viper.GetString(keyStorePath)
		}
		if path == "" {
			return nil, usageErrorf("no analysis store configured; use --store or set %s", keyStorePath)
		}
		return duckdb.Open(path)
	}

	cmd.AddCommand(c.newHistoryListCmd(open))
	cmd.AddCommand(c.newHistoryShowCmd(open))
	cmd.AddCommand(c.newHistoryHitsCmd(open))
	return cmd
}

func (c *cli) newHistoryListCmd(open func() (*duckdb.Store, error)) *cobra.Command {
	var patientID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses, newest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.ListAnalyses(cmd.Context(), patientID)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(c.stdout)
			w.WriteString("#ID\tPatient\tGenerated\tSummary\n")
			for _, a := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, orDash(a.PatientID), a.GeneratedAt.Format(time.RFC3339), a.Summary)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&patientID, "patient", "", "Only list analyses of this patient")
	return cmd
}

func (c *cli) newHistoryShowCmd(open func() (*duckdb.Store, error)) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render a saved analysis",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format); err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := store.LoadAnalysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderResult(c.stdout, format, "", res)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json, tab")
	return cmd
}

func (c *cli) newHistoryHitsCmd(open func() (*duckdb.Store, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "hits <gene>",
		Short: "List saved pathogenic variant hits for a gene",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			hits, err := store.SearchHitsByGene(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := bufio.NewWriter(c.stdout)
			w.WriteString("#Analysis\tPatient\tGenerated\tGene\tCode\tHGVSc\tClassification\tConfidence\n")
			for _, h := range hits {
				confidence := "fingerprint"
				if h.Hit.LowConfidence {
					confidence = "header"
				}
				values := []string{
					h.AnalysisID,
					orDash(h.PatientID),
					h.GeneratedAt.Format(time.RFC3339),
					h.Gene,
					h.Hit.Entry.Code,
					h.Hit.Entry.HGVSc,
					orDash(h.Hit.Classification()),
					confidence,
				}
				w.WriteString(strings.Join(values, "\t") + "\n")
			}
			return w.Flush()
		},
	}
}
