package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pesto/internal/domain/query"
	"github.com/kailas-cloud/pesto/internal/domain/value"
	"github.com/kailas-cloud/pesto/internal/repository/dump"
	filteruc "github.com/kailas-cloud/pesto/internal/usecase/filter"
)

func newFilterCmd(a *app) *cobra.Command {
	var (
		filters  []string
		excludes []string
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "filter INPUT",
		Short: "Print the documents of a dump that match every filter and no exclude",
		Long: `Reads a JSON dump (use - for stdin) and prints the matching documents.
A document is kept when all --filter expressions match and no --exclude does.`,
		Example: `  pesto filter dump.json -f status=published -f views__gte=100 -e tags__in=draft`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := query.NewFilter(filters, excludes)
			if err != nil {
				return err
			}

			docs, err := dump.ReadFile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			kept := filteruc.New(f, a.logger).Apply(docs)
			if err := a.writeDump(outPath, kept); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d matching documents\n", len(kept))
			a.exportMetrics()
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "keep documents matching this expression (repeatable)")
	cmd.Flags().StringArrayVarP(&excludes, "exclude", "e", nil, "drop documents matching this expression (repeatable)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "write the result to this file instead of stdout")
	return cmd
}

func (a *app) writeDump(path string, docs []*value.Object) error {
	if path == "" || path == dump.Stdin {
		return dump.Write(a.stdout, docs)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := dump.Write(f, docs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
