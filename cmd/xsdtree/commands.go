package main

import (
	"errors"
	"fmt"

	"github.com/agentflare-ai/go-xsdtree"
	"github.com/spf13/cobra"
)

func newRootsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "`roots` lists the global elements of the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reader()
			if err != nil {
				return err
			}
			for _, name := range r.ElementNames() {
				fmt.Fprintln(a.stdout, name)
			}
			return nil
		},
	}
}

func newElementsCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "elements [path]",
		Short: "`elements` lists every element below path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("format") {
				f, err := xsdtree.ParseFormat(format)
				if err != nil {
					return &usageError{msg: err.Error()}
				}
				a.config.Format = f
			}
			path, err := a.subtreePath(args)
			if err != nil {
				return err
			}
			r, err := a.reader()
			if err != nil {
				return err
			}
			f, err := r.Elements(path)
			if err != nil {
				return err
			}
			return xsdtree.NewListing(f).Encode(a.stdout, a.config.Format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json, yaml)")
	return cmd
}

func newOutlineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "outline [path]",
		Short: "`outline` prints an indented outline of the tree below path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.subtreePath(args)
			if err != nil {
				return err
			}
			r, err := a.reader()
			if err != nil {
				return err
			}
			f, err := r.Elements(path)
			if err != nil {
				return err
			}
			if err := xsdtree.WriteOutline(a.stdout, f); err != nil {
				return err
			}
			formatter := &xsdtree.ErrorFormatter{}
			for _, diag := range f.Diagnostics {
				fmt.Fprint(a.stderr, formatter.Format(diag))
			}
			return nil
		},
	}
}

func newTemplateCmd(a *app) *cobra.Command {
	var (
		mode     string
		triggers []string
	)
	cmd := &cobra.Command{
		Use:   "template [path]",
		Short: "`template` writes an XML skeleton of the element at path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mode") {
				m, err := xsdtree.ParseMode(mode)
				if err != nil {
					return &usageError{msg: err.Error()}
				}
				a.config.Mode = m
			}
			if cmd.Flags().Changed("prune-trigger") {
				a.config.PruneTriggers = triggers
			}
			path, err := a.subtreePath(args)
			if err != nil {
				return err
			}
			r, err := a.reader()
			if err != nil {
				return err
			}
			out, err := r.Template(path, a.config.Mode)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(xsdtree.ModeMaximum), "fullness mode (minimum, medium, maximum)")
	cmd.Flags().StringSliceVar(&triggers, "prune-trigger", []string{xsdtree.DefaultPruneTrigger}, "element names below which medium mode drops optional elements")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "`check` reports structural problems in the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.Schema == "" {
				return &usageError{msg: "no schema given (use --schema or the config file)"}
			}
			err := xsdtree.CheckSchemaFile(a.config.Schema)
			if err == nil {
				fmt.Fprintf(a.stdout, "%s: ok\n", a.config.Schema)
				return nil
			}

			var joined interface{ Unwrap() []error }
			if !errors.As(err, &joined) {
				return err
			}
			problems := joined.Unwrap()
			for _, problem := range problems {
				fmt.Fprintln(a.stdout, problem)
			}
			return fmt.Errorf("%s: %d problem(s)", a.config.Schema, len(problems))
		},
	}
}
