package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tendant/folio-content/pkg/folio"
	"github.com/tendant/folio-content/pkg/folio/config"
)

// NewModelsCommand lists the content models and their routes, optionally
// with the number of stored records of each
func NewModelsCommand() *cobra.Command {
	var withCounts bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List content models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if !withCounts {
				fmt.Fprintln(w, "MODEL\tTYPE\tROUTE")
				for _, m := range folio.Models() {
					fmt.Fprintf(w, "%s\t%s\t/api/%s\n", m.Collection(), m.TypeName(), m.Route())
				}
				return w.Flush()
			}

			svc, cleanup, err := serviceFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeService(cleanup)

			fmt.Fprintln(w, "MODEL\tTYPE\tROUTE\tRECORDS")
			for _, m := range folio.Models() {
				n, err := svc.Count(cmd.Context(), m)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t/api/%s\t%d\n", m.Collection(), m.TypeName(), m.Route(), n)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&withCounts, "counts", false, "also show the number of stored records")
	return cmd
}

// NewListCommand prints the records of one model
func NewListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <model>",
		Short: "List the records of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := folio.ParseModel(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}

			svc, cleanup, err := serviceFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeService(cleanup)

			records, err := svc.List(cmd.Context(), model)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d record(s)\n", model.Collection(), len(records))
			for i, rec := range records {
				data, err := json.Marshal(rec)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", i+1, data)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as an indented JSON array")
	return cmd
}

// NewUpsertCommand validates and inserts one record
func NewUpsertCommand() *cobra.Command {
	var data string
	var file string

	cmd := &cobra.Command{
		Use:   "upsert <model>",
		Short: "Validate and insert a record",
		Long:  `Validate a JSON object against the model schema and insert it. Exactly one of --data or --file is required.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (data == "") == (file == "") {
				return errors.New("exactly one of --data or --file is required")
			}

			payload := []byte(data)
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				payload = b
			}

			svc, cleanup, err := serviceFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeService(cleanup)

			id, err := svc.Upsert(cmd.Context(), args[0], payload)
			if err != nil {
				var verr *folio.ValidationError
				if errors.As(err, &verr) {
					for _, f := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.Field, f.Message)
					}
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "record as a JSON object")
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON file holding the record")
	return cmd
}

// NewUploadCommand stores a local file in the upload area
func NewUploadCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file (kind asset or resume)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			svc, cleanup, err := serviceFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeService(cleanup)

			result, err := svc.Upload(cmd.Context(), folio.UploadRequest{
				Filename: filepath.Base(args[0]),
				Kind:     kind,
				Body:     f,
			})
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes)\n", result.URL, result.Size)
			if result.ResumeID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Resume record: %s\n", result.ResumeID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", folio.UploadKindAsset, "upload kind: asset or resume")
	return cmd
}

// NewSeedCommand fills empty collections with example content
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed empty collections with example content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := serviceFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeService(cleanup)

			created, err := svc.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to seed: every collection already has data")
				return nil
			}

			names := make([]string, 0, len(created))
			for name := range created {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d\n", name, created[name])
			}
			return nil
		},
	}
}

// NewDiagCommand prints the connectivity report
func NewDiagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diag",
		Short: "Show document store diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := serviceFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeService(cleanup)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(svc.Diagnose(cmd.Context()))
		},
	}
}

// NewEnvCommand documents the configuration variables
func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the configuration environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, err := config.Usage()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usage)
			return nil
		},
	}
}
