package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	log "github.com/sirupsen/logrus"

	"patientsheets/pkg/config"
	"patientsheets/pkg/export"
	"patientsheets/pkg/patients"
)

type app struct {
	configFile string
	docID      string
	token      string
	verbose    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "patientsheets",
		Short: "Manage patient records kept in a spreadsheet",
		Long: `patientsheets reads and writes the patient table of a Google Sheets
document, or of a local .xlsx workbook when backend = "workbook".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			cfg.ConfigureLogging(a.verbose)
			a.cfg = cfg
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "patientsheets.toml", "Path to the TOML config file")
	flags.StringVar(&a.docID, "doc", "", "Document (spreadsheet) id")
	flags.StringVar(&a.token, "token", "", "OAuth access token; defaults to the service account")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(
		a.ensureCmd(),
		a.putCmd(),
		a.listCmd(),
		a.getCmd(),
		a.searchCmd(),
		a.deleteCmd(),
		a.exportCmd(),
		a.configCmd(),
	)
	return rootCmd
}

// withStore opens the configured document and hands fn a store on it.
func (a *app) withStore(cmd *cobra.Command, fn func(*patients.Store) error) error {
	sessions := a.cfg.Sessions()
	if c, ok := sessions.(io.Closer); ok {
		defer c.Close()
	}
	doc, err := sessions.Open(cmd.Context(), a.token, a.docID)
	if err != nil {
		return err
	}
	return fn(patients.NewStore(doc, patients.WithTable(a.cfg.Table)))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) ensureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create the patient table and its header if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *patients.Store) error {
				if err := s.EnsureTable(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "table %s is ready\n", s.Table())
				return nil
			})
		},
	}
}

func (a *app) putCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Insert or update one record read as JSON from --file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var rec patients.Record
			if err := json.NewDecoder(in).Decode(&rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			return a.withStore(cmd, func(s *patients.Store) error {
				if err := s.EnsureTable(cmd.Context()); err != nil {
					return err
				}
				res, err := s.Upsert(cmd.Context(), rec)
				if err != nil {
					return err
				}
				verb := "updated"
				if res.Created {
					verb = "appended"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s at row %d\n", verb, rec.PatientID, res.Row)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file holding the record")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every patient record as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *patients.Store) error {
				records, err := s.GetAll(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), records)
			})
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <patientId>",
		Short: "Print one patient record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *patients.Store) error {
				rec, err := s.GetByKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <patientId>",
		Short: "Print the matching records; a miss prints []",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *patients.Store) error {
				records, err := s.SearchByKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), records)
			})
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <patientId>",
		Short: "Remove a patient row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *patients.Store) error {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every patient record to a Parquet file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *patients.Store) error {
				n, err := export.WriteFile(out, s.All(cmd.Context()))
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{"rows": n, "file": out}).Info("Exported patients")
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", n, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "patients.parquet", "Output Parquet file")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.configFile == "" {
				return errors.New("--config is required")
			}
			if _, err := os.Stat(a.configFile); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", a.configFile)
			}
			if err := a.cfg.Save(a.configFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configFile)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
