package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/worksheets"
	"github.com/flanksource/worksheets/pdf"
	"github.com/flanksource/worksheets/server"
	"github.com/flanksource/worksheets/shutdown"
	"github.com/spf13/cobra"
)

// Build information (set by goreleaser)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "worksheets",
		Short: "Render printable worksheet PDFs",
		Long: `worksheets renders structured worksheet descriptions (title, header,
numbered questions with alternatives, images and answer lines) into printable
A4 PDFs, either over HTTP or from the command line.`,
		Example: `  worksheets serve --config worksheets.yaml
  worksheets render -i worksheet.json -o worksheet.pdf
  worksheets inspect worksheet.pdf --text`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			worksheets.Flags.UseFlags()
		},
	}

	worksheets.BindAllFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newExampleCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /api/generate-pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := worksheets.Flags.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if addr != "" {
				config.Server.Addr = addr
			}
			logger.Debugf("Using config:\n%s", config)

			generator, err := worksheets.Open(config)
			if err != nil {
				return err
			}
			shutdown.AddHookWithPriority("image cache", shutdown.PriorityDatabase, func() {
				if err := generator.Close(); err != nil {
					logger.Warnf("failed to close image cache: %v", err)
				}
			})

			srv := server.New(generator, config.Server)
			shutdown.AddHookWithPriority("http server", shutdown.PriorityIngress, func() {
				if err := srv.Shutdown(context.Background()); err != nil {
					logger.Warnf("server shutdown: %v", err)
				}
			})

			return shutdown.RunAndWait(srv.Start)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}

func newRenderCommand() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "render -i <worksheet.json|yaml> [-o <file.pdf>]",
		Short: "Render a worksheet file to PDF",
		Long: `Render a worksheet description to PDF without starting the server. The
output name defaults to a slug of the worksheet title.`,
		Example: `  worksheets render -i worksheet.json
  worksheets render -i worksheet.yaml -o out/fracoes.pdf --renderer maroto
  cat worksheet.json | worksheets render -i - -o worksheet.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := worksheets.Flags.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			doc, err := worksheets.LoadWorksheet(input)
			if err != nil {
				return err
			}

			generator, err := worksheets.Open(config)
			if err != nil {
				return err
			}
			defer generator.Close()

			data, err := generator.Generate(cmd.Context(), doc)
			if err != nil {
				return err
			}

			if output == "" {
				output = worksheets.Filename(doc.Title)
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			logger.Infof("Wrote %s (%d bytes)", output, len(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Worksheet file (JSON or YAML), - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newInspectCommand() *cobra.Command {
	var showText, asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <file.pdf>",
		Short: "Validate a PDF and print its page count and text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := pdf.Validate(data); err != nil {
				return err
			}
			info, err := pdf.GetInfo(data)
			if err != nil {
				return err
			}

			var pages []string
			if showText {
				if pages, err = pdf.ExtractPages(data); err != nil {
					return err
				}
			}

			if asJSON {
				out := struct {
					*pdf.Info
					Text []string `json:"text,omitempty"`
				}{info, pages}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d bytes\n", args[0], info.Pages, info.Size)
			for i, text := range pages {
				fmt.Fprintf(cmd.OutOrStdout(), "\n--- page %d ---\n%s\n", i+1, strings.TrimSpace(text))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showText, "text", false, "Print the extracted text of each page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newExampleCommand() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Print an example worksheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(worksheets.ExampleWorksheet(), "", "  ")
			if err != nil {
				return err
			}
			if outputFile != "" {
				if err := os.WriteFile(outputFile, data, 0644); err != nil {
					return fmt.Errorf("failed to write example worksheet: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Example worksheet written to %s\n", outputFile)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for the example worksheet")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), getVersionInfo())
		},
	}
}

func getVersionInfo() string {
	return fmt.Sprintf("worksheets %s (commit: %s, built: %s, go: %s)",
		version, commit, date, runtime.Version())
}
