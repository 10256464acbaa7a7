package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhpenta/tryon"
	"github.com/mhpenta/tryon/storage"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var personPath, garmentPath, style, outPath, bucket string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a try-on composite from a person and a garment photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}

			person, err := readImage(personPath)
			if err != nil {
				return err
			}
			garment, err := readImage(garmentPath)
			if err != nil {
				return err
			}

			req := tryon.GenerationRequest{
				PersonImage:  person,
				GarmentImage: garment,
				Style:        style,
			}
			if err := tryon.ValidateRequest(req); err != nil {
				return err
			}

			var observers []tryon.Observer
			if !quiet {
				observers = append(observers, newProgressPrinter(cmd.OutOrStdout()))
			}
			a, err := buildApp(cfg, cmd.ErrOrStderr(), observers...)
			if err != nil {
				return err
			}
			defer a.Close()

			img, err := a.engine.Generate(cmd.Context(), req, cfg.Gemini.APIKey)
			if err != nil {
				var genErr *tryon.GenerationError
				if errors.As(err, &genErr) && genErr.Kind == tryon.FailureQuota {
					if seconds, ok := genErr.RetryAfterSeconds(); ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "Retry after %d seconds\n", seconds)
					}
				}
				return err
			}

			store, base, err := resultTarget(cmd, ctx, outPath, bucket)
			if err != nil {
				return err
			}
			saved, err := tryon.SaveImage(cmd.Context(), store, img, base)
			if err != nil {
				return fmt.Errorf("save result: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated with %s (%s)\n", img.Model, img.APIVersion)
			fmt.Fprintf(out, "Saved %d bytes to %s\n", saved.Size, saved.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&personPath, "person", "", "Photo of the person")
	cmd.Flags().StringVar(&garmentPath, "garment", "", "Photo of the garment")
	cmd.Flags().StringVar(&style, "style", "", "Style description (defaults to a generic fashion look)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file; the extension follows the image type")
	cmd.Flags().StringVar(&bucket, "s3-bucket", "", "Upload the result to this bucket instead of disk")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress lines")
	_ = cmd.MarkFlagRequired("person")
	_ = cmd.MarkFlagRequired("garment")
	return cmd
}

// resultTarget picks the store and base path for the generated image.
func resultTarget(cmd *cobra.Command, ctx *commandContext, outPath, bucket string) (tryon.Storage, string, error) {
	name := strings.TrimSpace(outPath)
	if name != "" && bucket == "" {
		abs, err := filepath.Abs(name)
		if err != nil {
			return nil, "", fmt.Errorf("resolve output path: %w", err)
		}
		return storage.NewLocal(filepath.Dir(abs)), filepath.Base(abs), nil
	}

	if name == "" {
		name = "tryon-" + time.Now().UTC().Format("20060102-150405")
	}
	store, err := buildStorage(cmd.Context(), ctx.config, bucket)
	if err != nil {
		return nil, "", err
	}
	return store, filepath.ToSlash(name), nil
}

func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
