// pdfflatten submits a PDF and an annotations file to the flattening
// service without the GUI, for scripting and smoke-testing an endpoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"pdf-marker/internal/annotation"
	"pdf-marker/internal/export"
)

func main() {
	cmd := &cli.Command{
		Name:  "pdfflatten",
		Usage: "Flatten an annotation set into a PDF via the markup service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Input PDF file path",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "annotations",
				Aliases:  []string{"a"},
				Usage:    "Annotations JSON file (array of annotation objects)",
				Required: true,
			},
			&cli.FloatFlag{
				Name:  "scale",
				Usage: "Canvas scale the annotation coordinates were authored at",
				Value: 2.0,
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Flattening service base URL",
				Value: "http://localhost:8000",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Download the flattened PDF to this path",
			},
		},
		Action: flatten,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func flatten(ctx context.Context, cmd *cli.Command) error {
	pdf, err := os.ReadFile(cmd.String("input"))
	if err != nil {
		return fmt.Errorf("failed to read input PDF: %w", err)
	}

	annData, err := os.ReadFile(cmd.String("annotations"))
	if err != nil {
		return fmt.Errorf("failed to read annotations file: %w", err)
	}
	var anns annotation.Collection
	if err := json.Unmarshal(annData, &anns); err != nil {
		return fmt.Errorf("failed to parse annotations: %w", err)
	}
	if err := anns.Validate(); err != nil {
		return fmt.Errorf("annotation set is invalid: %w", err)
	}

	client := export.NewClient(cmd.String("endpoint"))
	result, err := client.Flatten(ctx, pdf, cmd.String("input"), anns, cmd.Float("scale"))
	if err != nil {
		return err
	}

	if result.Identity {
		fmt.Fprintln(os.Stderr, "No annotations: output equals input, nothing submitted")
		return nil
	}

	fmt.Fprintf(os.Stderr, "Applied %d annotations across %d pages (%d -> %d bytes)\n",
		result.AnnotationsApplied, result.TotalPages, result.OriginalSize, result.Size)
	fmt.Println(result.DownloadURL)

	if out := cmd.String("output"); out != "" {
		if err := client.Download(ctx, result.DownloadURL, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Flattened PDF written to %s\n", out)
	}
	return nil
}
