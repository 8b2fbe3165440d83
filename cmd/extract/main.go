// main.go - a one-shot CLI entrypoint for the extraction pipeline, for
// local testing without standing up the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/natthapon/docflow/configs"
	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/ocr"
	"github.com/natthapon/docflow/internal/pipeline"
)

func main() {
	filePath := flag.String("file", "", "path to the document (PDF or image)")
	mimeType := flag.String("mime", "application/pdf", "MIME type of the document")
	docType := flag.String("doctype", "invoice", "invoice | bankStatement | loanContract | drawdown")
	schemaPath := flag.String("schema", "", "path to the JSON Schema file")
	provider := flag.String("provider", "gemini", "gemini | openai | azure-openai")
	pipelineMode := flag.String("mode", "default", "default | ocr-enhanced | ocr-only | ocr-verified")
	useOCR := flag.Bool("ocr", false, "run the OCR pre-pass")
	verbose := flag.Bool("verbose", false, "include pipeline warnings in the output")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("-file is required")
	}

	configs.LoadConfig()

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("read file: %v", err)
	}

	var schema map[string]interface{}
	if *schemaPath != "" {
		raw, err := os.ReadFile(*schemaPath)
		if err != nil {
			log.Fatalf("read schema: %v", err)
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			log.Fatalf("parse schema: %v", err)
		}
	}

	backend, err := model.NewBackend(docmodel.ModelProvider(*provider))
	if err != nil {
		log.Fatalf("build backend: %v", err)
	}

	req := docmodel.Request{
		File:     data,
		MimeType: *mimeType,
		DocType:  docmodel.DocType(*docType),
		Schema:   schema,
		Options: docmodel.Options{
			ModelProvider: docmodel.ModelProvider(*provider),
			PipelineMode:  docmodel.PipelineMode(*pipelineMode),
			UseOCR:        *useOCR,
			VerboseDebug:  *verbose,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.REQUEST_TIMEOUT_SECONDS)*time.Second)
	defer cancel()

	resp := pipeline.Run(ctx, req, pipeline.Deps{Backend: backend, OCRProvider: ocr.NewTesseractProvider()})

	if resp.Error != nil {
		fmt.Fprintf(os.Stderr, "extraction failed: %s: %s\n", resp.Error.Kind, resp.Error.Message)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(resp.Result, "", "  ")
	if err != nil {
		log.Fatalf("marshal result: %v", err)
	}
	fmt.Println(string(out))

	if len(resp.Warnings) > 0 {
		fmt.Fprintln(os.Stderr, "warnings:")
		for _, w := range resp.Warnings {
			fmt.Fprintln(os.Stderr, " -", w)
		}
	}
}
