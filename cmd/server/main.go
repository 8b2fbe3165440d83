// main.go - demo HTTP surface over the extraction pipeline. Not a full
// upload/schema-editor/audit-log product surface (out of scope); just
// enough to turn a multipart upload into a docmodel.Request and invoke
// pipeline.Run.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/natthapon/docflow/configs"
	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/ocr"
	"github.com/natthapon/docflow/internal/pipeline"
)

func main() {
	configs.LoadConfig()

	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", configs.ALLOWED_ORIGINS)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/", func(c *gin.Context) { c.String(200, "ok") })
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "docflow", "version": "1.0.0"})
	})

	ocrProvider := ocr.NewTesseractProvider()
	router.POST("/api/v1/extract", extractHandler(ocrProvider))

	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   time.Duration(configs.REQUEST_TIMEOUT_SECONDS+30) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on :%s", configs.PORT)
		log.Println("API Endpoints:")
		log.Println("  POST /api/v1/extract")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// extractHandler builds a docmodel.Request from a multipart upload and
// runs it through the pipeline. Expects fields: file, documentType,
// schema (JSON), and optional options (JSON), which carries the model
// provider and pipeline mode among the other per-request knobs.
func extractHandler(ocrProvider ocr.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
			return
		}

		docType := docmodel.DocType(c.PostForm("documentType"))
		if docType == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "documentType is required"})
			return
		}

		var schema map[string]interface{}
		if raw := c.PostForm("schema"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &schema); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "schema must be valid JSON"})
				return
			}
		}

		opts := docmodel.Options{}
		if raw := c.PostForm("options"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &opts); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "options must be valid JSON"})
				return
			}
		}

		backend, err := model.NewBackend(opts.ModelProvider)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		req := docmodel.Request{
			File:     data,
			MimeType: fileHeader.Header.Get("Content-Type"),
			DocType:  docType,
			Schema:   schema,
			Options:  opts,
		}

		reqCtx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(configs.REQUEST_TIMEOUT_SECONDS)*time.Second)
		defer cancel()

		resp := pipeline.Run(reqCtx, req, pipeline.Deps{Backend: backend, OCRProvider: ocrProvider})

		if resp.Error != nil {
			c.JSON(resp.Error.HTTPStatus(), gin.H{
				"requestId": resp.RequestID,
				"error":     resp.Error.Message,
				"kind":      resp.Error.Kind,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"requestId": resp.RequestID,
			"result":    resp.Result,
			"warnings":  resp.Warnings,
			"summary":   resp.Summary,
		})
	}
}
