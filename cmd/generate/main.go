// Command generate runs a single prompt through the configured image provider
// and prints the resulting references. Outputs are written to OUTPUT_DIR unless
// -inline is set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"promptpix/internal/domain"
	"promptpix/internal/imagegen"
	"promptpix/internal/infra"
)

func main() {
	var (
		promptFlag string
		styleFlag  string
		sizeFlag   string
		aspectFlag string
		inlineFlag bool
	)
	flag.StringVar(&promptFlag, "prompt", "", "text prompt (required)")
	flag.StringVar(&styleFlag, "style", "", "style label or preset id")
	flag.StringVar(&sizeFlag, "size", "", "size token such as 1024x1792")
	flag.StringVar(&aspectFlag, "aspect", "", "square, portrait or landscape; wins over -size")
	flag.BoolVar(&inlineFlag, "inline", false, "print data URIs instead of writing files")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitErr(err)
	}
	cfg.PersistImages = !inlineFlag
	logger := infra.NewLogger(cfg.AppEnv)

	service, err := imagegen.NewServiceFromConfig(cfg, nil, &logger)
	if err != nil {
		exitErr(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := service.Generate(ctx, imagegen.RequestBody{
		Prompt: promptFlag,
		Style:  styleFlag,
		Size:   sizeFlag,
		Aspect: aspectFlag,
	}, uuid.NewString())
	if err != nil {
		logger.Error().Err(err).Int("status", domain.HTTPStatus(err)).Msg("generation failed")
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"image":    result.Image,
		"output":   result.Output,
		"size":     result.Size,
		"style":    result.Style,
		"provider": result.Provider,
		"job_id":   result.JobID,
	}); err != nil {
		exitErr(err)
	}
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
