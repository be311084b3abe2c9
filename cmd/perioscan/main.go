package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/perioscan/perioscan/internal/config"
	"github.com/perioscan/perioscan/internal/logging"
	"github.com/perioscan/perioscan/pkg/annotation"
	"github.com/perioscan/perioscan/pkg/dataset"
	"github.com/perioscan/perioscan/pkg/suggest"
)

func main() {
	var (
		mode       string
		imagesDir  string
		outDir     string
		configPath string

		valSplit float64
		seed     int64
		workers  int

		assistURL   string
		assistModel string

		legacyJSONDir  string
		legacyImageDir string
		legacyBoneDir  string
	)

	flag.StringVar(&mode, "mode", "export", "operation: export|aggregate|convert|prelabel")
	flag.StringVar(&imagesDir, "images", "", "image directory (the annotation root)")
	flag.StringVar(&outDir, "out", "export", "output directory for -mode export / convert")
	flag.StringVar(&configPath, "config", "", "config file path (optional)")

	flag.Float64Var(&valSplit, "val", -1, "validation fraction override (0..1)")
	flag.Int64Var(&seed, "seed", -1, "split seed override")
	flag.IntVar(&workers, "workers", 0, "parallel per-image workers override")

	flag.StringVar(&assistURL, "url", "", "Ollama server URL override for -mode prelabel")
	flag.StringVar(&assistModel, "model", "", "vision model override for -mode prelabel")

	flag.StringVar(&legacyJSONDir, "legacy-json", "", "old keypoint JSON directory for -mode convert")
	flag.StringVar(&legacyImageDir, "legacy-images", "", "old image directory for -mode convert")
	flag.StringVar(&legacyBoneDir, "legacy-bones", "", "old bone-line JSON directory for -mode convert (optional)")

	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyOverrides(cfg, valSplit, seed, workers, assistURL, assistModel)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	switch mode {
	case "export":
		store := openStore(imagesDir, log)
		opts := dataset.Options{
			ValSplit:    cfg.Export.ValSplit,
			Seed:        cfg.Export.Seed,
			Workers:     cfg.Export.Workers,
			ROIFormat:   cfg.Export.ROIFormat,
			JPEGQuality: cfg.Export.JPEGQuality,
		}
		summary, err := dataset.NewExporter(store, opts, log).Export(ctx, outDir)
		if err != nil {
			log.Fatal("export failed", "error", err)
		}
		fmt.Println(summary)

	case "aggregate":
		store := openStore(imagesDir, log)
		path, err := store.ExportAll()
		if err != nil {
			log.Fatal("aggregate export failed", "error", err)
		}
		fmt.Printf("wrote %s\n", path)

	case "convert":
		if legacyJSONDir == "" || legacyImageDir == "" {
			usage("-mode convert requires -legacy-json and -legacy-images")
		}
		n, err := dataset.ConvertLegacy(dataset.LegacyOptions{
			KeypointDir: legacyJSONDir,
			ImageDir:    legacyImageDir,
			BoneDir:     legacyBoneDir,
			DestDir:     outDir,
		}, log)
		if err != nil {
			log.Fatal("legacy conversion failed", "error", err)
		}
		fmt.Printf("converted %d records into %s\n", n, outDir)

	case "prelabel":
		store := openStore(imagesDir, log)
		files, err := store.ScanImages()
		if err != nil {
			log.Fatal("scan failed", "error", err)
		}
		cls, err := dataset.Classify(store, files, log)
		if err != nil {
			log.Fatal("classification failed", "error", err)
		}
		client, err := suggest.NewOllamaClient(cfg.Assist.URL)
		if err != nil {
			log.Fatal("failed to create vision client", "error", err)
		}
		assistant := suggest.NewAssistant(client, suggest.Options{
			Model:       cfg.Assist.Model,
			MaxSendDim:  cfg.Assist.MaxSendDim,
			SendQuality: cfg.Assist.SendQuality,
		}, log)
		n, err := assistant.Prelabel(ctx, store, cls.HeldOut)
		if err != nil {
			log.Fatal("prelabel failed", "error", err)
		}
		fmt.Printf("proposed boxes for %d of %d held-out images\n", n, len(cls.HeldOut))

	default:
		usage(fmt.Sprintf("unknown mode %q", mode))
	}
}

func applyOverrides(cfg *config.Config, valSplit float64, seed int64, workers int, url, model string) {
	if valSplit >= 0 {
		cfg.Export.ValSplit = valSplit
	}
	if seed >= 0 {
		cfg.Export.Seed = seed
	}
	if workers > 0 {
		cfg.Export.Workers = workers
	}
	if url != "" {
		cfg.Assist.URL = url
	}
	if model != "" {
		cfg.Assist.Model = model
	}
}

func openStore(imagesDir string, log *logging.Logger) *annotation.Store {
	if imagesDir == "" {
		usage("-images is required")
	}
	store := annotation.NewStore(log)
	files, err := store.SetRoot(imagesDir)
	if err != nil {
		log.Fatal("failed to open image directory", "path", imagesDir, "error", err)
	}
	log.Info("image directory opened", "path", imagesDir, "images", len(files))
	return store
}

func usage(msg string) {
	fmt.Fprintf(os.Stderr, "%s\nusage: %s -mode export|aggregate|convert|prelabel -images <dir> [options]\n",
		msg, filepath.Base(os.Args[0]))
	flag.PrintDefaults()
	os.Exit(2)
}
