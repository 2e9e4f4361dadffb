package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"

	imagelabeler "github.com/menta2k/image-labeler"
	"github.com/menta2k/image-labeler/internal/app"
	"github.com/menta2k/image-labeler/internal/config"
	"github.com/menta2k/image-labeler/internal/ui"
	"github.com/menta2k/image-labeler/internal/utils"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	logger, err := logs.NewLog()
	check(err)

	parser := argparse.NewParser("image-labeler", "Draw labeled shapes on the images of a folder and save them as JSON")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Config file (default ~/.config/image-labeler/config.json if it exists)"})
	addr := parser.String("a", "addr", &argparse.Options{Help: "Listen address, overrides server.addr"})
	dir := parser.String("d", "dir", &argparse.Options{Help: "Image folder to open at startup"})
	outDir := parser.String("o", "out", &argparse.Options{Help: "Directory for annotation files, overrides output.dir"})
	if err := parser.Parse(os.Args); err != nil {
		logger.Errorf(parser.Usage(err))
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	logger.Infof("image-labeler %v", imagelabeler.GetVersion())
	a := app.New(cfg, logger)
	suggester, err := app.NewSuggester(cfg.Suggest)
	if err != nil {
		logger.Errorf("Failed to set up label suggestion: %v", err)
		os.Exit(1)
	}
	if suggester != nil {
		logger.Infof("Label suggestion enabled (%v, model %v)", cfg.Suggest.Backend, cfg.Suggest.Model)
		a.SetSuggester(suggester)
	}

	if *dir != "" {
		entries, err := a.OpenFolder(*dir)
		if err != nil {
			logger.Errorf("Failed to open folder '%v': %v", *dir, err)
			os.Exit(1)
		}
		logger.Infof("Opened %v with %v images", *dir, len(entries))
	}

	server := ui.NewServer(logger, a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("Shutdown complete, with error: %v", err)
		}
	}()

	if err := server.ListenAndServe(cfg.Server.Addr); err != nil {
		logger.Errorf("HTTP server failed: %v", err)
		os.Exit(1)
	}
}

// loadConfig reads the named file, or the default config path if it
// exists, or falls back to the built-in defaults
func loadConfig(filename string) (*config.Config, error) {
	if filename != "" {
		return config.LoadFromFile(filename)
	}
	if def := config.GetConfigPath(); utils.FileExists(def) {
		return config.LoadFromFile(def)
	}
	return config.Default(), nil
}
