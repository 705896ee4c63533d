package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"voice-typist/config"
)

const version = "0.3.0"

func main() {
	configFlag := flag.String("config", "", "path to YAML config file")
	keywordFlag := flag.String("keyword", "", "wake keyword, overrides the config")
	modelDirFlag := flag.String("model-dir", "", "model directory, overrides the config")
	devicesFlag := flag.Bool("devices", false, "list capture devices and exit")
	calibrateFlag := flag.Int("calibrate", 0, "sample background noise for this many seconds and suggest a silence threshold")
	downloadFlag := flag.Bool("download-models", false, "download missing model files and exit")
	versionFlag := flag.Bool("version", false, "print version and exit")

	flag.Parse()

	if *versionFlag {
		fmt.Println("voice-typist " + version)

		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if *keywordFlag != "" {
		cfg.Wake.Keyword = *keywordFlag
	}

	if *modelDirFlag != "" {
		cfg.Models.Dir = *modelDirFlag
	}

	logger := config.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	switch {
	case *devicesFlag:
		err = listDevices(os.Stdout)
	case *calibrateFlag > 0:
		err = runCalibration(cfg, logger, time.Duration(*calibrateFlag)*time.Second)
	case *downloadFlag:
		err = downloadModels(cfg, logger)
	default:
		err = run(cfg, logger)
	}

	if err != nil {
		log.Fatalf("error: %v", err)
	}
}
