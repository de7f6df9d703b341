// Command reschedule runs the Sura portal automation once and prints the
// extracted appointment data.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/TeoEchavarria/sura-automatization-reschedule/sura"
)

func main() {
	_ = godotenv.Load(".env")

	headed := flag.Bool("headed", false, "run the browser with a visible window")
	downloadDir := flag.String("download-dir", "", "override the download folder")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := sura.ConfigFromEnv()
	if *headed {
		cfg.Headless = false
	}
	if *downloadDir != "" {
		cfg.DownloadDir = *downloadDir
	}

	outcome, err := sura.Reschedule(cfg, log)
	if err != nil {
		log.Errorf("run failed: %v", err)
		if outcome != nil {
			for _, w := range outcome.Warnings {
				log.Warnf("warning: %s", w)
			}
		}
		os.Exit(1)
	}

	if outcome.AppointmentDate != nil {
		log.Infof("pending appointment: date=%s time=%s",
			outcome.AppointmentDate.Date, outcome.AppointmentDate.Time)
	}
	if outcome.ActiveTabLabel != "" {
		log.Infof("reschedule view active day: %s", outcome.ActiveTabLabel)
	}
	for _, w := range outcome.Warnings {
		log.Warnf("warning: %s", w)
	}
}
