// Command aprsbot is the daemon entry point: loads config, wires the
// optional audit/notify/status collaborators, and runs the session
// supervisor until a shutdown signal arrives. Grounded on main.go's
// load-config/wire-collaborators/run shape, generalized from the DX
// cluster server's telnet+spot wiring to the APRS-IS session stack.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"aprsbot/audit"
	"aprsbot/config"
	"aprsbot/crashreport"
	"aprsbot/dispatch"
	"aprsbot/notify"
	"aprsbot/samplegen"
	"aprsbot/sampleparser"
	"aprsbot/session"
	"aprsbot/statuspanel"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configFile := pflag.String("configfile", "", "path to the YAML configuration file (required)")
	status := pflag.Bool("status", false, "show a live terminal status dashboard")
	pflag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "aprsbot: --configfile is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aprsbot: %v\n", err)
		os.Exit(1)
	}

	log := config.NewLogger(cfg.ClientConfig.LogLevel)
	log.Infof("aprsbot %s starting, callsign=%s", Version, cfg.ClientConfig.AprsisCallsign)

	var rec *audit.Recorder
	var auditRecorder dispatch.AuditRecorder
	if cfg.DataStorage.AuditEnabled {
		dbPath := filepath.Join(cfg.DataStorage.AprsDataDirectory, cfg.DataStorage.AuditDBFileName)
		rec, err = audit.Open(dbPath, log)
		if err != nil {
			log.WithError(err).Warn("audit: failed to open database, continuing without auditing")
		} else {
			auditRecorder = rec
			defer rec.Close()
		}
	}

	var panel *statuspanel.Panel
	if *status {
		panel = statuspanel.New(200, 0)
		if err := panel.Start(); err != nil {
			log.WithError(err).Warn("status: failed to start terminal dashboard, continuing without it")
			panel = nil
		} else {
			defer panel.Stop()
			panel.SetStatus(fmt.Sprintf("aprsbot %s — %s", Version, cfg.ClientConfig.AprsisCallsign))
		}
	}

	notifier := notify.New(log)
	crash := crashreport.New(
		filepath.Join(cfg.DataStorage.AprsDataDirectory, cfg.CrashHandler.NohupFilename),
		cfg.CrashHandler.AppriseConfigFile,
		notifier,
		log,
	)
	if rec != nil {
		crash.RegisterAtExit(func() { rec.Close() })
	}
	defer crash.RunAtExit()

	parser := sampleparser.New()
	generator := samplegen.New()

	sv := session.New(cfg, log, parser, generator, nil, auditRecorder)
	if panel != nil {
		sv.AttachStatusSink(panel)
	}

	if err := crash.Guard(sv.Run); err != nil {
		log.WithError(err).Error("supervisor exited with error")
		os.Exit(1)
	}
}
