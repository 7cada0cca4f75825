// Command dryrun exercises Parser → Generator → Text Splitter offline,
// without opening a Transport, a Scheduler, or writing the persistent
// counter — useful for CI (§4.10). Grounded on cmd/peerprobe's role as a
// standalone debug entry point sharing the daemon's config loader.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"aprsbot/config"
	"aprsbot/dispatch"
	"aprsbot/samplegen"
	"aprsbot/sampleparser"
	"aprsbot/splitter"
)

// stdoutHandle implements dispatch.SessionHandle by printing would-be
// outbound lines instead of transmitting them.
type stdoutHandle struct{}

func (stdoutHandle) Send(line string) error {
	fmt.Println(line)
	return nil
}

func main() {
	configFile := pflag.String("configfile", "", "path to the YAML configuration file (required)")
	from := pflag.String("from", "", "sender callsign to simulate")
	text := pflag.String("text", "", "inbound message text to simulate")
	pflag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "dryrun: --configfile is required")
		os.Exit(1)
	}
	if _, err := os.Stat(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "dryrun: config file not found: %v\n", err)
		os.Exit(1)
	}
	if *from == "" || *text == "" {
		fmt.Fprintln(os.Stderr, "dryrun: --from and --text are required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dryrun: %v\n", err)
		os.Exit(1)
	}

	log := config.NewLogger(cfg.ClientConfig.LogLevel)

	dispatchCfg := dispatch.Config{
		BotCallsign:         cfg.ClientConfig.AprsisCallsign,
		Tocall:              cfg.ClientConfig.AprsisTocall,
		DefaultErrorMessage: cfg.ClientConfig.AprsInputParserDefaultErrorMessage,
		Enumerate:           cfg.ClientConfig.AprsMessageEnumeration,
	}

	parser := sampleparser.New()
	generator := samplegen.New()

	status, errString, responseObject := parser.Parse(*text, *from)
	switch status {
	case dispatch.ParseIgnore:
		log.Info("parser ignored the message")
		return
	case dispatch.ParseError:
		out := errString
		if out == "" {
			out = dispatchCfg.DefaultErrorMessage
		}
		fmt.Println(out)
		return
	}

	ok, reply, _ := generator.Generate(responseObject)
	if !ok {
		reply = dispatchCfg.DefaultErrorMessage
	}

	for _, seg := range splitter.Split(reply, splitter.Options{Enumerate: dispatchCfg.Enumerate}) {
		stdoutHandle{}.Send(seg)
	}
}
