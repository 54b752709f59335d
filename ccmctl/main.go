// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bbnote/goccm"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	exitProgram chan bool

	logger *logrus.Logger
)

func setUpSignalHandler() {
	signals := make(chan os.Signal, 1)
	exitProgram = make(chan bool, 1)

	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		exitProgram <- true
	}()

}

func initLogger() {
	formatter := &prefixed.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}

	logger = logrus.New()

	logger.SetFormatter(formatter)
	logger.SetOutput(os.Stderr)
}

// readLines feeds the lines of r into a channel that is closed at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Error("error while reading commands: ", err)
		}
	}()

	return lines
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Infof("serving metrics on %s/metrics", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint stopped: ", err)
	}
}

func main() {
	initLogger()
	goccm.SetLogger(logger)

	flagLogLevel := flag.Int("LogLevel", int(logrus.InfoLevel), "Logging verbosity [0 - 6]")
	flagSoc := flag.String("soc", "imx93", "SoC clock topology ["+strings.Join(goccm.SupportedSocs(), ", ")+"]")
	flagPlan := flag.String("plan", "", "Boot plan (YAML) applied after the SoC defaults")
	flagMaxDiv := flag.Uint("maxdiv", uint(goccm.MaxDivider), "Largest root divider")
	flagUngated := flag.Bool("ungated", false, "Allow rate changes on running roots")
	flagLockTimeout := flag.Duration("locktimeout", 0, "Bound on waiting for the clock tree (0 waits forever)")
	flagScript := flag.String("script", "", "Read commands from file instead of stdin")
	flagMetrics := flag.String("metrics", "", "Serve prometheus metrics on this address, e.g. :9100")

	flag.Parse()

	logger.SetLevel(logrus.Level(*flagLogLevel))

	topology := goccm.GetSocTopology(*flagSoc)
	if topology == nil {
		logger.Errorf("unknown soc %s", *flagSoc)
		os.Exit(-1)
	}

	if *flagMetrics != "" {
		go serveMetrics(*flagMetrics)
	}

	backend := goccm.NewSimBackend(len(topology.Clocks))

	config := goccm.NewTreeConfig(backend)
	config.MaxDivider = uint32(*flagMaxDiv)
	config.AllowUngatedRateChange = *flagUngated
	config.LockTimeout = *flagLockTimeout

	tree, err := goccm.NewClockTree(topology.Clocks, config)
	if err != nil {
		logger.Fatal("could not build clock tree: ", err)
	}

	if err := tree.Boot(&topology.Boot); err != nil {
		logger.Fatal("soc boot plan failed: ", err)
	}

	if *flagPlan != "" {
		plan, err := loadBootPlan(*flagPlan)
		if err != nil {
			logger.Fatal(err)
		}

		if err := tree.Boot(plan); err != nil {
			logger.Fatal("boot plan failed: ", err)
		}
	}

	input := io.Reader(os.Stdin)

	if *flagScript != "" {
		file, err := os.Open(*flagScript)
		if err != nil {
			logger.Fatal(err)
		}
		defer file.Close()

		input = file
	}

	setUpSignalHandler()

	sh := &shell{tree: tree, backend: backend, out: os.Stdout}
	lines := readLines(input)
	failed := 0
	start := time.Now()

	for exitLoop := false; !exitLoop; {
		select {
		case line, ok := <-lines:
			if !ok {
				exitLoop = true
				break
			}

			if err := sh.exec(line); err != nil {
				failed++
				logger.Errorf("%s: %v", strings.TrimSpace(line), err)
			}

		case <-exitProgram:
			exitLoop = true
		}
	}

	logger.Debugf("session finished after %v, %d backend writes", time.Since(start), len(backend.Ops()))

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d command(s) failed\n", failed)
		os.Exit(1)
	}
}
