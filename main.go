/*
 * PDP10 - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	config "github.com/rcornwell/pdp10/config/configparser"
	"github.com/rcornwell/pdp10/console"
	"github.com/rcornwell/pdp10/pdp10/machine"
	"github.com/rcornwell/pdp10/pdp10/mmu"
	logger "github.com/rcornwell/pdp10/util/logger"
)

var Logger *slog.Logger

// cfg accumulates the values the "model"/"memory"/"history"/"attach"
// config keywords set, for New to pick up after LoadConfigFile returns.
type cfg struct {
	variant   mmu.Variant
	memWords  int
	histLen   int
	attach    map[string]string
}

func variantByName(name string) (mmu.Variant, error) {
	switch strings.ToUpper(name) {
	case "PDP6":
		return mmu.VariantPDP6, nil
	case "KA":
		return mmu.VariantKA, nil
	case "KA2":
		return mmu.VariantKATwoSeg, nil
	case "KI":
		return mmu.VariantKI, nil
	case "ITS":
		return mmu.VariantITS, nil
	case "BBN":
		return mmu.VariantBBN, nil
	default:
		return 0, fmt.Errorf("unknown CPU variant %q", name)
	}
}

// parseMemSize accepts a decimal word count with an optional "k" (x1024)
// or "m" (x1024*1024) suffix, e.g. "256k".
func parseMemSize(s string) (int, error) {
	s = strings.ToLower(s)
	mult := 1
	switch {
	case strings.HasSuffix(s, "m"):
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "k"):
		mult = 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size %q", s)
	}
	return n * mult, nil
}

// registerConfigHandlers wires the config keywords SPEC_FULL's grammar
// names into the configparser's registration table, the same pattern the
// teacher's device packages use from their init functions, just done
// inline here since there are no longer separate per-device packages.
func registerConfigHandlers(c *cfg) {
	config.RegisterOption("model", func(_ uint16, value string, _ []config.Option) error {
		v, err := variantByName(value)
		if err != nil {
			return err
		}
		c.variant = v
		return nil
	})
	config.RegisterOption("memory", func(_ uint16, value string, _ []config.Option) error {
		n, err := parseMemSize(value)
		if err != nil {
			return err
		}
		c.memWords = n
		return nil
	})
	config.RegisterOption("history", func(_ uint16, value string, _ []config.Option) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid history length %q", value)
		}
		c.histLen = n
		return nil
	})
	config.RegisterModel("attach", config.TypeOptions, func(_ uint16, device string, opts []config.Option) error {
		for _, opt := range opts {
			if opt.Name == "file" {
				c.attach[device] = opt.EqualOpt
				return nil
			}
		}
		return fmt.Errorf("attach %s: missing file=<path> option", device)
	})
}

func main() {
	optConfig := getopt.StringLong("config", 'c', "pdp10.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optVariant := getopt.StringLong("variant", 'v', "ka", "CPU variant: pdp6, ka, ka2, ki, its, bbn")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logWriter io.Writer
	if optLogFile != nil && *optLogFile != "" {
		file, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "can't create log file:", err)
			os.Exit(1)
		}
		logWriter = file
	}
	debug := false
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(logger.NewHandler(logWriter, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	Logger.Info("pdp10 starting")

	variant, err := variantByName(*optVariant)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	c := &cfg{variant: variant, attach: make(map[string]string)}

	if *optConfig != "" {
		if _, err := os.Stat(*optConfig); err == nil {
			registerConfigHandlers(c)
			if err := config.LoadConfigFile(*optConfig); err != nil {
				Logger.Error(err.Error())
				os.Exit(1)
			}
		} else {
			Logger.Info("no configuration file found, using defaults", "path", *optConfig)
		}
	}

	mach := machine.New(c.variant, c.memWords, Logger)
	if c.histLen > 0 {
		mach.SetHistoryLength(c.histLen)
	}

	con := console.New(mach, os.Stdin, os.Stdout, Logger)
	for dev, path := range c.attach {
		if _, err := con.Execute(fmt.Sprintf("attach %s %s", dev, path)); err != nil {
			Logger.Error("attach from config failed", "device", dev, "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		Logger.Info("shutting down")
		mach.Stop()
		cancel()
	}()

	if err := con.Run(ctx); err != nil && err != context.Canceled {
		Logger.Error(err.Error())
		os.Exit(1)
	}
}
