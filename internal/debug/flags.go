// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package debug

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sunyihoo/evm-codec/internal/flags"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value:    2,
		Category: flags.LoggingCategory,
	}
	vmoduleFlag = &cli.StringFlag{
		Name:     "log.vmodule",
		Usage:    "Per-module verbosity as <pattern>=<level> pairs (e.g. decode/*=5,fetch=4)",
		Category: flags.LoggingCategory,
	}
	formatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log format: terminal, logfmt or json",
		Value:    "terminal",
		Category: flags.LoggingCategory,
	}
	fileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Also write logs to this file",
		Category: flags.LoggingCategory,
	}
	rotateFlag = &cli.BoolFlag{
		Name:     "log.rotate",
		Usage:    "Rotate the log file",
		Category: flags.LoggingCategory,
	}
	maxSizeFlag = &cli.IntFlag{
		Name:     "log.maxsize",
		Usage:    "Size in MB at which a rotated log file is cut",
		Value:    100,
		Category: flags.LoggingCategory,
	}
	maxBackupsFlag = &cli.IntFlag{
		Name:     "log.maxbackups",
		Usage:    "Number of rotated log files to keep",
		Value:    10,
		Category: flags.LoggingCategory,
	}
	maxAgeFlag = &cli.IntFlag{
		Name:     "log.maxage",
		Usage:    "Days to keep rotated log files",
		Value:    30,
		Category: flags.LoggingCategory,
	}
	compressFlag = &cli.BoolFlag{
		Name:     "log.compress",
		Usage:    "Gzip rotated log files",
		Category: flags.LoggingCategory,
	}
	pprofFlag = &cli.BoolFlag{
		Name:     "pprof",
		Usage:    "Serve pprof and the fetch metrics over HTTP",
		Category: flags.LoggingCategory,
	}
	pprofAddrFlag = &cli.StringFlag{
		Name:     "pprof.addr",
		Usage:    "Listening interface of the pprof server",
		Value:    "127.0.0.1",
		Category: flags.LoggingCategory,
	}
	pprofPortFlag = &cli.IntFlag{
		Name:     "pprof.port",
		Usage:    "Listening port of the pprof server",
		Value:    6060,
		Category: flags.LoggingCategory,
	}
	cpuProfileFlag = &cli.StringFlag{
		Name:     "pprof.cpuprofile",
		Usage:    "Write a CPU profile of the run to this file",
		Category: flags.LoggingCategory,
	}
)

// Flags are the logging and profiling flags of every tool.
// Flags 是所有工具共用的日志与性能分析标志。
var Flags = []cli.Flag{
	verbosityFlag, vmoduleFlag, formatFlag,
	fileFlag, rotateFlag, maxSizeFlag, maxBackupsFlag, maxAgeFlag, compressFlag,
	pprofFlag, pprofAddrFlag, pprofPortFlag, cpuProfileFlag,
}

// logFile is the open log file or rotating logger, closed by Exit.
var logFile io.WriteCloser

// Setup installs the default logger and starts profiling as requested by the
// flags. Call it from the app's Before hook.
// Setup 根据标志安装默认日志记录器并启动性能分析，应在 Before 钩子中调用。
func Setup(ctx *cli.Context) error {
	file, err := openLogFile(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize file logger: %v", err)
	}
	logFile = file

	handler, err := newHandler(ctx.String(formatFlag.Name), file)
	if err != nil {
		return err
	}
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))
	if err := glogger.Vmodule(ctx.String(vmoduleFlag.Name)); err != nil {
		return fmt.Errorf("invalid --%s: %v", vmoduleFlag.Name, err)
	}
	log.SetDefault(log.NewLogger(glogger))
	if file != nil {
		log.Info("Logging to file", "location", ctx.String(fileFlag.Name), "rotate", ctx.Bool(rotateFlag.Name))
	}

	if path := ctx.String(cpuProfileFlag.Name); path != "" {
		if err := Handler.StartCPUProfile(path); err != nil {
			return err
		}
	}
	if ctx.Bool(pprofFlag.Name) {
		StartPProf(net.JoinHostPort(ctx.String(pprofAddrFlag.Name), strconv.Itoa(ctx.Int(pprofPortFlag.Name))))
	}
	return nil
}

// openLogFile returns the log file selected by the flags, or nil. Rotation
// without a file name makes lumberjack pick <process>-lumberjack.log in the
// temp directory.
func openLogFile(ctx *cli.Context) (io.WriteCloser, error) {
	path := ctx.String(fileFlag.Name)
	if path != "" {
		if err := validateLogLocation(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}
	if ctx.Bool(rotateFlag.Name) {
		return &lumberjack.Logger{
			Filename:   path,
			MaxSize:    ctx.Int(maxSizeFlag.Name),
			MaxBackups: ctx.Int(maxBackupsFlag.Name),
			MaxAge:     ctx.Int(maxAgeFlag.Name),
			Compress:   ctx.Bool(compressFlag.Name),
		}, nil
	}
	if path == "" {
		return nil, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// newHandler builds the handler writing to stderr and, if given, file.
// Terminal output is colored when stderr is a terminal.
func newHandler(format string, file io.WriteCloser) (slog.Handler, error) {
	var (
		stderr   io.Writer = os.Stderr
		useColor bool
	)
	if format == "" || format == "terminal" {
		fd := os.Stderr.Fd()
		useColor = (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("TERM") != "dumb"
		if useColor {
			stderr = colorable.NewColorableStderr()
		}
	}
	output := stderr
	if file != nil {
		output = io.MultiWriter(file, stderr)
	}
	switch format {
	case "", "terminal":
		return log.NewTerminalHandler(output, useColor), nil
	case "logfmt":
		return log.LogfmtHandler(output), nil
	case "json":
		return log.JSONHandler(output), nil
	}
	return nil, fmt.Errorf("unknown log format: %v", format)
}

// StartPProf starts the pprof HTTP server. The metrics registry, which holds
// the fetch meters, is exposed under /debug/metrics.
// StartPProf 启动 pprof HTTP 服务器。
func StartPProf(address string) {
	// Meter rates are only ticked once metrics are enabled.
	metrics.Enable()
	exp.Exp(metrics.DefaultRegistry)
	log.Info("Starting pprof server", "addr", fmt.Sprintf("http://%s/debug/pprof", address))
	go func() {
		if err := http.ListenAndServe(address, nil); err != nil {
			log.Error("Failure in running pprof server", "err", err)
		}
	}()
}

// Exit stops the CPU profile and closes the log file.
func Exit() {
	Handler.StopCPUProfile()
	if logFile != nil {
		logFile.Close()
	}
}

// validateLogLocation checks that a log file can be created in path.
func validateLogLocation(path string) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return fmt.Errorf("error creating the directory: %w", err)
	}
	f, err := os.CreateTemp(path, "probe")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}
