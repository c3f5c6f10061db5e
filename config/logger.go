package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"stylify/misc"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// Prepare builds program logger: informational messages go to stdout, errors
// to stderr, everything to optional log file. When report is requested file
// log is always written at debug level and stored in the report.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {
	stdout, stderr := consoleCores(conf.ConsoleLogger.Level)

	level, mode := conf.FileLogger.Level, conf.FileLogger.Mode
	if rpt != nil {
		level, mode = "debug", "overwrite"
	}
	file, redirected, err := fileCore(conf.FileLogger.Destination, level, mode, rpt)
	if err != nil {
		return nil, err
	}

	log := zap.New(zapcore.NewTee(stderr, stdout, file), zap.AddCaller())
	if redirected != "" {
		log.Warn("Log file was redirected to new location", zap.String("location", redirected))
	}
	return log.Named(misc.GetAppName()), nil
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

func consoleCores(level string) (stdout, stderr zapcore.Core) {
	var lowest zapcore.Level
	switch level {
	case "normal":
		lowest = zapcore.InfoLevel
	case "debug":
		lowest = zapcore.DebugLevel
	default:
		return zapcore.NewNopCore(), zapcore.NewNopCore()
	}

	stdout = zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig(os.Stdout)),
		zapcore.Lock(os.Stdout),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lowest <= lvl && lvl < zapcore.ErrorLevel
		}))
	stderr = zapcore.NewCore(
		newEncoder(consoleEncoderConfig(os.Stderr)),
		zapcore.Lock(os.Stderr),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		}))
	return stdout, stderr
}

func openLog(name, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if mode == "append" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(name, flags, 0644)
}

// fileCore opens log file. When destination is not writable log goes to a
// temporary file and its name is returned as redirected.
func fileCore(destination, level, mode string, rpt *Report) (core zapcore.Core, redirected string, err error) {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "normal":
		lvl = zapcore.InfoLevel
	default:
		return zapcore.NewNopCore(), "", nil
	}

	// crash output goes next to the log, panics end up in the report
	if ef, err := openLog(filepath.Join(filepath.Dir(destination), misc.GetAppName()+"-panic.log"), mode); err == nil {
		setCrashOutput(ef, rpt)
	} else if ef, err = os.CreateTemp("", misc.GetAppName()+"-panic.*.log"); err == nil {
		setCrashOutput(ef, rpt)
	}

	f, err := openLog(destination, mode)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+".*.log"); err != nil {
			return nil, "", fmt.Errorf("unable to access file log destination (%s): %w", destination, err)
		}
		redirected = f.Name()
	}
	rpt.Store("final.log", f.Name())

	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zapcore.NewCore(enc, zapcore.Lock(f), zap.NewAtomicLevelAt(lvl)), redirected, nil
}

func setCrashOutput(f *os.File, rpt *Report) {
	defer f.Close()
	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err == nil {
		rpt.Store("panic.log", f.Name())
	}
}

// consoleEnc drops verbose error details (stack traces of wrapped errors)
// from console output.
type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		out = append(out, f)
	}
	return c.Encoder.EncodeEntry(ent, out)
}
