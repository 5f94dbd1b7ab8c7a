package xlog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timeKey         = "time"
	EncodingJson    = "json"
	EncodingConsole = "console"
	FileMode        = "file"
	StdoutMode      = "stdout"
)

var (
	levels = map[string]zapcore.Level{
		"debug": zap.DebugLevel,
		"info":  zap.InfoLevel,
		"warn":  zap.WarnLevel,
		"error": zap.ErrorLevel,
		"panic": zap.PanicLevel,
		"fatal": zap.FatalLevel,
	}

	mu      sync.RWMutex
	current *zap.Logger
)

// Conf configures the process wide logger.
type Conf struct {
	ServiceName string `json:",optional"`
	// Directory of the log file
	Path string `json:",optional"`
	// Log file name
	Filename string `json:",default=mojo.log"`
	// file or stdout
	Mode string `json:",default=stdout,options=file|stdout"`
	// json or console
	Encoding   string `json:",default=console,options=json|console"`
	TimeFormat string `json:",default=2006-01-02 15:04:05"`
	// debug, info, warn, error, panic, fatal
	Level    string `json:",default=info"`
	Compress bool   `json:",optional"`
	// Days to keep rotated files
	KeepDays int `json:",optional"`
	// Megabytes before rotation
	MaxSize int `json:",default=100"`
}

func init() {
	conf := Conf{}
	defaultConf(&conf)
	current = build(conf)
}

// Load replaces the global logger.
func Load(conf *Conf) {
	defaultConf(conf)
	logger := build(*conf)

	mu.Lock()
	defer mu.Unlock()

	current = logger
}

// Write returns the global logger.
func Write() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return current
}

// Sync flushes buffered log entries.
func Sync() error {
	return Write().Sync()
}

func build(conf Conf) *zap.Logger {
	opts := []zap.Option{
		zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel),
	}
	if len(conf.ServiceName) > 0 {
		opts = append(opts, zap.Fields(zap.String("service", conf.ServiceName)))
	}

	var ws zapcore.WriteSyncer
	switch conf.Mode {
	case FileMode:
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename: filepath.Join(conf.Path, conf.Filename),
			Compress: conf.Compress,
			MaxAge:   conf.KeepDays,
			MaxSize:  conf.MaxSize,
		})
	default:
		ws = zapcore.Lock(os.Stdout)
	}

	level, ok := levels[conf.Level]
	if !ok {
		level = zap.InfoLevel
	}
	return zap.New(zapcore.NewCore(encoder(conf), ws, level), opts...)
}

func encoder(conf Conf) zapcore.Encoder {
	econf := zap.NewProductionEncoderConfig()
	econf.TimeKey = timeKey
	econf.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(conf.TimeFormat))
	}
	econf.EncodeLevel = zapcore.LowercaseLevelEncoder
	if conf.Encoding == EncodingJson {
		return zapcore.NewJSONEncoder(econf)
	}
	if conf.Mode != FileMode {
		econf.EncodeLevel = zapcore.LowercaseColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(econf)
}

func defaultConf(conf *Conf) {
	if len(conf.Path) == 0 {
		wd, _ := os.Getwd()
		conf.Path = filepath.Join(wd, "logs")
	}
	if len(conf.Filename) == 0 {
		conf.Filename = "mojo.log"
	}
	if len(conf.Mode) == 0 {
		conf.Mode = StdoutMode
	}
	if len(conf.Encoding) == 0 {
		conf.Encoding = EncodingConsole
	}
	if len(conf.TimeFormat) == 0 {
		conf.TimeFormat = "2006-01-02 15:04:05"
	}
	if len(conf.Level) == 0 {
		conf.Level = "info"
	}
}
