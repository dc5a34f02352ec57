package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var std = logrus.New()

func init() {
	std.Formatter = &prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	}
	std.Out = os.Stdout
	std.Level = logrus.InfoLevel
}

func SetLevel(level string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		std.Warnf("invalid log level %s, keep using info", level)
		lv = logrus.InfoLevel
	}
	std.SetLevel(lv)
}

func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func Debugf(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	std.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}

func Debugln(args ...interface{}) {
	std.Debugln(args...)
}

func Infoln(args ...interface{}) {
	std.Infoln(args...)
}

func Warnln(args ...interface{}) {
	std.Warnln(args...)
}

func Errorln(args ...interface{}) {
	std.Errorln(args...)
}

func Fatalln(args ...interface{}) {
	std.Fatalln(args...)
}
