package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Newはアプリ共通のロガーを作る。不正なlevelはinfo扱い。
func New(level string, json bool) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, json)
}

func NewWithOutput(w io.Writer, level string, json bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
		logger.Warnf("invalid LOG_LEVEL %q, using %s", level, lv)
	}
	logger.SetLevel(lv)

	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// テスト用。何も出力しない。
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
