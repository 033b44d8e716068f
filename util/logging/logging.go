// Package logging configures the logrus standard logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Setup sets the level and writes to stdout and to filePath, rotated daily
// and kept for 14 days. An empty filePath logs to stdout only.
func Setup(level, filePath string) error {
	// 设置日志级别
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetReportCaller(true)

	// 设置日志格式
	log.SetFormatter(&log.TextFormatter{
		ForceColors:      false,
		FullTimestamp:    true,
		TimestampFormat:  time.RFC3339,
		DisableTimestamp: false,
	})

	if filePath == "" {
		log.SetOutput(os.Stdout)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return errors.Wrap(err, "create log dir")
	}
	writer, err := rotatelogs.New(
		filePath+".%Y%m%d",
		rotatelogs.WithLinkName(filePath),
		rotatelogs.WithMaxAge(time.Duration(14*24)*time.Hour),    // 保留14天
		rotatelogs.WithRotationTime(time.Duration(24)*time.Hour), // 每天分隔
	)
	if err != nil {
		return errors.Wrap(err, "failed to create rotatelogs")
	}

	// 设置将日志输出到控制台及文件
	log.SetOutput(io.MultiWriter(os.Stdout, writer))
	return nil
}
