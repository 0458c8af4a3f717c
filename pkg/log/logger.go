package log

import (
	"io"
	"log/slog"
)

// SetupLogger は slog のデフォルトロガーを JSON ハンドラで設定し、
// cockroachdb/errors のスタックトレースを付与するハンドラで包みます。
func SetupLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	ops := slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr.Key = "severity"
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops))
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ToLogLevel は設定値の文字列をLevelに変換します。
// 不正な値は設定検証で弾かれている前提なのでパニックします。
func ToLogLevel(level string) Level {
	l, err := ParseLevel(level)
	if err != nil {
		panic(err)
	}
	return l
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
