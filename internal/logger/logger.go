package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

// Log — общий логгер приложения. До вызова Init пишет текстом на уровне info.
var Log = logrus.New()

// Init настраивает уровень и формат логов: JSON для production, текст для development.
func Init(level string, production bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if production {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	SetTextFormatter()
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Failure пишет отказ операции: штатные отказы бизнес-правил идут в info,
// инфраструктурные сбои в error.
func Failure(entry *logrus.Entry, err error, msg string) {
	entry = entry.WithError(err).WithField("kind", apperror.KindOf(err))
	if apperror.IsExpected(err) {
		entry.Info(msg)
		return
	}
	entry.Error(msg)
}
