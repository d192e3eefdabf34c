package service

import (
	"go.uber.org/zap"

	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

// storageFailure logs the cause and returns the generic storage error.
func storageFailure(logger *zap.Logger, op string, err error) error {
	logger.Error("storage failure", zap.String("op", op), zap.Error(err))
	return apperrors.NewStorageError(err)
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
