package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	apperrors "github.com/Xeladesign/shok/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// classify turns a store error into an AppError so callers can tell
// transient failures from authorization and validation failures.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, msg, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn):
		return apperrors.Wrap(apperrors.KindUnavailable, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01", pgErr.Code == "53300":
			return apperrors.Wrap(apperrors.KindUnavailable, msg, err)
		case pgErr.Code == "42501":
			return apperrors.Wrap(apperrors.KindAuthorization, msg, err)
		case pgErr.Code == "23505":
			return apperrors.Wrap(apperrors.KindConflict, msg, err)
		case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
			return apperrors.Wrap(apperrors.KindValidation, msg, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.Wrap(apperrors.KindUnavailable, msg, err)
	}
	return apperrors.Wrap(apperrors.KindInternal, msg, err)
}
