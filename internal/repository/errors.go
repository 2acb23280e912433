package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"testgen_backend/internal/util"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// translateError 把驱动层错误映射到 util 中的错误分类
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	var mysqlErr *mysql.MySQLError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: duplicate record", util.ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: referenced record does not exist", util.ErrValidation)
	case errors.Is(err, gorm.ErrCheckConstraintViolated), isCheckViolation(err):
		return fmt.Errorf("%w: check constraint failed", util.ErrValidation)
	case errors.As(err, &mysqlErr):
		// 3819: MySQL CHECK，4025: MariaDB CONSTRAINT_FAILED，1062 未经翻译时的重复键
		switch mysqlErr.Number {
		case 1062:
			return fmt.Errorf("%w: duplicate record", util.ErrConflict)
		case 3819, 4025:
			return fmt.Errorf("%w: check constraint failed", util.ErrValidation)
		}
		return err
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return errors.Join(util.ErrUnavailable, err)
	}
	return err
}

func isCheckViolation(err error) bool {
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// mustAffect 更新或删除没有命中任何行时返回 ErrNotFound
func mustAffect(res *gorm.DB) error {
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
