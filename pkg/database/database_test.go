package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/example/shoppurs/pkg/apperr"
)

func TestPing(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	// gorm pings once while opening
	mock.ExpectPing()
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), GormConfig(zap.NewNop()))
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, Ping(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, Ping(context.Background(), db))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(fmt.Errorf("commit: %w", &mysqldrv.MySQLError{Number: 1213, Message: "Deadlock found"})))
	assert.True(t, IsConflict(&mysqldrv.MySQLError{Number: 1205}))
	assert.False(t, IsConflict(&mysqldrv.MySQLError{Number: 1062}))
	assert.True(t, IsConflict(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsConflict(errors.New("boom")))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	conflict := Classify(&pgconn.PgError{Code: "40P01"})
	assert.Equal(t, apperr.KindTransactionConflict, apperr.KindOf(conflict))

	internal := Classify(errors.New("driver: bad connection"))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(internal))

	typed := apperr.New(apperr.KindEmptyCart, apperr.MsgEmptyCart)
	assert.Same(t, typed, Classify(typed))
}
