package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// TestQuery_UnsupportedColumnTypeIsHardFailure exercises decodeCell's default
// branch against a driver-returned type the schema never produces (a
// DATETIME scanned as time.Time), using a mocked connection since sqlite
// never hands back anything outside decodeCell's known cases.
func TestQuery_UnsupportedColumnTypeIsHardFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT created_at FROM node").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	_, err = Query(context.Background(), db, "SELECT created_at FROM node")
	assert.Error(t, err)
}

// TestQuery_BlobColumnIsHardFailure exercises the documented "blob columns
// are unsupported" contract: a column the driver declares as BLOB must fail
// even though its Go scan type ([]byte) is identical to a TEXT column's.
func TestQuery_BlobColumnIsHardFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("payload").OfType("BLOB", []byte(nil)),
	).AddRow([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	mock.ExpectQuery("SELECT payload FROM node").WillReturnRows(rows)

	_, err = Query(context.Background(), db, "SELECT payload FROM node")
	assert.Error(t, err)
}

// TestQuery_TextColumnScannedAsBytesStillSucceeds confirms the blob check
// doesn't regress the common case: drivers hand back []byte for TEXT
// columns too, and those must still decode as text, not fail.
func TestQuery_TextColumnScannedAsBytesStillSucceeds(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("name").OfType("VARCHAR", []byte(nil)),
	).AddRow([]byte("Root"))
	mock.ExpectQuery("SELECT name FROM node").WillReturnRows(rows)

	got, err := Query(context.Background(), db, "SELECT name FROM node")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, KindText, got[0].Values[0].Kind)
	assert.Equal(t, "Root", got[0].Values[0].Text)
}

func TestQuery_MockedQueryExecutionError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err = Query(context.Background(), db, "SELECT id FROM node")
	assert.Error(t, err)
}
