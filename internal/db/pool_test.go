package db

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	assert.Equal(t,
		"postgres://postgres@localhost:5432/workoutlog",
		ConnString(NewDBPoolParams{DBHost: "localhost", DBPort: "5432", DBName: "workoutlog"}),
	)
	assert.Equal(t,
		"postgres://lifter:p%40ss@db:5433/workoutlog",
		ConnString(NewDBPoolParams{DBHost: "db", DBPort: "5433", DBName: "workoutlog", DBUser: "lifter", DBPassword: "p@ss"}),
	)
}

func TestConnString_Parses(t *testing.T) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(NewDBPoolParams{
		DBHost:     "db",
		DBPort:     "5433",
		DBName:     "workoutlog",
		DBUser:     "lifter",
		DBPassword: "p@ss",
	}))
	require.NoError(t, err)
	assert.Equal(t, "db", poolConfig.ConnConfig.Host)
	assert.Equal(t, uint16(5433), poolConfig.ConnConfig.Port)
	assert.Equal(t, "lifter", poolConfig.ConnConfig.User)
	assert.Equal(t, "p@ss", poolConfig.ConnConfig.Password)
	assert.Equal(t, "workoutlog", poolConfig.ConnConfig.Database)
}
