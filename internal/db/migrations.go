package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations holds the goose migrations for the application database.
var Migrations fs.FS

func init() {
	var err error
	Migrations, err = fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
}
