package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/orcha/internal/profile"
	"github.com/hrygo/orcha/store"
	"github.com/hrygo/orcha/store/db/file"
	"github.com/hrygo/orcha/store/db/memory"
	"github.com/hrygo/orcha/store/db/postgres"
	"github.com/hrygo/orcha/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "file", "":
		driver, err = file.NewDB(profile)
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	case "memory":
		driver = memory.NewDB()
	default:
		return nil, errors.Errorf("unknown db driver %q: supported drivers are file, sqlite, postgres and memory", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
