package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	r "github.com/quantopy-dev/quantopy/repos"
)

// ErrNotFound marks lookups for symbols or groups that do not exist.
var ErrNotFound = errors.New("not found")

type ServiceContext struct {
	Context            context.Context
	PostgresConnection *r.Postgres
	Logger             zerolog.Logger
	Workers            int
	BatchSize          int
}
