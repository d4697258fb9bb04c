package artifact

import (
	"strings"

	"gorm.io/gorm"

	platformerrors "adventure-server-go/internal/platform/errors"
)

// Driver identifiers supported by the artifact store.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// NewStore creates an artifact store based on the provided configuration.
func NewStore(cfg Config, deps Dependencies) (Store, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		if deps.SQLiteDB == nil {
			return nil, platformerrors.New(platformerrors.KindConfig, "artifact.new_store", "sqlite driver requires database handle")
		}
		return NewSQLite(deps.SQLiteDB)
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, platformerrors.New(platformerrors.KindConfig, "artifact.new_store", "unsupported artifact store driver: "+cfg.Driver)
	}
}

func notFound(op, name string) error {
	return platformerrors.New(platformerrors.KindNotFound, op, "artifact not found: "+name)
}
