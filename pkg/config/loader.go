package config

import (
	"github.com/spf13/viper"

	"github.com/unidb-io/unidb/pkg/errors"
)

// Connections is a set of named, validated connection descriptors loaded
// from a configuration file.
type Connections map[string]ConnectionDescriptor

// Get returns the named descriptor.
func (c Connections) Get(name string) (ConnectionDescriptor, error) {
	d, ok := c[name]
	if !ok {
		return ConnectionDescriptor{}, errors.Newf(errors.KindConfig, "connection %q not defined", name)
	}
	return d, nil
}

// Load reads a configuration file with a top-level `connections` table of
// named descriptors and validates every entry. The format is inferred from
// the file extension (yaml, toml, or json).
//
//	connections:
//	  analytics:
//	    type: postgres
//	    host: db.internal
//	    port: 5432
//	    database: analytics
//	    username: reporter
//	    password: secret
//	  scratch:
//	    type: sqlite
//	    path: ":memory:"
func Load(path string) (Connections, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "failed to read configuration file")
	}

	raw := make(map[string]ConnectionDescriptor)
	if err := v.UnmarshalKey("connections", &raw); err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "failed to decode connections table")
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.KindConfig, "configuration defines no connections")
	}

	conns := make(Connections, len(raw))
	for name, d := range raw {
		// Aliases like "postgresql" in the type field normalize here.
		backend, err := ParseBackend(string(d.Backend))
		if err != nil {
			return nil, errors.Wrap(err, errors.KindConfig, "connection "+name)
		}
		d.Backend = backend

		if err := d.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.KindConfig, "connection "+name)
		}
		conns[name] = d
	}

	return conns, nil
}
