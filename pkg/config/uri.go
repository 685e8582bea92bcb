package config

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/unidb-io/unidb/pkg/errors"
)

// ToURI renders the descriptor as a connection URI. For every descriptor that
// passes Validate and carries no Options entries, ParseURI(d.ToURI()) yields
// a descriptor equal to d. Options entries are intentionally not encoded.
func (d ConnectionDescriptor) ToURI() (string, error) {
	switch d.Backend {
	case BackendPostgres:
		return d.serverURI("postgres", d.Database, nil)
	case BackendMSSQL:
		// SQL Server URIs keep the database in the query string, matching
		// the form accepted by the driver.
		q := url.Values{}
		q.Set("database", d.Database)
		if d.IntegratedAuth {
			q.Set("trusted_connection", "true")
		}
		return d.serverURI("mssql", "", q)
	case BackendSQLite:
		if d.Path == "" {
			return "", errors.New(errors.KindConfig, "sqlite: path is required")
		}
		uri := "sqlite://" + escapeSQLitePath(d.Path)
		if d.TimeoutSeconds > 0 {
			uri += "?timeout=" + strconv.Itoa(d.TimeoutSeconds)
		}
		return uri, nil
	default:
		return "", errors.Newf(errors.KindUnsupportedBackend, "unknown backend %q", string(d.Backend))
	}
}

// serverURI builds a network-backend URI. dbPath becomes the URI path when
// non-empty; extra carries backend query parameters.
func (d ConnectionDescriptor) serverURI(scheme, dbPath string, extra url.Values) (string, error) {
	if d.Host == "" {
		return "", errors.Newf(errors.KindConfig, "%s: host is required", scheme)
	}

	u := url.URL{Scheme: scheme, Host: d.Host}
	if d.Port != 0 {
		u.Host = d.Host + ":" + strconv.Itoa(d.Port)
	}
	if dbPath != "" {
		u.Path = "/" + dbPath
	} else {
		u.Path = "/"
	}

	if d.Username != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.Username, d.Password)
		} else {
			u.User = url.User(d.Username)
		}
	}

	q := url.Values{}
	for key, values := range extra {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	if d.Backend == BackendPostgres && d.IntegratedAuth {
		q.Set("integrated_auth", "true")
	}
	if d.TimeoutSeconds > 0 {
		q.Set("timeout", strconv.Itoa(d.TimeoutSeconds))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ParseURI parses a connection URI back into a descriptor. It accepts the
// postgres/postgresql, mssql/sqlserver, and sqlite schemes.
func ParseURI(uri string) (ConnectionDescriptor, error) {
	if strings.HasPrefix(uri, "sqlite://") {
		return parseSQLiteURI(strings.TrimPrefix(uri, "sqlite://"))
	}

	u, err := url.Parse(uri)
	if err != nil {
		return ConnectionDescriptor{}, errors.Wrap(err, errors.KindConfig, "malformed connection URI")
	}

	backend, err := ParseBackend(u.Scheme)
	if err != nil {
		return ConnectionDescriptor{}, errors.Newf(errors.KindConfig, "unsupported URI scheme %q", u.Scheme)
	}

	d := ConnectionDescriptor{
		Backend: backend,
		Host:    u.Hostname(),
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return ConnectionDescriptor{}, errors.Newf(errors.KindConfig, "invalid port %q", p)
		}
		d.Port = port
	}
	if u.User != nil {
		d.Username = u.User.Username()
		d.Password, _ = u.User.Password()
	}

	q := u.Query()
	if t := q.Get("timeout"); t != "" {
		seconds, err := strconv.Atoi(t)
		if err != nil {
			return ConnectionDescriptor{}, errors.Newf(errors.KindConfig, "invalid timeout %q", t)
		}
		d.TimeoutSeconds = seconds
	}

	switch backend {
	case BackendPostgres:
		d.Database = strings.TrimPrefix(u.Path, "/")
		d.IntegratedAuth = q.Get("integrated_auth") == "true"
	case BackendMSSQL:
		d.Database = q.Get("database")
		d.IntegratedAuth = q.Get("trusted_connection") == "true"
	}

	if err := d.Validate(); err != nil {
		return ConnectionDescriptor{}, err
	}
	return d, nil
}

// escapeSQLitePath percent-encodes the characters that would be read back
// as a query-string separator or an escape sequence. The rest of the path,
// including "/" and ":memory:", stays literal so file URIs remain readable.
func escapeSQLitePath(p string) string {
	p = strings.ReplaceAll(p, "%", "%25")
	return strings.ReplaceAll(p, "?", "%3F")
}

func parseSQLiteURI(rest string) (ConnectionDescriptor, error) {
	d := ConnectionDescriptor{Backend: BackendSQLite, Path: rest}
	if i := strings.LastIndex(rest, "?"); i >= 0 {
		q, err := url.ParseQuery(rest[i+1:])
		if err == nil {
			d.Path = rest[:i]
			if t := q.Get("timeout"); t != "" {
				seconds, err := strconv.Atoi(t)
				if err != nil {
					return ConnectionDescriptor{}, errors.Newf(errors.KindConfig, "invalid timeout %q", t)
				}
				d.TimeoutSeconds = seconds
			}
		}
	}
	if path, err := url.PathUnescape(d.Path); err == nil {
		d.Path = path
	}
	if err := d.Validate(); err != nil {
		return ConnectionDescriptor{}, err
	}
	return d, nil
}
