package db

// Config carries connection settings for Open. Type selects the dialect
// (postgres, mysql, sqlite); lifetimes are in seconds, zero leaves the
// pool default in place.
type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}
