package mongo

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"go.mongodb.org/mongo-driver/mongo/options"
)

type Config struct {
	Host   string
	Port   string
	DBName string
	User   string
	Pass   string
}

// ConfigFromEnv reads MONGO_HOST, MONGO_PORT, MONGO_DB_NAME, MONGO_USER and
// MONGO_PASS. Port and database default to "27017" and "censorship".
func ConfigFromEnv() *Config {
	conf := &Config{
		Host:   os.Getenv("MONGO_HOST"),
		Port:   os.Getenv("MONGO_PORT"),
		DBName: os.Getenv("MONGO_DB_NAME"),
		User:   os.Getenv("MONGO_USER"),
		Pass:   os.Getenv("MONGO_PASS"),
	}
	if conf.Port == "" {
		conf.Port = "27017"
	}
	if conf.DBName == "" {
		conf.DBName = "censorship"
	}

	return conf
}

// IsValid requires an address and a database. Credentials are optional but
// must come as a pair.
func (c *Config) IsValid() bool {
	if c.Host == "" || c.Port == "" || c.DBName == "" {
		return false
	}
	return (c.User == "") == (c.Pass == "")
}

func (c Config) String() string {
	c.Pass = strings.Repeat("*", len([]rune(c.Pass)))
	return fmt.Sprintf("%#v", c)
}

func (c *Config) conString() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/",
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Pass)
	}
	return u.String()
}

func (c *Config) Options() *options.ClientOptions {
	return options.Client().ApplyURI(c.conString())
}
