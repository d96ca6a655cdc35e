// Package database holds the connection layer. It never constructs DDL; each
// source exports a schema snapshot and the planning happens elsewhere.
package database

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/pgplan/pgplan/schema"
)

// Config carries the connection settings for a live database source.
type Config struct {
	DbName   string
	User     string
	Password string
	Host     string
	Port     int
	Socket   string
	SslMode  string
}

// Source is one side of a plan: a live database or a directory of SQL files,
// exported as a schema snapshot.
type Source interface {
	ExportSchema() (*schema.Schema, error)
	Close() error
}

// ParseConfig reads connection settings from a YAML file. Unknown keys are
// rejected so a typoed setting fails loudly instead of silently using a
// default.
func ParseConfig(configFile string) (Config, error) {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return Config{}, err
	}

	var parsed struct {
		DbName   string `yaml:"dbname"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Socket   string `yaml:"socket"`
		SslMode  string `yaml:"sslmode"`
	}
	if err := yaml.UnmarshalStrict(buf, &parsed); err != nil {
		return Config{}, err
	}

	return Config{
		DbName:   parsed.DbName,
		User:     parsed.User,
		Password: parsed.Password,
		Host:     parsed.Host,
		Port:     parsed.Port,
		Socket:   parsed.Socket,
		SslMode:  parsed.SslMode,
	}, nil
}
