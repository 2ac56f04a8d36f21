package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"

	"github.com/facet-orm/facet/internal/orm/fieldtype"
)

// Config represents the facet configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Schema   string         `mapstructure:"schema"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// RedisConfig represents the optional entity cache configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// loadConfig loads facet.yml from the working directory
func loadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.url", "facet.db")
	v.SetDefault("schema", "schema.yml")

	v.SetConfigName("facet")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// SchemaFile is the on-disk shape of an entity schema
type SchemaFile struct {
	Entity string            `mapstructure:"entity"`
	Fields []SchemaFileField `mapstructure:"fields"`
}

// SchemaFileField is one field entry in a schema file
type SchemaFileField struct {
	Name       string `mapstructure:"name"`
	Type       string `mapstructure:"type"`
	MaxLen     int    `mapstructure:"maxlen"`
	MinLen     int    `mapstructure:"minlen"`
	Regex      string `mapstructure:"regex"`
	Mod        int    `mapstructure:"mod"`
	Prefix     string `mapstructure:"prefix"`
	Service    string `mapstructure:"service"`
	Permission string `mapstructure:"permission"`
	Generate   bool   `mapstructure:"generate"`
	Debug      bool   `mapstructure:"debug"`
}

// loadSchema reads a schema file into field descriptors
func loadSchema(path string) (string, []*fieldtype.Field, error) {
	if _, err := os.Stat(path); err != nil {
		return "", nil, fmt.Errorf("schema file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return "", nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var file SchemaFile
	if err := v.Unmarshal(&file); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal schema file: %w", err)
	}
	if file.Entity == "" {
		return "", nil, fmt.Errorf("schema file %s names no entity", path)
	}

	fields := make([]*fieldtype.Field, 0, len(file.Fields))
	for _, sf := range file.Fields {
		field := &fieldtype.Field{
			Name:       sf.Name,
			Type:       sf.Type,
			MaxLen:     sf.MaxLen,
			MinLen:     sf.MinLen,
			Mod:        sf.Mod,
			UUIDPrefix: sf.Prefix,
			Service:    sf.Service,
			Permission: sf.Permission,
			Generate:   sf.Generate,
			Debug:      sf.Debug,
		}
		if sf.Regex != "" {
			re, err := regexp.Compile(sf.Regex)
			if err != nil {
				return "", nil, fmt.Errorf("field %s: invalid regex: %w", sf.Name, err)
			}
			field.Regex = re
		}
		if err := field.Validate(); err != nil {
			return "", nil, err
		}
		fields = append(fields, field)
	}

	return file.Entity, fields, nil
}
