package providers

import (
	"errors"
	"fmt"

	"github.com/gookit/validate"

	"musicwordle/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks the struct tags first, then the rules that depend on the
// selected storage driver.
func (v *CnfValidator) Validate() error {
	vd := validate.Struct(v.conf)
	if !vd.Validate() {
		return fmt.Errorf("invalid config: %w", vd.Errors)
	}

	s := v.conf.Storage
	switch s.Driver {
	case "memory":
		if s.FilePath != "" && s.SaveInterval <= 0 {
			return errors.New("invalid config: storage.saveInterval is required with storage.filePath")
		}
		return v.validateSpotify()
	case "sqlite":
		if s.SQLitePath == "" {
			return errors.New("invalid config: storage.sqlitePath is required for the sqlite driver")
		}
	case "mongo":
		if s.MongoURI == "" || s.MongoDatabase == "" {
			return errors.New("invalid config: storage.mongoURI and storage.mongoDatabase are required for the mongo driver")
		}
	}
	if s.ArchiveDir != "" {
		return fmt.Errorf("invalid config: storage.archiveDir is not supported by the %s driver", s.Driver)
	}
	return v.validateSpotify()
}

func (v *CnfValidator) validateSpotify() error {
	if (v.conf.Spotify.ClientID == "") != (v.conf.Spotify.ClientSecret == "") {
		return errors.New("invalid config: spotify.clientID and spotify.clientSecret must be set together")
	}
	return nil
}
