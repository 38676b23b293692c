package registry

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
)

// File is the registry file format
type File struct {
	Models []*Entry `json:"models" yaml:"models" toml:"models"`
}

// LoadFile loads a registry from YAML, JSON or TOML file,
// chosen by the file extension.
func LoadFile(path string) (*Registry, error) {
	f := new(File)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err = toml.Unmarshal([]byte(os.ExpandEnv(string(bs))), f); err != nil {
			return nil, errors.Wrapf(err, "unable to parse %s", path)
		}
	default:
		if err := configloader.UnmarshalAndExpand(path, f); err != nil {
			return nil, err
		}
	}
	if len(f.Models) == 0 {
		return nil, errors.Newf("no models in %s", path)
	}
	return New(f.Models)
}
