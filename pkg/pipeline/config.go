package pipeline

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/segraph/pkg/errors"
)

// LoadConfig reads options from a TOML (.toml) or YAML (.yaml, .yml) file.
// Keys use the snake_case names of the Options fields; durations are strings
// such as "45s". Unknown keys are rejected.
func LoadConfig(path string) (Options, error) {
	var opts Options
	if err := errors.ValidateFilePath(path); err != nil {
		return opts, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &opts)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return opts, errors.New(errors.ErrCodeInvalidFormat, "%s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&opts); err != nil && err != io.EOF {
			return opts, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
		}
	default:
		return opts, errors.New(errors.ErrCodeInvalidFormat, "%s: unsupported config format (use .toml, .yaml or .yml)", path)
	}
	return opts, nil
}
