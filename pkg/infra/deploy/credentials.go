package deploy

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// Credentials authenticate uploads to the package index.
type Credentials struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// credentialsFile is the on-disk TOML layout:
//
//	[registry]
//	username = "__token__"
//	password = "..."
type credentialsFile struct {
	Registry Credentials `toml:"registry"`
}

// LoadCredentials reads registry credentials from a TOML profile file.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read credentials file",
			goerr.V("path", path))
	}

	var file credentialsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse credentials file",
			goerr.V("path", path))
	}

	if file.Registry.Username == "" || file.Registry.Password == "" {
		return nil, goerr.New("credentials file is missing registry username or password",
			goerr.V("path", path))
	}

	return &file.Registry, nil
}
