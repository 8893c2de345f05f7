package config

import (
	"github.com/m-mizutani/drover/pkg/infra/deploy"
	"github.com/urfave/cli/v3"
)

// Deploy holds package-index deployment configuration
type Deploy struct {
	CredentialsFile string
	Username        string
	Password        string
}

// Flags returns CLI flags for deployment configuration
func (c *Deploy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "deploy-credentials",
			Usage:       "TOML file with [registry] username/password",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("DROVER_DEPLOY_CREDENTIALS"),
		},
		&cli.StringFlag{
			Name:        "registry-username",
			Usage:       "Package index username, overrides the credentials file",
			Destination: &c.Username,
			Sources:     cli.EnvVars("DROVER_REGISTRY_USERNAME"),
		},
		&cli.StringFlag{
			Name:        "registry-password",
			Usage:       "Package index password, overrides the credentials file",
			Destination: &c.Password,
			Sources:     cli.EnvVars("DROVER_REGISTRY_PASSWORD"),
		},
	}
}

// Enabled reports whether any credential source is configured.
func (c *Deploy) Enabled() bool {
	return c.CredentialsFile != "" || (c.Username != "" && c.Password != "")
}

// Configure resolves the deployment credentials. Environment/flag values
// take precedence over the credentials file.
func (c *Deploy) Configure() (*deploy.Credentials, error) {
	if c.Username != "" && c.Password != "" {
		return &deploy.Credentials{
			Username: c.Username,
			Password: c.Password,
		}, nil
	}
	return deploy.LoadCredentials(c.CredentialsFile)
}
