package config

import "github.com/urfave/cli/v3"

// Webhook holds webhook receiver configuration
type Webhook struct {
	Secret string
}

// Flags returns CLI flags for webhook configuration
func (c *Webhook) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "webhook-secret",
			Usage:       "HMAC secret for webhook signature verification",
			Required:    true,
			Destination: &c.Secret,
			Sources:     cli.EnvVars("DROVER_WEBHOOK_SECRET"),
		},
	}
}
