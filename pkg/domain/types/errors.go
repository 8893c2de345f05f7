package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures along the stages of a matrix run. A tag on an
// error decides how far the failure propagates: provision and task failures
// are confined to their matrix entry, publish failures degrade to warnings,
// and deploy failures fail the whole run.
var (
	TagProvision = goerr.NewTag("provision")
	TagTask      = goerr.NewTag("task")
	TagPublish   = goerr.NewTag("publish")
	TagDeploy    = goerr.NewTag("deploy")
)
