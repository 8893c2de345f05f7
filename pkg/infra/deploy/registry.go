// Package deploy uploads distribution artifacts to a package index.
package deploy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// RegistryClient implements interfaces.Deployer against an HTTP package
// index. Each artifact is uploaded with a single authenticated PUT; there
// is no rollback or partial-deploy handling.
type RegistryClient struct {
	httpClient *http.Client
	creds      *Credentials
}

// NewRegistryClient creates a deployer using the given credentials.
func NewRegistryClient(creds *Credentials) *RegistryClient {
	return &RegistryClient{
		httpClient: http.DefaultClient,
		creds:      creds,
	}
}

// Deploy uploads every artifact of the deployment to the index.
func (c *RegistryClient) Deploy(ctx context.Context, dep *interfaces.Deployment) error {
	logger := ctxlog.From(ctx)

	if len(dep.Artifacts) == 0 {
		return goerr.New("no distribution artifacts to deploy",
			goerr.T(types.TagDeploy),
			goerr.V("index_url", dep.IndexURL),
		)
	}

	for _, artifact := range dep.Artifacts {
		if err := c.upload(ctx, dep, artifact); err != nil {
			return err
		}
		logger.Info("Uploaded distribution artifact",
			"artifact", artifact,
			"index_url", dep.IndexURL,
			"tag", dep.Tag,
		)
	}

	return nil
}

func (c *RegistryClient) upload(ctx context.Context, dep *interfaces.Deployment, artifact string) error {
	file, err := os.Open(artifact)
	if err != nil {
		return goerr.Wrap(err, "failed to open distribution artifact",
			goerr.T(types.TagDeploy),
			goerr.V("artifact", artifact),
		)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return goerr.Wrap(err, "failed to stat distribution artifact",
			goerr.T(types.TagDeploy),
			goerr.V("artifact", artifact),
		)
	}

	target, err := url.JoinPath(dep.IndexURL, filepath.Base(artifact))
	if err != nil {
		return goerr.Wrap(err, "invalid index URL",
			goerr.T(types.TagDeploy),
			goerr.V("index_url", dep.IndexURL),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, file)
	if err != nil {
		return goerr.Wrap(err, "failed to create upload request",
			goerr.T(types.TagDeploy),
			goerr.V("url", target),
		)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	if dep.Tag != "" {
		req.Header.Set("X-Release-Tag", dep.Tag)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "upload request failed",
			goerr.T(types.TagDeploy),
			goerr.V("url", target),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.New(fmt.Sprintf("unexpected status code %d from package index", resp.StatusCode),
			goerr.T(types.TagDeploy),
			goerr.V("url", target),
			goerr.V("status", resp.StatusCode),
		)
	}

	return nil
}
