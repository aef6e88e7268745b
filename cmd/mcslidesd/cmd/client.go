package cmd

import (
	"fmt"

	"github.com/materials-commons/mcslides/pkg/config"
	"github.com/materials-commons/mcslides/pkg/slidesclient"
)

var serverURL string

// newClient points at --server, then MCSLIDES_URL, then the local daemon on the configured port.
func newClient() (*slidesclient.Client, error) {
	if serverURL != "" {
		return slidesclient.NewClient(serverURL), nil
	}

	c, err := config.LoadConfiger(cfgFile)
	if err != nil {
		return nil, err
	}

	url := c.GetKeyWithDefault(config.ServerURLKey,
		fmt.Sprintf("http://localhost:%d", c.GetIntKeyWithDefault(config.PortKey, 1360)))
	return slidesclient.NewClient(url), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "mcslidesd URL for client commands (default MCSLIDES_URL or http://localhost:<port>)")
}
