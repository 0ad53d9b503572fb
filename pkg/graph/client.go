// Package graph projects merge lineage into Memgraph/Neo4j over Bolt
package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Config points the lineage projection at a Bolt endpoint
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

func (c Config) uri() string {
	return fmt.Sprintf("bolt://%s:%d", c.Host, c.Port)
}

func (c Config) auth() neo4j.AuthToken {
	if c.Username == "" {
		return neo4j.NoAuth()
	}
	return neo4j.BasicAuth(c.Username, c.Password, "")
}

// Client runs managed lineage transactions
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	logger   ectologger.Logger
}

func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.uri(), cfg.auth())
	if err != nil {
		return nil, fmt.Errorf("failed to create lineage graph driver for %s: %w", cfg.uri(), err)
	}
	logger.Infof("Lineage graph configured at %s", cfg.uri())

	return &Client{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// VerifyConnectivity is the readiness check for the lineage graph
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *Client) run(ctx context.Context, mode neo4j.AccessMode, work neo4j.ManagedTransactionWork) (any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	if mode == neo4j.AccessModeWrite {
		return session.ExecuteWrite(ctx, work)
	}
	return session.ExecuteRead(ctx, work)
}

func (c *Client) ExecuteWrite(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.ExecuteWrite")
	defer span.End()
	return c.run(ctx, neo4j.AccessModeWrite, work)
}

func (c *Client) ExecuteRead(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.ExecuteRead")
	defer span.End()
	return c.run(ctx, neo4j.AccessModeRead, work)
}
