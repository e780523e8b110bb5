// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counter counts billable items recorded for a project since a point in
// time. A project id is the tenant scope used by the projections.
type Counter interface {
	CountForProject(ctx context.Context, projectID string, since time.Time) (int64, error)
}

// Counters groups the counting backends per (unit, backend) so the
// service can dispatch on a metering decision.
type Counters struct {
	TracesPrimary  Counter
	TracesFallback Counter
	EventsPrimary  Counter
	EventsFallback Counter
	// BillingEvents serves tenants switched to the dedicated billing
	// events stream via the feature flag, regardless of backend.
	BillingEvents Counter
}

// CassandraCounter counts rows in an analytical-store table for a tenant.
type CassandraCounter struct {
	session   *gocql.Session
	table     string
	timeField string
}

// NewCassandraTraceCounter counts trace summaries in the analytical store
func NewCassandraTraceCounter(session *gocql.Session) *CassandraCounter {
	return &CassandraCounter{session: session, table: "trace_summaries", timeField: "occurred_at"}
}

// NewCassandraEventCounter counts stored spans (billable events) in the
// analytical store
func NewCassandraEventCounter(session *gocql.Session) *CassandraCounter {
	return &CassandraCounter{session: session, table: "stored_spans", timeField: "start_time"}
}

// CountForProject counts rows for the project since the given time
func (c *CassandraCounter) CountForProject(ctx context.Context, projectID string, since time.Time) (int64, error) {
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE tenant_id = ? AND %s >= ? ALLOW FILTERING",
		c.table, c.timeField)

	var count int64
	err := c.session.Query(query, projectID, since).WithContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s for project %s: %w", c.table, projectID, err)
	}
	return count, nil
}

// MongoCounter counts documents in a search-store collection for a
// project. It backs the fallback backend and the billing events stream.
type MongoCounter struct {
	collection *mongo.Collection
	timeField  string
}

// NewMongoCounter counts documents in the named collection
func NewMongoCounter(db *mongo.Database, collection, timeField string) *MongoCounter {
	return &MongoCounter{collection: db.Collection(collection), timeField: timeField}
}

// CountForProject counts documents for the project since the given time
func (c *MongoCounter) CountForProject(ctx context.Context, projectID string, since time.Time) (int64, error) {
	filter := bson.M{
		"project_id": projectID,
		c.timeField:  bson.M{"$gte": since},
	}

	count, err := c.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s for project %s: %w", c.collection.Name(), projectID, err)
	}
	return count, nil
}
