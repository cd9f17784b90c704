// internal/authz/spicedb/enforcer.go
package spicedb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookgate/internal/authz"
	"bookgate/internal/observability/logging"
	"bookgate/internal/observability/metrics"

	v1pb "github.com/authzed/authzed-go/proto/authzed/api/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const bulkCheckEndpoint = "spicedb/check-bulk"

// Checker is the subset of the SpiceDB permissions service used here
type Checker interface {
	CheckBulkPermissions(ctx context.Context, in *v1pb.CheckBulkPermissionsRequest, opts ...grpc.CallOption) (*v1pb.CheckBulkPermissionsResponse, error)
}

// Config holds SpiceDB enforcer configuration
type Config struct {
	// Endpoint is the SpiceDB endpoint
	Endpoint string

	// Insecure indicates whether to use an insecure connection
	Insecure bool

	// Token is the SpiceDB authentication token
	Token string

	// ResourceID is the object id checked for every rule; the rule object
	// is used as the SpiceDB resource type
	ResourceID string

	// SubjectType is the SpiceDB subject type
	SubjectType string

	// Timeout bounds each round trip
	Timeout time.Duration
}

// Enforcer implements authz.Enforcer with SpiceDB permission checks
type Enforcer struct {
	checker     Checker
	resourceID  string
	subjectType string
	timeout     time.Duration
	logger      *logging.Logger
	metrics     *metrics.Collector
}

var _ authz.Enforcer = (*Enforcer)(nil)

// Client is a SpiceDB permissions client owning its gRPC connection
type Client struct {
	v1pb.PermissionsServiceClient
	conn *grpc.ClientConn
}

// Close releases the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Dial creates a SpiceDB client. The connection is established lazily on
// the first call; the caller must Close the client.
func Dial(config Config) (*Client, error) {
	opts := []grpc.DialOption{
		grpc.WithPerRPCCredentials(bearerToken{token: config.Token, secure: !config.Insecure}),
	}
	if config.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	conn, err := grpc.NewClient(config.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SpiceDB client: %w", err)
	}
	return &Client{PermissionsServiceClient: v1pb.NewPermissionsServiceClient(conn), conn: conn}, nil
}

// New creates a SpiceDB enforcer
func New(config Config, checker Checker, logger *logging.Logger, metrics *metrics.Collector) (*Enforcer, error) {
	if checker == nil {
		return nil, errors.New("spicedb enforcer requires a client")
	}
	if config.ResourceID == "" {
		return nil, errors.New("spicedb enforcer requires a resource ID")
	}
	subjectType := config.SubjectType
	if subjectType == "" {
		subjectType = "user"
	}

	return &Enforcer{
		checker:     checker,
		resourceID:  config.ResourceID,
		subjectType: subjectType,
		timeout:     config.Timeout,
		logger:      logger.WithModule("authz.spicedb"),
		metrics:     metrics,
	}, nil
}

// Enforce evaluates a single rule. The model is not used by SpiceDB.
func (e *Enforcer) Enforce(ctx context.Context, model string, rule authz.Rule) (bool, error) {
	verdicts, err := e.BatchEnforce(ctx, model, []authz.Rule{rule})
	if err != nil {
		return false, err
	}
	if len(verdicts) != 1 {
		return false, fmt.Errorf("%w: expected one verdict, got %d", authz.ErrPolicyBackend, len(verdicts))
	}
	return verdicts[0], nil
}

// BatchEnforce evaluates rules with one CheckBulkPermissions call
func (e *Enforcer) BatchEnforce(ctx context.Context, _ string, rules []authz.Rule) ([]bool, error) {
	if len(rules) == 0 {
		return []bool{}, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.checker.CheckBulkPermissions(ctx, e.bulkRequest(rules))
	if err != nil {
		e.metrics.RecordProviderCall(bulkCheckEndpoint, "error", time.Since(start))
		logging.FromContext(ctx, e.logger).Error("Error checking permissions with SpiceDB", logging.Err(err), "rules", len(rules))
		return nil, fmt.Errorf("%w: %v", authz.ErrPolicyBackend, err)
	}
	e.metrics.RecordProviderCall(bulkCheckEndpoint, "ok", time.Since(start))

	return verdicts(resp)
}

// bulkRequest maps each rule to a check item: obj is the resource type,
// act the permission and sub the subject object id
func (e *Enforcer) bulkRequest(rules []authz.Rule) *v1pb.CheckBulkPermissionsRequest {
	items := make([]*v1pb.CheckBulkPermissionsRequestItem, 0, len(rules))
	for _, rule := range rules {
		items = append(items, &v1pb.CheckBulkPermissionsRequestItem{
			Resource: &v1pb.ObjectReference{
				ObjectType: rule.Obj,
				ObjectId:   e.resourceID,
			},
			Permission: rule.Act,
			Subject: &v1pb.SubjectReference{
				Object: &v1pb.ObjectReference{
					ObjectType: e.subjectType,
					ObjectId:   rule.Sub,
				},
			},
		})
	}

	return &v1pb.CheckBulkPermissionsRequest{
		Consistency: &v1pb.Consistency{
			Requirement: &v1pb.Consistency_FullyConsistent{FullyConsistent: true},
		},
		Items: items,
	}
}

// verdicts interprets the response pairs in request order. A per-item error
// fails the whole batch.
func verdicts(resp *v1pb.CheckBulkPermissionsResponse) ([]bool, error) {
	pairs := resp.GetPairs()
	out := make([]bool, 0, len(pairs))
	for i, pair := range pairs {
		if perr := pair.GetError(); perr != nil {
			return nil, fmt.Errorf("%w: item %d: %s", authz.ErrPolicyBackend, i, perr.GetMessage())
		}
		item := pair.GetItem()
		if item == nil {
			return nil, fmt.Errorf("%w: item %d has no result", authz.ErrPolicyBackend, i)
		}
		out = append(out, item.GetPermissionship() == v1pb.CheckPermissionResponse_PERMISSIONSHIP_HAS_PERMISSION)
	}
	return out, nil
}

// bearerToken sends the preshared key with every call
type bearerToken struct {
	token  string
	secure bool
}

func (b bearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}

func (b bearerToken) RequireTransportSecurity() bool {
	return b.secure
}
