package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/redshift"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// redshiftAPI is the subset of the Redshift client the provider calls.
type redshiftAPI interface {
	GetClusterCredentials(ctx context.Context, params *redshift.GetClusterCredentialsInput, optFns ...func(*redshift.Options)) (*redshift.GetClusterCredentialsOutput, error)
}

// RedshiftCredentialsProvider acquires temporary database credentials with
// the Redshift GetClusterCredentials API.
// Uses the default AWS credential chain (environment variables, shared config, instance roles, etc.)
type RedshiftCredentialsProvider struct {
	clusterID string
	region    string
	dbUser    string
	dbName    string
	duration  time.Duration

	client redshiftAPI // nil until first use
}

// NewRedshiftCredentialsProvider creates a provider for clusterID in region.
// dbUser must already exist in the cluster; dbName scopes the credentials.
func NewRedshiftCredentialsProvider(clusterID, region, dbUser, dbName string) (*RedshiftCredentialsProvider, error) {
	if clusterID == "" {
		return nil, &dwhetl.ConfigurationError{Field: "cluster.cluster_identifier", Reason: "Redshift IAM auth requires a cluster identifier (use --cluster-id)"}
	}
	if region == "" {
		return nil, &dwhetl.ConfigurationError{Field: "cluster.aws_region", Reason: "Redshift IAM auth requires a region (use --aws-region or $AWS_REGION)"}
	}
	if dbUser == "" {
		return nil, &dwhetl.ConfigurationError{Field: "cluster.username", Reason: "Redshift IAM auth requires a database user"}
	}

	return &RedshiftCredentialsProvider{
		clusterID: clusterID,
		region:    region,
		dbUser:    dbUser,
		dbName:    dbName,
		duration:  dwhetl.DefaultIAMCredentialsDuration,
	}, nil
}

// GetCredentials calls GetClusterCredentials. The returned Username carries
// the "IAM:" prefix Redshift expects at login.
func (p *RedshiftCredentialsProvider) GetCredentials(ctx context.Context) (Credentials, error) {
	if p.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		p.client = redshift.NewFromConfig(cfg)
	}

	input := &redshift.GetClusterCredentialsInput{
		ClusterIdentifier: aws.String(p.clusterID),
		DbUser:            aws.String(p.dbUser),
		DurationSeconds:   aws.Int32(int32(p.duration / time.Second)),
		AutoCreate:        aws.Bool(false),
	}
	if p.dbName != "" {
		input.DbName = aws.String(p.dbName)
	}

	out, err := p.client.GetClusterCredentials(ctx, input)
	if err != nil {
		return Credentials{}, fmt.Errorf("GetClusterCredentials for cluster %s: %w", p.clusterID, err)
	}

	creds := Credentials{
		Username:   aws.ToString(out.DbUser),
		Password:   aws.ToString(out.DbPassword),
		Expiration: aws.ToTime(out.Expiration),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("GetClusterCredentials for cluster %s returned empty credentials", p.clusterID)
	}
	if creds.Expiration.IsZero() {
		creds.Expiration = time.Now().Add(p.duration)
	}
	return creds, nil
}

// String returns a human-readable representation of the provider.
func (p *RedshiftCredentialsProvider) String() string {
	return fmt.Sprintf("RedshiftCredentialsProvider(cluster=%s, region=%s, user=%s)", p.clusterID, p.region, p.dbUser)
}
