package warehouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

type fakeRedshift struct {
	input *redshift.GetClusterCredentialsInput
	out   *redshift.GetClusterCredentialsOutput
	err   error
}

func (f *fakeRedshift) GetClusterCredentials(ctx context.Context, params *redshift.GetClusterCredentialsInput, optFns ...func(*redshift.Options)) (*redshift.GetClusterCredentialsOutput, error) {
	f.input = params
	return f.out, f.err
}

func newTestProvider(t *testing.T, api redshiftAPI) *RedshiftCredentialsProvider {
	t.Helper()
	p, err := NewRedshiftCredentialsProvider("dwhcluster", "us-west-2", "awsuser", "dev")
	require.NoError(t, err)
	p.client = api
	return p
}

func TestRedshiftCredentialsProvider_GetCredentials(t *testing.T) {
	expiry := time.Date(2026, 10, 19, 12, 15, 0, 0, time.UTC)
	api := &fakeRedshift{out: &redshift.GetClusterCredentialsOutput{
		DbUser:     aws.String("IAM:awsuser"),
		DbPassword: aws.String("temp-pass"),
		Expiration: aws.Time(expiry),
	}}
	p := newTestProvider(t, api)

	creds, err := p.GetCredentials(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "IAM:awsuser", creds.Username)
	assert.Equal(t, "temp-pass", creds.Password)
	assert.Equal(t, expiry, creds.Expiration)

	require.NotNil(t, api.input)
	assert.Equal(t, "dwhcluster", aws.ToString(api.input.ClusterIdentifier))
	assert.Equal(t, "awsuser", aws.ToString(api.input.DbUser))
	assert.Equal(t, "dev", aws.ToString(api.input.DbName))
	assert.Equal(t, int32(900), aws.ToInt32(api.input.DurationSeconds))
	assert.False(t, aws.ToBool(api.input.AutoCreate))
}

func TestRedshiftCredentialsProvider_MissingExpirationDefaults(t *testing.T) {
	api := &fakeRedshift{out: &redshift.GetClusterCredentialsOutput{
		DbUser:     aws.String("IAM:awsuser"),
		DbPassword: aws.String("temp-pass"),
	}}
	p := newTestProvider(t, api)

	before := time.Now()
	creds, err := p.GetCredentials(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(dwhetl.DefaultIAMCredentialsDuration), creds.Expiration, 5*time.Second)
}

func TestRedshiftCredentialsProvider_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		apiErr := errors.New("ClusterNotFound")
		p := newTestProvider(t, &fakeRedshift{err: apiErr})
		_, err := p.GetCredentials(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, apiErr)
		assert.Contains(t, err.Error(), "cluster dwhcluster")
	})

	t.Run("empty credentials", func(t *testing.T) {
		p := newTestProvider(t, &fakeRedshift{out: &redshift.GetClusterCredentialsOutput{DbUser: aws.String("IAM:awsuser")}})
		_, err := p.GetCredentials(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty credentials")
	})
}

func TestNewRedshiftCredentialsProvider_Validation(t *testing.T) {
	tests := []struct {
		name                      string
		cluster, region, user, db string
		wantField                 string
	}{
		{"missing cluster", "", "us-west-2", "awsuser", "dev", "cluster.cluster_identifier"},
		{"missing region", "dwhcluster", "", "awsuser", "dev", "cluster.aws_region"},
		{"missing user", "dwhcluster", "us-west-2", "", "dev", "cluster.username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedshiftCredentialsProvider(tt.cluster, tt.region, tt.user, tt.db)
			var cfgErr *dwhetl.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestRedshiftCredentialsProvider_String(t *testing.T) {
	p, err := NewRedshiftCredentialsProvider("dwhcluster", "us-west-2", "awsuser", "dev")
	require.NoError(t, err)
	assert.Equal(t, "RedshiftCredentialsProvider(cluster=dwhcluster, region=us-west-2, user=awsuser)", p.String())
}
