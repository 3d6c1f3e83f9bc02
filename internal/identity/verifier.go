package identity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Caller is the identity resolved for a set of installed credentials.
type Caller struct {
	// AccountID is the 12-digit AWS account ID.
	AccountID string

	// ARN is the full ARN of the calling identity.
	ARN string

	// UserID is the unique identifier of the calling entity.
	UserID string
}

// Verifier resolves the identity behind the currently installed default
// credentials. It is an interface so the pipeline can be tested without
// network access or real keys.
type Verifier interface {
	Verify(ctx context.Context) (*Caller, error)
}

// STSVerifier implements Verifier with an STS GetCallerIdentity call.
//
// The AWS config is loaded fresh on every Verify rather than cached:
// the whole point is to observe the credentials file as it stands after
// the most recent install, and the SDK's default chain reads
// ~/.aws/credentials at load time.
type STSVerifier struct {
	// region scopes the STS endpoint. GetCallerIdentity works in any
	// region; using the scan region keeps traffic in one place.
	region string
}

// NewSTSVerifier creates an STSVerifier for the given region.
func NewSTSVerifier(region string) *STSVerifier {
	return &STSVerifier{region: region}
}

// Verify loads the default credential chain and asks STS who we are.
func (v *STSVerifier) Verify(ctx context.Context) (*Caller, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(v.region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	out, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("STS GetCallerIdentity failed: %w", err)
	}

	return &Caller{
		AccountID: aws.ToString(out.Account),
		ARN:       aws.ToString(out.Arn),
		UserID:    aws.ToString(out.UserId),
	}, nil
}
