package aws_config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/skiff-cloud/skiff/pkg/io/logging"
)

type AWSConfig struct {
	Profile string
	aws.Config
}

// InitAWSConfiguration loads the shared AWS configuration (~/.aws/config)
// for the given profile.
func InitAWSConfiguration(profile string) AWSConfig {
	cfg, _ := config.LoadDefaultConfig(context.TODO(), config.WithSharedConfigProfile(profile))
	return AWSConfig{Profile: profile, Config: cfg}
}

// TestConnection checks that the profile's credentials are usable.
func (ac *AWSConfig) TestConnection() bool {
	_, err := ac.callerIdentity()
	return err == nil
}

// AccountID returns the caller's account, used to fill a stage context that
// does not declare one.
func (ac *AWSConfig) AccountID() string {
	output, err := ac.callerIdentity()
	if err != nil {
		logging.GetLogManager().Warn("Could not resolve caller identity", "profile", ac.Profile, "err", err)
		return ""
	}
	return aws.ToString(output.Account)
}

func (ac *AWSConfig) callerIdentity() (*sts.GetCallerIdentityOutput, error) {
	client := sts.NewFromConfig(ac.Config)
	return client.GetCallerIdentity(context.TODO(), &sts.GetCallerIdentityInput{})
}
