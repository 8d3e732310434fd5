package sqs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/iyhunko/product-listings/internal/config"
)

// NewClient builds the SQS client shared by the listing publisher and the notification consumer.
// A non-empty Endpoint points it at LocalStack or another SQS-compatible broker.
func NewClient(ctx context.Context, conf config.AWSConfig) (*sqs.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for region %q: %w", conf.Region, err)
	}

	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
	}), nil
}
