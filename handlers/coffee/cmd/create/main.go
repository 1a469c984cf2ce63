package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/skiff-cloud/skiff/handlers/coffee"
	"github.com/skiff-cloud/skiff/pkg/io/logging"
)

func main() {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logging.HandleError(err, "coffee", "LoadDefaultConfig")
	}
	handler := coffee.NewHandler(dynamodb.NewFromConfig(cfg))
	lambda.Start(handler.Create)
}
