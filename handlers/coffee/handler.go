// Package coffee implements the sample data-backed API behind the example
// gateway configurations: a create and a get handler over one DynamoDB
// table.
package coffee

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultTableName = "CoffeeShop"

// DynamoAPI is the slice of the DynamoDB client the handlers use.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type Handler struct {
	db    DynamoAPI
	table string
}

// NewHandler binds the handlers to a table named by the tableName
// environment variable.
func NewHandler(db DynamoAPI) *Handler {
	table := os.Getenv("tableName")
	if table == "" {
		table = defaultTableName
	}
	return &Handler{db: db, table: table}
}

type coffeeItem struct {
	CoffeeID  string   `json:"coffeeId"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Available *bool    `json:"available"`
}

// Create inserts a new coffee item. The conditional put keeps an existing
// item from being overwritten.
func (h *Handler) Create(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := request.Body
	if body == "" {
		body = "{}"
	}
	var item coffeeItem
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		return response(400, map[string]string{"error": "Invalid JSON in request body"}), nil
	}

	if item.CoffeeID == "" || item.Name == "" || item.Price == nil || item.Available == nil {
		return response(409, map[string]string{
			"error": "Missing required attributes: coffeeId, name, price, or available.",
		}), nil
	}

	_, err := h.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(h.table),
		Item: map[string]ddbtypes.AttributeValue{
			"coffeeId":  &ddbtypes.AttributeValueMemberS{Value: item.CoffeeID},
			"name":      &ddbtypes.AttributeValueMemberS{Value: item.Name},
			"price":     &ddbtypes.AttributeValueMemberN{Value: strconv.FormatFloat(*item.Price, 'f', -1, 64)},
			"available": &ddbtypes.AttributeValueMemberBOOL{Value: *item.Available},
		},
		ConditionExpression: aws.String("attribute_not_exists(coffeeId)"),
	})
	if err != nil {
		var conditionFailed *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return response(409, map[string]string{"error": "Item already exists!"}), nil
		}
		return response(500, map[string]string{
			"error":   "Internal Server Error!",
			"message": err.Error(),
		}), nil
	}

	return response(201, map[string]string{"message": "Item Created Successfully!"}), nil
}

// Get fetches a single item when a path id is present, otherwise scans the
// whole table.
func (h *Handler) Get(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	coffeeID := request.PathParameters["id"]

	if coffeeID != "" {
		output, err := h.db.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(h.table),
			Key: map[string]ddbtypes.AttributeValue{
				"coffeeId": &ddbtypes.AttributeValueMemberS{Value: coffeeID},
			},
		})
		if err != nil {
			return response(500, map[string]string{"error": err.Error()}), nil
		}
		return response(200, map[string]interface{}{"Item": decodeItem(output.Item)}), nil
	}

	output, err := h.db.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(h.table),
	})
	if err != nil {
		return response(500, map[string]string{"error": err.Error()}), nil
	}

	items := make([]map[string]interface{}, 0, len(output.Items))
	for _, item := range output.Items {
		items = append(items, decodeItem(item))
	}
	return response(200, map[string]interface{}{"Items": items, "Count": output.Count}), nil
}

func response(statusCode int, body interface{}) events.APIGatewayProxyResponse {
	data, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

// decodeItem turns the attribute-value map into plain JSON values.
func decodeItem(item map[string]ddbtypes.AttributeValue) map[string]interface{} {
	if item == nil {
		return nil
	}
	out := make(map[string]interface{}, len(item))
	for key, value := range item {
		switch v := value.(type) {
		case *ddbtypes.AttributeValueMemberS:
			out[key] = v.Value
		case *ddbtypes.AttributeValueMemberN:
			if number, err := strconv.ParseFloat(v.Value, 64); err == nil {
				out[key] = number
			} else {
				out[key] = v.Value
			}
		case *ddbtypes.AttributeValueMemberBOOL:
			out[key] = v.Value
		default:
			out[key] = value
		}
	}
	return out
}
