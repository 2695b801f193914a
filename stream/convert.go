package stream

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/tether/store"
)

// ConvertImage converts a DynamoDB stream image to a Record, using the same
// Go types ddbstore reads back: float64 numbers, []any lists and
// map[string]any maps.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) (store.Record, error) {
	result := make(store.Record, len(image))
	for k, v := range image {
		val, err := convertValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		result[k] = val
	}
	return result, nil
}

func convertValue(v events.DynamoDBAttributeValue) (any, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return v.String(), nil
	case events.DataTypeNumber:
		n, err := strconv.ParseFloat(v.Number(), 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case events.DataTypeBoolean:
		return v.Boolean(), nil
	case events.DataTypeNull:
		return nil, nil
	case events.DataTypeBinary:
		return v.Binary(), nil
	case events.DataTypeStringSet:
		return v.StringSet(), nil
	case events.DataTypeBinarySet:
		return v.BinarySet(), nil
	case events.DataTypeNumberSet:
		nums := make([]float64, 0, len(v.NumberSet()))
		for _, s := range v.NumberSet() {
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, err
			}
			nums = append(nums, n)
		}
		return nums, nil
	case events.DataTypeList:
		list := make([]any, 0, len(v.List()))
		for _, item := range v.List() {
			val, err := convertValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil
	case events.DataTypeMap:
		m := make(map[string]any, len(v.Map()))
		for k, item := range v.Map() {
			val, err := convertValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = val
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported data type %d", v.DataType())
}
