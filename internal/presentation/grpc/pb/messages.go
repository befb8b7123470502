package pb

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/types/known/structpb"

	"library-desk/internal/domain/identifier"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MemberRequest IssuedBooks / GetMember のリクエスト
type MemberRequest struct {
	MemberID identifier.ID `json:"member_id"`
}

// ReturnBookRequest ReturnBook のリクエスト
type ReturnBookRequest struct {
	TransactionID identifier.ID `json:"transaction_id"`
}

// Encode JSONタグに従って値をStructに変換する
func Encode(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return s, nil
}

// Decode Structを値に変換する
func Decode(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("failed to marshal struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}
