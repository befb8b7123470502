package openapi

import _ "embed"

// Spec OpenAPI定義（/openapi.yaml で配信する）
//
//go:embed openapi.yaml
var Spec []byte
