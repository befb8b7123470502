package returnflow

import "errors"

// ErrInvalidTransition 現在のフェーズでは受け付けられないイベント
var ErrInvalidTransition = errors.New("invalid return flow transition")
