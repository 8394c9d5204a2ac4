package rpc

import "fmt"

// RPC error codes
const (
	RpcUNKNOWN_COMMAND = 27
	RpcINVALID_PARAMS  = 31
	RpcINTERNAL        = 73
	RpcNOT_READY       = 13
	RpcFORBIDDEN       = 21
)

// RpcError represents a method-level error
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message"`
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.ErrorString, e.Code, e.Message)
}

// NewRpcError creates an RpcError with the given fields
func NewRpcError(code int, errorString, message string) *RpcError {
	return &RpcError{Code: code, ErrorString: errorString, Message: message}
}

// RpcErrorMethodNotFound is returned for an unregistered method
func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcUNKNOWN_COMMAND, "unknownCmd", fmt.Sprintf("Unknown method: %s", method))
}

// RpcErrorInvalidParams is returned for malformed parameters
func RpcErrorInvalidParams(detail string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", detail)
}

// RpcErrorInternal is returned for unexpected failures
func RpcErrorInternal(detail string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", detail)
}

// RpcErrorNotReady is returned while the pool has no state to serve
func RpcErrorNotReady(detail string) *RpcError {
	return NewRpcError(RpcNOT_READY, "notReady", detail)
}

// RpcErrorForbidden is returned when the caller's role is insufficient
func RpcErrorForbidden(method string) *RpcError {
	return NewRpcError(RpcFORBIDDEN, "forbidden", fmt.Sprintf("Method '%s' requires higher privileges", method))
}
