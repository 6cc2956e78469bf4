// Package events declares the payloads published on the eventbus. Handlers
// find the request ID in the context they receive.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when /graphql receives a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published once the response is written. Operations is the
// number of GraphQL operations the request carried: 1, the batch length, or
// 0 when the request was rejected before execution.
type HTTPFinish struct {
	Request    *http.Request
	Status     int
	Operations int
	Duration   time.Duration
}

// GraphQLStart is published before an operation is validated and executed.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is published after an operation completes. Errors holds the
// validation or execution errors in response order.
type GraphQLFinish struct {
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// StoreStart is published before a persistence call. Op is the store method
// in snake case (find, find_all, insert, update, associate). Call is unique
// per persistence call and repeated on the matching StoreFinish.
type StoreStart struct {
	Call uint64
	Op   string
	Kind string
}

// StoreFinish is published after a persistence call. Err is nil on success;
// a missing record is not an error for find.
type StoreFinish struct {
	Call     uint64
	Op       string
	Kind     string
	Err      error
	Duration time.Duration
}
