package handler

import "github.com/tradedesk/dashboard/internal/core/domain"

// errorBody documents the error envelope rendered by the central error handler.
type errorBody struct {
	Error string `json:"error"`
}

// listResponse is the envelope of list endpoints.
type listResponse[T any] struct {
	Data  []T     `json:"data"`
	Error *string `json:"error"`
}

func ok[T any](data []T) listResponse[T] {
	if data == nil {
		data = []T{}
	}
	return listResponse[T]{Data: data}
}

type activityListResponse = listResponse[domain.Activity]
