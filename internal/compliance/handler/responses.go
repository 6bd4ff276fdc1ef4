package handler

import (
	"listingwatch/internal/compliance/models"
	"listingwatch/internal/compliance/service"
	dErrors "listingwatch/pkg/domain-errors"
)

// RecordCheckResponse wraps a recorded or replayed check.
type RecordCheckResponse struct {
	Replayed bool                `json:"replayed"`
	Result   *models.CheckResult `json:"result"`
}

// BatchItemResponse is one entry of a batch response, in request order.
type BatchItemResponse struct {
	Index            int                 `json:"index"`
	Replayed         bool                `json:"replayed,omitempty"`
	Result           *models.CheckResult `json:"result,omitempty"`
	Error            string              `json:"error,omitempty"`
	ErrorDescription string              `json:"error_description,omitempty"`
}

type RecordBatchResponse struct {
	Recorded int                 `json:"recorded"`
	Failed   int                 `json:"failed"`
	Items    []BatchItemResponse `json:"items"`
}

func toBatchResponse(items []service.BatchItem) RecordBatchResponse {
	resp := RecordBatchResponse{Items: make([]BatchItemResponse, len(items))}
	for i, item := range items {
		out := BatchItemResponse{Index: i, Replayed: item.Replayed, Result: item.Result}
		if item.Err != nil {
			resp.Failed++
			code := dErrors.CodeOf(item.Err)
			out.Error = string(code)
			if code != dErrors.CodeInternal {
				out.ErrorDescription = dErrors.Message(item.Err)
			}
		} else {
			resp.Recorded++
		}
		resp.Items[i] = out
	}
	return resp
}

type ListResultsResponse struct {
	Results []*models.CheckResult `json:"results"`
	Count   int                   `json:"count"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

type StatsResponse struct {
	*models.Stats
	Marketplace string `json:"marketplace,omitempty"`
	Days        int    `json:"days"`
}

type KeywordsResponse struct {
	Keywords []*models.Keyword `json:"keywords"`
}

type LearningsResponse struct {
	Learnings []*models.Learning `json:"learnings"`
}
