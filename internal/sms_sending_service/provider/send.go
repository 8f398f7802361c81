package provider

import (
	"context"
	"fmt"
	"strings"
)

// Send runs build, execute and parse for every part. The first failing part
// decides the result; successful message ids are joined with ",". It
// returns the number of parts the adapter produced.
func Send(ctx context.Context, a Adapter, sc SendContext) (ParsedResult, int, error) {
	reqs, err := a.BuildRequest(sc)
	if err != nil {
		return ParsedResult{}, 0, fmt.Errorf("%s: build request: %w", a.Name(), err)
	}
	if len(reqs) == 0 {
		return ParsedResult{}, 0, fmt.Errorf("%s: no request built", a.Name())
	}

	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		raw, err := a.Execute(ctx, req)
		if err != nil {
			return ParsedResult{}, len(reqs), err
		}
		result := a.ParseResponse(sc, raw)
		if !result.OK {
			return result, len(reqs), nil
		}
		if len(ids) == 0 || ids[len(ids)-1] != result.MessageID {
			ids = append(ids, result.MessageID)
		}
	}
	segmentsSentCounter.WithLabelValues(a.Name()).Add(float64(len(reqs)))
	return Success(sc.MobileNumber, strings.Join(ids, ",")), len(reqs), nil
}
