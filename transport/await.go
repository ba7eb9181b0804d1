package transport

import (
	"context"
	"errors"

	"github.com/hupe1980/agentchat/core"
)

// ErrNoAnswer is reported when a transport closes its channels without
// producing a final reply or an error.
var ErrNoAnswer = errors.New("transport: closed without answer")

// Await consumes the channels returned by core.Transport.Ask until a final
// reply, an error, or ctx is done. onProgress, if non-nil, is called for every
// progress reply in order.
func Await(ctx context.Context, replies <-chan core.Reply, errs <-chan error, onProgress func(core.Reply)) (string, error) {
	for replies != nil || errs != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r, ok := <-replies:
			if !ok {
				replies = nil
				continue
			}
			if r.Progress {
				if onProgress != nil {
					onProgress(r)
				}
				continue
			}
			return r.Text, nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return "", err
			}
		}
	}
	return "", ErrNoAnswer
}

// forward copies progress replies of one Ask call into out and returns the
// final text or the call's error.
func forward(ctx context.Context, replies <-chan core.Reply, errs <-chan error, out chan<- core.Reply) (string, error) {
	return Await(ctx, replies, errs, func(r core.Reply) {
		select {
		case out <- r:
		case <-ctx.Done():
		}
	})
}
