package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Handler processes one decoded request. emit sends an intermediate frame
// (e.g. a summary_update); the returned payload becomes the final response
// frame. A returned error is converted to an error frame, never a dropped
// connection.
type Handler interface {
	Handle(ctx context.Context, msg json.RawMessage, emit func(any) error) (any, error)
}

// Serve runs the host side of the channel: one request frame in, response
// frames out, until the stream ends or ctx is cancelled.
func Serve(ctx context.Context, r io.Reader, w io.Writer, h Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := readFrame(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}

		emit := func(payload any) error {
			return writeFrame(w, payload)
		}

		resp, err := h.Handle(ctx, raw, emit)
		if err != nil {
			resp = ErrorResponse{Error: "exception", Detail: err.Error()}
		}
		if resp == nil {
			resp = ErrorResponse{Error: "unknown_type"}
		}

		if err := writeFrame(w, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}
