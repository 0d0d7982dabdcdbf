package node

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manesajian/superq"
	"github.com/manesajian/superq/internal/wire"
	"go.uber.org/zap"
)

// Handler dispatches decoded requests against a datastore and produces the
// matching response.
type Handler struct {
	ds  *superq.Datastore
	log *zap.Logger
}

// NewHandler builds a Handler bound to ds.
func NewHandler(ds *superq.Datastore, log *zap.Logger) *Handler {
	return &Handler{ds: ds, log: log}
}

// Dispatch executes one decoded request and returns the response to send
// back.
func (h *Handler) Dispatch(req wire.Request) wire.Response {
	resp, err := h.route(req)
	if err != nil {
		h.log.Debug("request failed", zap.String("cmd", req.Cmd.String()), zap.Error(err))
		return wire.Response{MsgID: req.MsgID, Result: false, Body: err.Error()}
	}
	resp.MsgID = req.MsgID
	resp.Result = true
	return resp
}

func (h *Handler) route(req wire.Request) (wire.Response, error) {
	switch req.Cmd {
	case wire.CmdSuperqExists:
		return wire.Response{Body: strconv.FormatBool(h.ds.Exists(req.Args))}, nil

	case wire.CmdSuperqCreate:
		return h.handleCreate(req)

	case wire.CmdSuperqRead:
		col, err := h.ds.Read(req.Args)
		if err != nil {
			return wire.Response{}, err
		}
		return wire.Response{Body: col.Marshal()}, nil

	case wire.CmdSuperqDelete:
		if err := h.ds.Delete(req.Args); err != nil {
			return wire.Response{}, err
		}
		return wire.Response{}, nil

	case wire.CmdSuperqQuery:
		columns, tables, conditional, err := wire.DecodeQueryRequest(req.Body)
		if err != nil {
			return wire.Response{}, err
		}
		// objSample is always nil over the wire: a remote caller's Go type
		// can't cross the network, so it reshapes the raw result locally
		// after Datastore.Query unmarshals this response.
		result, err := h.ds.Query(req.Args, columns, tables, conditional, nil)
		if err != nil {
			return wire.Response{}, err
		}
		return wire.Response{Body: result.Marshal()}, nil

	case wire.CmdSuperqElemExists:
		key := superq.StrValue(req.Body)
		return wire.Response{Body: strconv.FormatBool(h.ds.ElemExists(req.Args, key))}, nil

	case wire.CmdSuperqElemCreate:
		e, err := superq.UnmarshalElement(req.Body)
		if err != nil {
			return wire.Response{}, err
		}
		if err := h.ds.ElemCreate(req.Args, e); err != nil {
			return wire.Response{}, err
		}
		return wire.Response{}, nil

	case wire.CmdSuperqElemRead:
		key := superq.StrValue(req.Body)
		e, err := h.ds.ElemRead(req.Args, key)
		if err != nil {
			return wire.Response{}, err
		}
		return wire.Response{Body: e.Marshal()}, nil

	case wire.CmdSuperqElemUpdate:
		e, err := superq.UnmarshalElement(req.Body)
		if err != nil {
			return wire.Response{}, err
		}
		if err := h.ds.ElemUpdate(req.Args, e); err != nil {
			return wire.Response{}, err
		}
		return wire.Response{}, nil

	case wire.CmdSuperqElemDelete:
		key := superq.StrValue(req.Body)
		if err := h.ds.ElemDelete(req.Args, key); err != nil {
			return wire.Response{}, err
		}
		return wire.Response{}, nil

	default:
		return wire.Response{}, fmt.Errorf("node: %w", superq.ErrNotImplemented)
	}
}

// handleCreate parses req.Body as "keyCol|maxLen|autoKey" (maxLen "" means
// unbounded) and creates req.Args as a new collection name.
func (h *Handler) handleCreate(req wire.Request) (wire.Response, error) {
	parts := strings.SplitN(req.Body, "|", 3)
	if len(parts) != 3 {
		return wire.Response{}, fmt.Errorf("node: malformed create body %q: %w", req.Body, superq.ErrMalformedRequest)
	}
	keyCol := parts[0]
	maxLen := 0
	if parts[1] != "" {
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return wire.Response{}, fmt.Errorf("node: maxLen %q: %w", parts[1], superq.ErrMalformedRequest)
		}
		maxLen = n
	}
	autoKey, err := strconv.ParseBool(parts[2])
	if err != nil {
		return wire.Response{}, fmt.Errorf("node: autoKey %q: %w", parts[2], superq.ErrMalformedRequest)
	}

	if _, err := h.ds.Create(req.Args, keyCol, maxLen, autoKey); err != nil {
		return wire.Response{}, err
	}
	return wire.Response{}, nil
}
