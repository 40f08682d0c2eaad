// Package session implements the session state machine (SN): it owns one
// transport connection end to end, obtains and binds the handshake schema,
// and bridges two concurrent loops — sending wire.Requests out, receiving
// and enriching wire.Results in — over plain Go channels, the same duplex
// pattern the original implementation runs as two joined async loops
// (lib.rs: futures_util::future::join(in_loop, out_loop)) and the teacher's
// Hub/Client websocket pattern realizes with goroutines instead of futures.
package session

import (
	"context"
	"fmt"
	"log"

	"eos-shipper/internal/codec"
	"eos-shipper/internal/enrich"
	"eos-shipper/internal/wire"
)

// State names the session's position in its Connecting -> Handshake ->
// Serving -> Terminating lifecycle (spec.md §4.4).
type State int

const (
	StateConnecting State = iota
	StateHandshake
	StateServing
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshake:
		return "handshake"
	case StateServing:
		return "serving"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

const (
	typeRequest = "request"
	typeResult  = "result"
)

// Message is what the ingress loop publishes to the caller: either a
// successfully enriched result, or a fatal error that ends the session.
type Message struct {
	Result *enrich.RichResult
	Err    error
}

// Run drives one session end to end over transport: it reads the
// handshake schema, binds a codec.Codec to it, then runs the egress loop
// (draining requests onto the wire) and the ingress loop (reading wire
// results, decoding, enriching, and publishing to results) until ctx is
// canceled, requests is closed, a wire.Quit is sent, or a fatal error
// occurs. The codec is destroyed exactly once on every exit path
// (spec.md §4.1, §5). onState, if non-nil, is called on every state
// transition — used by cmd/ship-dumper and tests to observe progress
// without a separate event bus dependency.
func Run(ctx context.Context, transport Transport, engine codec.Engine, contract string, requests <-chan wire.Request, results chan<- Message, onState func(State)) error {
	setState := func(s State) {
		if onState != nil {
			onState(s)
		}
	}

	setState(StateConnecting)
	setState(StateHandshake)

	mt, schemaBytes, err := transport.ReadMessage()
	if err != nil {
		return &TransportError{Err: err}
	}
	if mt != TextMessage {
		return &SchemaError{Err: fmt.Errorf("expected text handshake message, got frame type %d", mt)}
	}

	c, err := codec.New(engine, contract, string(schemaBytes))
	if err != nil {
		return &SchemaError{Err: err}
	}
	defer c.Destroy()

	setState(StateServing)
	defer setState(StateTerminating)

	// shutdown is closed by the egress loop right before it closes
	// transport, so the ingress loop can tell a deliberate shutdown from
	// an actual transport failure when its blocking ReadMessage wakes up
	// with an error.
	shutdown := make(chan struct{})

	// egressCtx lets ingress tear down egress when ingress exits first
	// (e.g. a fatal protocol error on a read), so a stalled egress loop
	// waiting on an empty requests channel never leaves Run hanging.
	egressCtx, stopEgress := context.WithCancel(ctx)
	defer stopEgress()

	egressDone := make(chan error, 1)
	go func() {
		egressDone <- runEgress(egressCtx, transport, c, contract, requests, shutdown)
	}()

	ingressErr := runIngress(ctx, transport, c, contract, results, shutdown)
	stopEgress()

	// The egress loop owns the decision to close the connection (on Quit
	// or context cancellation); wait for it so Transport.Close() always
	// happens before Run returns.
	egressErr := <-egressDone

	if ingressErr != nil {
		return ingressErr
	}
	return egressErr
}

func runEgress(ctx context.Context, transport Transport, c *codec.Codec, contract string, requests <-chan wire.Request, shutdown chan<- struct{}) error {
	closeForShutdown := func() {
		close(shutdown)
		_ = transport.Close()
	}
	for {
		select {
		case <-ctx.Done():
			closeForShutdown()
			return nil
		case req, ok := <-requests:
			if !ok {
				closeForShutdown()
				return nil
			}
			if _, isQuit := req.(*wire.Quit); isQuit {
				closeForShutdown()
				return nil
			}
			if err := sendRequest(transport, c, contract, req); err != nil {
				closeForShutdown()
				return err
			}
		}
	}
}

func sendRequest(transport Transport, c *codec.Codec, contract string, req wire.Request) error {
	jsonText, err := wire.EncodeRequest(req)
	if err != nil {
		return &ProtocolError{Reason: "encode request", Err: err}
	}
	wireBytes, err := c.Encode(contract, typeRequest, jsonText)
	if err != nil {
		return &ProtocolError{Reason: "codec encode request", Err: err}
	}
	if err := transport.WriteMessage(BinaryMessage, wireBytes); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

func runIngress(ctx context.Context, transport Transport, c *codec.Codec, contract string, results chan<- Message, shutdown <-chan struct{}) error {
	for {
		mt, data, err := transport.ReadMessage()
		if err != nil {
			select {
			case <-shutdown:
				// Egress already closed the transport as part of a clean
				// shutdown (Quit, closed requests channel, or context
				// cancellation); this read error is expected, not fatal.
				return nil
			default:
			}
			publish(ctx, results, Message{Err: &TransportError{Err: err}})
			return &TransportError{Err: err}
		}
		if mt == CloseMessage {
			return nil
		}
		if mt != BinaryMessage {
			err := &ProtocolError{Reason: fmt.Sprintf("expected binary result frame, got frame type %d", mt)}
			publish(ctx, results, Message{Err: err})
			return err
		}

		jsonText, err := c.Decode(contract, typeResult, data)
		if err != nil {
			wrapped := &ProtocolError{Reason: "codec decode result", Err: err}
			publish(ctx, results, Message{Err: wrapped})
			return wrapped
		}
		result, err := wire.DecodeResult(jsonText)
		if err != nil {
			wrapped := &ProtocolError{Reason: "decode result", Err: err}
			publish(ctx, results, Message{Err: wrapped})
			return wrapped
		}
		rich, err := enrich.Enrich(c, contract, result)
		if err != nil {
			wrapped := &ProtocolError{Reason: "enrich result", Err: err}
			publish(ctx, results, Message{Err: wrapped})
			return wrapped
		}
		for _, w := range rich.Warnings {
			log.Printf("[session] decode warning: %v", w)
		}
		if !publish(ctx, results, Message{Result: rich}) {
			return nil
		}
	}
}

// publish sends msg to results, respecting ctx cancellation so a slow or
// absent consumer cannot wedge the ingress loop forever. Returns false if
// ctx was canceled before the send completed.
func publish(ctx context.Context, results chan<- Message, msg Message) bool {
	select {
	case results <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
