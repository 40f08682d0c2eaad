package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"eos-shipper/internal/codec"
	"eos-shipper/internal/wire"
)

const testSchema = `{"version":"eosio::abi/1.1"}`
const testContract = "eosio"

func runSession(t *testing.T, transport Transport, requests <-chan wire.Request, results chan<- Message) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, transport, codec.NewReferenceEngine(), testContract, requests, results, nil)
	}()
	return done
}

func waitFrame(t *testing.T, server *stubTransport) (int, []byte) {
	t.Helper()
	type result struct {
		mt   int
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		mt, data, err := server.ReadMessage()
		ch <- result{mt, data, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("server ReadMessage: %v", r.err)
		}
		return r.mt, r.data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame from session")
		return 0, nil
	}
}

func TestSessionHandshakeAndStatusRoundTrip(t *testing.T) {
	client, server := newStubPair()
	if err := server.sendText([]byte(testSchema)); err != nil {
		t.Fatalf("sendText: %v", err)
	}

	requests := make(chan wire.Request, 1)
	results := make(chan Message, 1)
	done := runSession(t, client, requests, results)

	requests <- &wire.StatusRequestV0{}

	mt, data := waitFrame(t, server)
	if mt != BinaryMessage {
		t.Fatalf("frame type = %d, want BinaryMessage", mt)
	}
	req, err := wire.DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if _, ok := req.(*wire.StatusRequestV0); !ok {
		t.Fatalf("request type = %T, want *wire.StatusRequestV0", req)
	}

	chainID := "abc123"
	status := &wire.StatusResultV0{
		Head:             wire.BlockPosition{BlockNum: 5, BlockID: wire.GenBlockID(5)},
		LastIrreversible: wire.BlockPosition{BlockNum: 4, BlockID: wire.GenBlockID(4)},
		ChainID:          &chainID,
	}
	resultBytes, err := wire.EncodeResult(status)
	if err != nil {
		t.Fatalf("EncodeResult: %v", err)
	}
	if err := server.sendBinary(resultBytes); err != nil {
		t.Fatalf("sendBinary: %v", err)
	}

	select {
	case msg := <-results:
		if msg.Err != nil {
			t.Fatalf("unexpected message error: %v", msg.Err)
		}
		if msg.Result == nil || msg.Result.Status == nil {
			t.Fatalf("expected a status RichResult, got %+v", msg.Result)
		}
		if msg.Result.Status.Head.BlockNum != 5 {
			t.Fatalf("Head.BlockNum = %d, want 5", msg.Result.Status.Head.BlockNum)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for enriched result")
	}

	close(requests)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on clean shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return")
	}
}

func TestSessionQuitClosesTransportWithoutEncoding(t *testing.T) {
	client, server := newStubPair()
	if err := server.sendText([]byte(testSchema)); err != nil {
		t.Fatalf("sendText: %v", err)
	}

	requests := make(chan wire.Request, 1)
	results := make(chan Message, 1)
	_ = runSession(t, client, requests, results)

	requests <- &wire.Quit{}

	// The server side should observe the connection close, not a frame.
	_, _, err := server.ReadMessage()
	if err == nil {
		t.Fatal("expected server ReadMessage to fail after client Quit, got a frame instead")
	}
}

func TestSessionHandshakeRejectsNonTextFirstFrame(t *testing.T) {
	client, server := newStubPair()
	if err := server.sendBinary([]byte(testSchema)); err != nil {
		t.Fatalf("sendBinary: %v", err)
	}

	requests := make(chan wire.Request)
	results := make(chan Message, 1)
	done := runSession(t, client, requests, results)

	select {
	case err := <-done:
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("Run error = %v (%T), want *SchemaError", err, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return")
	}
}

func TestSessionIngressProtocolErrorOnMalformedResult(t *testing.T) {
	client, server := newStubPair()
	if err := server.sendText([]byte(testSchema)); err != nil {
		t.Fatalf("sendText: %v", err)
	}

	requests := make(chan wire.Request)
	results := make(chan Message, 1)
	done := runSession(t, client, requests, results)

	if err := server.sendBinary([]byte(`["not_a_real_result_tag",{}]`)); err != nil {
		t.Fatalf("sendBinary: %v", err)
	}

	select {
	case msg := <-results:
		if msg.Err == nil {
			t.Fatal("expected an error message for an unknown result discriminator")
		}
		var protoErr *ProtocolError
		if !errors.As(msg.Err, &protoErr) {
			t.Fatalf("msg.Err = %v (%T), want *ProtocolError", msg.Err, msg.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error message")
	}

	select {
	case err := <-done:
		var protoErr *ProtocolError
		if !errors.As(err, &protoErr) {
			t.Fatalf("Run error = %v (%T), want *ProtocolError", err, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return")
	}
}

func TestSessionContextCancellationStopsEgress(t *testing.T) {
	client, server := newStubPair()
	if err := server.sendText([]byte(testSchema)); err != nil {
		t.Fatalf("sendText: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	requests := make(chan wire.Request)
	results := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, client, codec.NewReferenceEngine(), testContract, requests, results, nil)
	}()

	// Give the handshake a moment to complete before canceling.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on context cancellation: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return after cancellation")
	}
}

func TestSessionStateCallbackSequence(t *testing.T) {
	client, server := newStubPair()
	if err := server.sendText([]byte(testSchema)); err != nil {
		t.Fatalf("sendText: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	requests := make(chan wire.Request)
	results := make(chan Message, 1)

	var states []State
	done := make(chan error, 1)
	go func() {
		// onState is only ever invoked from the Run goroutine itself, never
		// concurrently, so appending here without a lock is safe; the test
		// goroutine only reads states after <-done happens-before it.
		done <- Run(ctx, client, codec.NewReferenceEngine(), testContract, requests, results, func(s State) {
			states = append(states, s)
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return")
	}

	want := []State{StateConnecting, StateHandshake, StateServing, StateTerminating}
	if len(states) != len(want) {
		t.Fatalf("state sequence = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state sequence = %v, want %v", states, want)
		}
	}
}
