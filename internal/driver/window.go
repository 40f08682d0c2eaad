// Package driver implements the reference state-history consumer (DR):
// the window-management loop that keeps a bounded number of blocks in
// flight, plus the Sink and Notifier capabilities a consumer uses to
// persist and announce what it receives. The window arithmetic here is
// grounded exactly on examples/ship-dumper.rs's main loop.
package driver

import (
	"time"

	"golang.org/x/time/rate"

	"eos-shipper/internal/wire"
)

// statusRecheckInterval bounds how often Window will ask the caller to
// re-request status once caught up to the chain head, so a consumer
// blocked on an idle chain doesn't spin sending get_status_request_v0 in
// a tight loop (spec.md §9 Open Question 3).
const statusRecheckInterval = 500 * time.Millisecond

// Config parametrizes a Window. StartBlock follows the original
// implementation's convention: positive is taken as the last block already
// consumed, so streaming starts at the block after it (StartBlock=100 first
// requests block 101); zero or negative is relative to the chain head once
// the first status arrives (StartBlock=-100 means "start 100 blocks behind
// head").
type Config struct {
	StartBlock          int64
	MaxMessagesInFlight uint32
	FetchBlock          bool
	FetchTraces         bool
	FetchDeltas         bool
	IrreversibleOnly    bool

	// UseACK switches flow control from re-requesting a fresh range every
	// time the window is exhausted to acknowledging consumed messages via
	// get_blocks_ack_request_v0, extending the server's existing flight
	// window instead (spec.md §9 Open Question 1). Defaults to false,
	// matching ship-dumper.rs's own re-request behavior.
	UseACK bool
}

// Window tracks how much of the chain has been requested and consumed and
// decides what request (if any) to send next. It holds no I/O state; the
// caller (cmd/ship-dumper, or any other consumer) is responsible for
// actually sending whatever request Window produces over a session's
// request channel.
type Window struct {
	cfg Config

	resolved    bool // whether the negative/relative StartBlock has been resolved against a head
	current     uint32
	lastFetched uint32
	lastBlock   uint32

	ackPending uint32

	statusLimiter *rate.Limiter
}

// NewWindow constructs a Window from cfg. If cfg.StartBlock is positive the
// starting block is already known; otherwise it is resolved on the first
// OnStatus call.
func NewWindow(cfg Config) *Window {
	w := &Window{cfg: cfg, statusLimiter: rate.NewLimiter(rate.Every(statusRecheckInterval), 1)}
	if cfg.StartBlock > 0 {
		w.resolved = true
		w.current = uint32(cfg.StartBlock)
	}
	return w
}

// needStatus reports whether the caller should actually re-request status
// now, rate-limiting repeated requests once the window is caught up.
func (w *Window) needStatus() bool {
	return w.statusLimiter.Allow()
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func (w *Window) blocksRequest(start uint32) *wire.BlocksRequestV0 {
	return &wire.BlocksRequestV0{
		StartBlockNum:       start,
		EndBlockNum:         w.lastFetched,
		MaxMessagesInFlight: w.cfg.MaxMessagesInFlight,
		IrreversibleOnly:    w.cfg.IrreversibleOnly,
		FetchBlock:          w.cfg.FetchBlock,
		FetchTraces:         w.cfg.FetchTraces,
		FetchDeltas:         w.cfg.FetchDeltas,
	}
}

// OnStatus reacts to a get_status_result_v0, resolving a relative
// StartBlock against the chain's current end block on first receipt, and
// returns the get_blocks_request_v0 to open (or re-open) the stream with.
func (w *Window) OnStatus(chainStateEndBlock uint32) *wire.BlocksRequestV0 {
	w.lastBlock = chainStateEndBlock

	if w.resolved {
		w.lastFetched = min32(w.current+1+w.cfg.MaxMessagesInFlight, w.lastBlock)
		return w.blocksRequest(w.current + 1)
	}

	w.resolved = true
	w.current = uint32(int64(chainStateEndBlock) + w.cfg.StartBlock)
	w.lastFetched = min32(w.current+1+w.cfg.MaxMessagesInFlight, chainStateEndBlock)
	return w.blocksRequest(w.current)
}

// BlockOutcome tells the caller what to do after OnBlockResult: send
// NextRequest (if non-nil) and/or send a fresh status request if
// NeedStatus is true. Both may be set together only in the impossible
// case where the window is simultaneously exhausted and caught up; in
// practice at most one of the two fields is ever non-nil/true.
type BlockOutcome struct {
	NeedStatus  bool
	NextRequest *wire.BlocksRequestV0
	AckRequest  *wire.BlocksACKRequestV0
}

// OnBlockResult advances the window past blockNum (this_block.block_num
// from a get_blocks_result) and decides what, if anything, to request
// next: a fresh status once the known chain end is reached, a widened
// blocks range once the current fetch window is exhausted, or (with
// UseACK) an acknowledgement of consumed messages.
func (w *Window) OnBlockResult(blockNum uint32) BlockOutcome {
	w.current = blockNum

	if w.current+1 >= w.lastBlock {
		return BlockOutcome{NeedStatus: w.needStatus()}
	}

	if w.cfg.UseACK {
		w.ackPending++
		if w.ackPending >= w.cfg.MaxMessagesInFlight/2 && w.cfg.MaxMessagesInFlight > 0 {
			ack := w.ackPending
			w.ackPending = 0
			return BlockOutcome{AckRequest: &wire.BlocksACKRequestV0{NumMessages: ack}}
		}
		return BlockOutcome{}
	}

	if w.current+1 >= w.lastFetched {
		w.lastFetched = min32(w.current+1+w.cfg.MaxMessagesInFlight, w.lastBlock)
		return BlockOutcome{NextRequest: w.blocksRequest(w.current + 1)}
	}
	return BlockOutcome{}
}

// OnEmptyBlockResult reacts to a get_blocks_result with no this_block
// (the stream caught up to the server's window without a new block):
// ship-dumper.rs always falls back to re-checking status in this case.
func (w *Window) OnEmptyBlockResult() BlockOutcome {
	return BlockOutcome{NeedStatus: w.needStatus()}
}

// Current returns the last block number the window has advanced past.
func (w *Window) Current() uint32 { return w.current }

// LastKnownChainEnd returns the chain_state_end_block from the most
// recent status seen.
func (w *Window) LastKnownChainEnd() uint32 { return w.lastBlock }
