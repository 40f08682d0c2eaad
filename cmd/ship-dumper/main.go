// Command ship-dumper is a reference state-history consumer: it connects
// to a server, streams blocks from a given starting point, and depending
// on run_mode writes a performance CSV (perf.txt), a table-delta dump
// (deltas.txt), or both. It is grounded directly on
// examples/ship-dumper.rs, translated from its two joined async loops
// into internal/session's goroutine-based duplex loop.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"eos-shipper/internal/codec"
	"eos-shipper/internal/config"
	"eos-shipper/internal/driver"
	"eos-shipper/internal/enrich"
	"eos-shipper/internal/eventbus"
	"eos-shipper/internal/session"
	"eos-shipper/internal/wire"
)

func getArgs() (host string, startBlock int64, runMode, configPath string) {
	host = "ws://127.0.0.1:9999"
	startBlock = 0
	runMode = "P"

	args := os.Args
	if len(args) > 1 {
		host = args[1]
	}
	if len(args) > 2 {
		if n, err := strconv.ParseInt(args[2], 10, 64); err == nil {
			startBlock = n
		}
	}
	if len(args) > 3 {
		runMode = args[3]
	}
	if len(args) > 4 {
		configPath = args[4]
	}
	return host, startBlock, runMode, configPath
}

// loadSinkAndNotifier builds the optional Sink/Notifier pair from
// configPath, if given. Either capability is left at its no-op default
// (nil sink, driver.NoopNotifier) when the corresponding config fields are
// unset, so ship-dumper still runs standalone without a database or a
// Svix application configured.
func loadSinkAndNotifier(ctx context.Context, configPath string) (driver.Sink, driver.Notifier) {
	var notifier driver.Notifier = driver.NoopNotifier{}
	if configPath == "" {
		return nil, notifier
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", configPath, err)
	}

	var sink driver.Sink
	if cfg.DatabaseURL != "" {
		s, err := driver.NewPostgresSink(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect sink: %v", err)
		}
		sink = s
	}
	if cfg.SvixAuthToken != "" {
		n, err := driver.NewSvixNotifier(ctx, cfg.SvixAuthToken, cfg.SvixServerURL, cfg.SvixAppID, "ship-dumper")
		if err != nil {
			log.Fatalf("connect notifier: %v", err)
		}
		notifier = n
	}
	return sink, notifier
}

func main() {
	host, startBlock, runMode, configPath := getArgs()
	contract := "eosio"
	if v := os.Getenv("SHIP_CONTRACT"); v != "" {
		contract = v
	}

	cfg := driver.Config{
		StartBlock:          startBlock,
		MaxMessagesInFlight: 150,
		FetchBlock:          strings.Contains(runMode, "P"),
		FetchTraces:         strings.Contains(runMode, "T"),
		FetchDeltas:         strings.Contains(runMode, "D"),
		UseACK:              os.Getenv("SHIP_USE_ACK") == "true",
	}
	win := driver.NewWindow(cfg)

	var perfFile, deltaFile *os.File
	var err error
	if strings.Contains(runMode, "D") {
		deltaFile, err = os.Create("deltas.txt")
		if err != nil {
			log.Fatalf("create deltas.txt: %v", err)
		}
		defer deltaFile.Close()
	}
	if strings.Contains(runMode, "P") {
		perfFile, err = os.Create("perf.txt")
		if err != nil {
			log.Fatalf("create perf.txt: %v", err)
		}
		defer perfFile.Close()
		fmt.Fprintf(perfFile, "type,block#,trace_count,delta_count,warning_count\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, notifier := loadSinkAndNotifier(ctx, configPath)
	if sink != nil {
		defer sink.Close()
	}

	transport, err := session.Dial(host)
	if err != nil {
		log.Fatalf("dial %s: %v", host, err)
	}

	bus := eventbus.New()
	defer bus.Close()
	stateEvents := make(chan eventbus.Event, 8)
	bus.Subscribe("session.state_changed", stateEvents)
	go func() {
		for evt := range stateEvents {
			log.Printf("[ship-dumper] session state: %s", evt.Data)
		}
	}()

	requests := make(chan wire.Request, 8)
	results := make(chan session.Message, 8)
	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- session.Run(ctx, transport, codec.NewReferenceEngine(), contract, requests, results, func(s session.State) {
			bus.Publish(eventbus.Event{Type: "session.state_changed", Timestamp: time.Now(), Data: s.String()})
		})
	}()

	requests <- &wire.StatusRequestV0{}

	for {
		select {
		case <-ctx.Done():
			close(requests)
			<-sessionDone
			return
		case err := <-sessionDone:
			if err != nil {
				log.Fatalf("session ended: %v", err)
			}
			return
		case msg, ok := <-results:
			if !ok {
				return
			}
			if msg.Err != nil {
				log.Printf("[ship-dumper] result error: %v", msg.Err)
				continue
			}
			handleResult(ctx, win, bus, sink, notifier, requests, msg.Result, perfFile, deltaFile)
		}
	}
}

func handleResult(ctx context.Context, win *driver.Window, bus *eventbus.Bus, sink driver.Sink, notifier driver.Notifier, requests chan<- wire.Request, rr *enrich.RichResult, perfFile, deltaFile *os.File) {
	if rr.Status != nil {
		log.Printf("[ship-dumper] chain status: head=%d last_irreversible=%d chain_state_end=%d",
			rr.Status.Head.BlockNum, rr.Status.LastIrreversible.BlockNum, rr.Status.ChainStateEndBlock)
		requests <- win.OnStatus(rr.Status.ChainStateEndBlock)
		return
	}

	if rr.ThisBlock == nil {
		dispatch(requests, win.OnEmptyBlockResult())
		return
	}

	current := rr.ThisBlock.BlockNum
	if len(rr.Traces) > 0 {
		log.Printf("[ship-dumper] block %d: %d traces", current, len(rr.Traces))
	}
	bus.Publish(eventbus.Event{Type: "driver.block_processed", Height: uint64(current), Timestamp: time.Now(), Data: len(rr.Traces)})
	if sink != nil {
		if err := sink.SaveBlockResult(ctx, current, rr); err != nil {
			log.Printf("[ship-dumper] sink save failed at block %d: %v", current, err)
		}
		if err := sink.SaveCheckpoint(ctx, "ship-dumper", current); err != nil {
			log.Printf("[ship-dumper] checkpoint save failed at block %d: %v", current, err)
		}
	}
	if err := notifier.NotifyBlock(ctx, current, len(rr.Traces), len(rr.Deltas)); err != nil {
		log.Printf("[ship-dumper] notify block failed at block %d: %v", current, err)
	}
	for _, w := range rr.Warnings {
		if err := notifier.NotifyWarning(ctx, current, w.Context, w.Err.Error()); err != nil {
			log.Printf("[ship-dumper] notify warning failed at block %d: %v", current, err)
		}
	}
	if perfFile != nil {
		handlePerformance(perfFile, current, rr)
	}
	if deltaFile != nil {
		handleDelta(deltaFile, current, rr)
	}
	dispatch(requests, win.OnBlockResult(current))
}

func dispatch(requests chan<- wire.Request, outcome driver.BlockOutcome) {
	if outcome.NeedStatus {
		requests <- &wire.StatusRequestV0{}
	}
	if outcome.NextRequest != nil {
		requests <- outcome.NextRequest
	}
	if outcome.AckRequest != nil {
		requests <- outcome.AckRequest
	}
}

// handlePerformance writes one CSV line per transaction in the block
// followed by the block-level summary line, grounded on ship-dumper.rs's
// handle_performance: a bare transaction_id receipt gets a "USAGE,T" row,
// a packed one gets "USAGE,P0" with its joined action descriptions, and a
// receipt whose body failed to unpack (rr.Transactions[i] == nil, see
// enrich.RichResult.Transactions) falls back to "-None-" rather than
// dropping the row.
func handlePerformance(f *os.File, current uint32, rr *enrich.RichResult) {
	switch {
	case rr.Block != nil:
		for i, receipt := range rr.Block.Transactions {
			if receipt.Trx == nil {
				continue
			}
			var trx *wire.Transaction
			if i < len(rr.Transactions) {
				trx = rr.Transactions[i]
			}
			writePerformanceRow(f, current, receipt.Trx.TransactionID, receipt.Trx.Packed != nil, receipt.CPUUsageUS, receipt.NetUsageWords, trx)
		}
	case rr.BlockV1 != nil:
		for i, receipt := range rr.BlockV1.Transactions {
			if receipt.Trx == nil {
				continue
			}
			var trx *wire.Transaction
			if i < len(rr.Transactions) {
				trx = rr.Transactions[i]
			}
			writePerformanceRow(f, current, receipt.Trx.TransactionID, receipt.Trx.Packed != nil, receipt.CPUUsageUS, receipt.NetUsageWords, trx)
		}
	}
	fmt.Fprintf(f, "USAGE,%d,%d,%d,%d\n", current, len(rr.Traces), len(rr.Deltas), len(rr.Warnings))
}

func writePerformanceRow(f *os.File, current uint32, id string, packed bool, cpuUsageUS, netUsageWords uint32, trx *wire.Transaction) {
	if !packed {
		fmt.Fprintf(f, "USAGE,T,%d,%s,%d,%d\n", current, id, cpuUsageUS, netUsageWords)
		return
	}
	actionDesc, actionCount := "-None-", 0
	if trx != nil {
		actionCount = len(trx.Actions)
		names := make([]string, len(trx.Actions))
		for j, a := range trx.Actions {
			names[j] = fmt.Sprintf("%s:%s", a.Account, a.Name)
		}
		if len(names) > 0 {
			actionDesc = strings.Join(names, "|")
		}
	}
	fmt.Fprintf(f, "USAGE,P0,%d,%s,%d,%d,%d\n", current, actionDesc, actionCount, cpuUsageUS, netUsageWords)
}

// handleDelta writes one CSV line per contract_row/contract_table/index
// row in a block's deltas, grounded on ship-dumper.rs's handle_delta.
func handleDelta(f *os.File, current uint32, rr *enrich.RichResult) {
	for _, delta := range rr.Deltas {
		if delta.Name != "contract_row" && delta.Name != "contract_table" &&
			!strings.HasPrefix(delta.Name, "contract_index") {
			continue
		}
		for _, row := range delta.Rows {
			writeDeltaRow(f, current, delta.Name, row)
		}
	}
}

func writeDeltaRow(f *os.File, current uint32, name string, row enrich.RichRow) {
	switch v := row.Data.(type) {
	case *wire.ContractRowV0:
		fmt.Fprintf(f, "%d,ROW,%t,%s,%s,%s,%s,%d,%s\n",
			current, row.Present, v.Code, v.Payer, v.Scope, v.Table, v.PrimaryKey, v.Value)
	case *wire.ContractTableV0:
		fmt.Fprintf(f, "%d,TABLE,%t,%s,%s,%s,%s\n",
			current, row.Present, v.Code, v.Payer, v.Scope, v.Table)
	case *wire.ContractIndex64V0:
		fmt.Fprintf(f, "%d,INDEX64,%t,%s,%s,%s,%s,%d,%s\n",
			current, row.Present, v.Code, v.Payer, v.Scope, v.Table, v.PrimaryKey, v.SecondaryKey)
	case *wire.ContractIndex128V0:
		fmt.Fprintf(f, "%d,INDEX128,%t,%s,%s,%s,%s,%d,%s\n",
			current, row.Present, v.Code, v.Payer, v.Scope, v.Table, v.PrimaryKey, v.SecondaryKey)
	case *wire.ContractIndex256V0:
		fmt.Fprintf(f, "%d,INDEX256,%t,%s,%s,%s,%s,%d,%s\n",
			current, row.Present, v.Code, v.Payer, v.Scope, v.Table, v.PrimaryKey, v.SecondaryKey)
	case *wire.ContractIndexDoubleV0:
		fmt.Fprintf(f, "%d,INDEXDBL,%t,%s,%s,%s,%s,%d,%s\n",
			current, row.Present, v.Code, v.Payer, v.Scope, v.Table, v.PrimaryKey, v.SecondaryKey)
	case *wire.ContractIndexLongDoubleV0:
		fmt.Fprintf(f, "%d,INDEXLONGDBL,%t,%s,%s,%s,%s,%d,%s\n",
			current, row.Present, v.Code, v.Payer, v.Scope, v.Table, v.PrimaryKey, v.SecondaryKey)
	case *wire.Other:
		fmt.Fprintf(f, "%d,OTHER,%t,%s\n", current, row.Present, name)
	}
}
