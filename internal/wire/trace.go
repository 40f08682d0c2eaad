package wire

import (
	"encoding/json"
	"fmt"
)

// ActionReceiptVariant is the sum of action receipt encodings
// (shipper_types.rs: ActionReceiptVariant). There is a single member today
// but the spec requires dispatching on the discriminator regardless, since
// new members can appear in newer chain versions.
type ActionReceiptVariant interface {
	isActionReceipt()
}

// ActionReceiptV0 is the only action receipt member currently defined.
type ActionReceiptV0 struct {
	Receiver       string                `json:"receiver"`
	ActDigest      string                `json:"act_digest"`
	GlobalSequence uint64                `json:"global_sequence"`
	RecvSequence   uint64                `json:"recv_sequence"`
	AuthSequence   []AccountAuthSequence `json:"auth_sequence"`
	CodeSequence   uint32                `json:"code_sequence"`
	ABISequence    uint32                `json:"abi_sequence"`
}

func (*ActionReceiptV0) isActionReceipt() {}

var actionReceiptRegistry = map[string]func() ActionReceiptVariant{
	"action_receipt_v0": func() ActionReceiptVariant { return &ActionReceiptV0{} },
}

// DecodeActionReceipt decodes one tagged action_receipt value.
func DecodeActionReceipt(data []byte) (ActionReceiptVariant, error) {
	return decodeVariant("ActionReceipt", data, actionReceiptRegistry)
}

func encodeActionReceipt(v ActionReceiptVariant) ([]byte, error) {
	switch r := v.(type) {
	case *ActionReceiptV0:
		return encodeTagged("action_receipt_v0", r)
	default:
		return nil, fmt.Errorf("wire: unknown action receipt type %T", v)
	}
}

// ActionTraceVariant is the sum of action trace encodings
// (shipper_types.rs: ActionTraceVariant).
type ActionTraceVariant interface {
	isActionTrace()
}

// ActionTraceV0 is the legacy action trace shape.
type ActionTraceV0 struct {
	ActionOrdinal       uint32                `json:"action_ordinal"`
	CreatorActionOrdinal uint32               `json:"creator_action_ordinal"`
	Receipt             *actionReceiptField   `json:"receipt"`
	Receiver            string                `json:"receiver"`
	Act                 Action                `json:"act"`
	ContextFree         bool                  `json:"context_free"`
	ElapsedUS           int64                 `json:"elapsed"`
	Console             string                `json:"console"`
	AccountRAMDeltas    []AccountDelta        `json:"account_ram_deltas"`
	Except              *string               `json:"except"`
	ErrorCode           *uint64               `json:"error_code"`
}

func (*ActionTraceV0) isActionTrace() {}

// ActionTraceV1 adds return_value over ActionTraceV0.
type ActionTraceV1 struct {
	ActionOrdinal        uint32              `json:"action_ordinal"`
	CreatorActionOrdinal uint32              `json:"creator_action_ordinal"`
	Receipt              *actionReceiptField `json:"receipt"`
	Receiver             string              `json:"receiver"`
	Act                  Action              `json:"act"`
	ContextFree          bool                `json:"context_free"`
	ElapsedUS            int64               `json:"elapsed"`
	Console              string              `json:"console"`
	AccountRAMDeltas     []AccountDelta      `json:"account_ram_deltas"`
	Except               *string             `json:"except"`
	ErrorCode            *uint64             `json:"error_code"`
	ReturnValue          string              `json:"return_value"`
}

func (*ActionTraceV1) isActionTrace() {}

// actionReceiptField adapts ActionReceiptVariant for embedding as an
// optional struct field (receipt may be absent when the action failed
// before its receipt was produced).
type actionReceiptField struct {
	Value ActionReceiptVariant
}

func (f actionReceiptField) MarshalJSON() ([]byte, error) {
	return encodeActionReceipt(f.Value)
}

func (f *actionReceiptField) UnmarshalJSON(data []byte) error {
	v, err := DecodeActionReceipt(data)
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}

var actionTraceRegistry = map[string]func() ActionTraceVariant{
	"action_trace_v0": func() ActionTraceVariant { return &ActionTraceV0{} },
	"action_trace_v1": func() ActionTraceVariant { return &ActionTraceV1{} },
}

// DecodeActionTrace decodes one tagged action_trace value.
func DecodeActionTrace(data []byte) (ActionTraceVariant, error) {
	return decodeVariant("ActionTrace", data, actionTraceRegistry)
}

// PartialTransactionVariant is the sum of partial-transaction encodings
// (shipper_types.rs: PartialTransactionVariant).
type PartialTransactionVariant interface {
	isPartialTransaction()
}

// PartialTransactionV0 carries the header/signature/context-free fields of
// a transaction trace's originating transaction.
type PartialTransactionV0 struct {
	Expiration            string      `json:"expiration"`
	RefBlockNum           uint16      `json:"ref_block_num"`
	RefBlockPrefix        uint32      `json:"ref_block_prefix"`
	MaxNetUsageWords      uint32      `json:"max_net_usage_words"`
	MaxCPUUsageMS         uint8       `json:"max_cpu_usage_ms"`
	DelaySec              uint32      `json:"delay_sec"`
	TransactionExtensions []Extension `json:"transaction_extensions"`
	Signatures            []string    `json:"signatures"`
	ContextFreeData       []string    `json:"context_free_data"`
}

func (*PartialTransactionV0) isPartialTransaction() {}

// PartialTransactionV1 adds prunable_data over PartialTransactionV0.
type PartialTransactionV1 struct {
	Expiration            string              `json:"expiration"`
	RefBlockNum           uint16              `json:"ref_block_num"`
	RefBlockPrefix        uint32              `json:"ref_block_prefix"`
	MaxNetUsageWords      uint32              `json:"max_net_usage_words"`
	MaxCPUUsageMS         uint8               `json:"max_cpu_usage_ms"`
	DelaySec              uint32              `json:"delay_sec"`
	TransactionExtensions []Extension         `json:"transaction_extensions"`
	PrunableData          PrunableDataVariant `json:"-"`
}

func (*PartialTransactionV1) isPartialTransaction() {}

func (p PartialTransactionV1) MarshalJSON() ([]byte, error) {
	prunable, err := EncodePrunableData(p.PrunableData)
	if err != nil {
		return nil, err
	}
	type alias struct {
		Expiration            string          `json:"expiration"`
		RefBlockNum           uint16          `json:"ref_block_num"`
		RefBlockPrefix        uint32          `json:"ref_block_prefix"`
		MaxNetUsageWords      uint32          `json:"max_net_usage_words"`
		MaxCPUUsageMS         uint8           `json:"max_cpu_usage_ms"`
		DelaySec              uint32          `json:"delay_sec"`
		TransactionExtensions []Extension     `json:"transaction_extensions"`
		PrunableData          json.RawMessage `json:"prunable_data"`
	}
	return json.Marshal(alias{
		Expiration: p.Expiration, RefBlockNum: p.RefBlockNum, RefBlockPrefix: p.RefBlockPrefix,
		MaxNetUsageWords: p.MaxNetUsageWords, MaxCPUUsageMS: p.MaxCPUUsageMS, DelaySec: p.DelaySec,
		TransactionExtensions: p.TransactionExtensions, PrunableData: prunable,
	})
}

func (p *PartialTransactionV1) UnmarshalJSON(data []byte) error {
	type alias struct {
		Expiration            string          `json:"expiration"`
		RefBlockNum           uint16          `json:"ref_block_num"`
		RefBlockPrefix        uint32          `json:"ref_block_prefix"`
		MaxNetUsageWords      uint32          `json:"max_net_usage_words"`
		MaxCPUUsageMS         uint8           `json:"max_cpu_usage_ms"`
		DelaySec              uint32          `json:"delay_sec"`
		TransactionExtensions []Extension     `json:"transaction_extensions"`
		PrunableData          json.RawMessage `json:"prunable_data"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	prunable, err := DecodePrunableData(a.PrunableData)
	if err != nil {
		return err
	}
	p.Expiration, p.RefBlockNum, p.RefBlockPrefix = a.Expiration, a.RefBlockNum, a.RefBlockPrefix
	p.MaxNetUsageWords, p.MaxCPUUsageMS, p.DelaySec = a.MaxNetUsageWords, a.MaxCPUUsageMS, a.DelaySec
	p.TransactionExtensions = a.TransactionExtensions
	p.PrunableData = prunable
	return nil
}

var partialTransactionRegistry = map[string]func() PartialTransactionVariant{
	"partial_transaction_v0": func() PartialTransactionVariant { return &PartialTransactionV0{} },
	"partial_transaction_v1": func() PartialTransactionVariant { return &PartialTransactionV1{} },
}

// DecodePartialTransaction decodes one tagged partial_transaction value.
func DecodePartialTransaction(data []byte) (PartialTransactionVariant, error) {
	return decodeVariant("PartialTransaction", data, partialTransactionRegistry)
}

// TraceVariant is the sum of transaction trace encodings (shipper_types.rs:
// Traces enum). A single member exists today.
type TraceVariant interface {
	isTrace()
}

// TraceV0 is a complete transaction trace.
type TraceV0 struct {
	ID               string                `json:"id"`
	Status           string                `json:"status"`
	CPUUsageUS       uint32                `json:"cpu_usage_us"`
	NetUsageWords    uint32                `json:"net_usage_words"`
	ElapsedUS        int64                 `json:"elapsed"`
	NetUsage         uint64                `json:"net_usage"`
	Scheduled        bool                  `json:"scheduled"`
	ActionTraces     []ActionTraceVariant  `json:"-"`
	AccountRAMDelta  *AccountDelta         `json:"account_ram_delta"`
	Except           *string               `json:"except"`
	ErrorCode        *uint64               `json:"error_code"`
	FailedDtrxTrace  *TraceVariant         `json:"-"`
	Partial          PartialTransactionVariant `json:"-"`
}

func (*TraceV0) isTrace() {}

func (t TraceV0) MarshalJSON() ([]byte, error) {
	actionTraces := make([]json.RawMessage, len(t.ActionTraces))
	for i, at := range t.ActionTraces {
		b, err := encodeActionTrace(at)
		if err != nil {
			return nil, err
		}
		actionTraces[i] = b
	}
	var failedRaw json.RawMessage
	if t.FailedDtrxTrace != nil {
		b, err := encodeTrace(*t.FailedDtrxTrace)
		if err != nil {
			return nil, err
		}
		failedRaw = b
	}
	var partialRaw json.RawMessage
	if t.Partial != nil {
		b, err := encodePartialTransaction(t.Partial)
		if err != nil {
			return nil, err
		}
		partialRaw = b
	}
	type alias struct {
		ID              string            `json:"id"`
		Status          string            `json:"status"`
		CPUUsageUS      uint32            `json:"cpu_usage_us"`
		NetUsageWords   uint32            `json:"net_usage_words"`
		ElapsedUS       int64             `json:"elapsed"`
		NetUsage        uint64            `json:"net_usage"`
		Scheduled       bool              `json:"scheduled"`
		ActionTraces    []json.RawMessage `json:"action_traces"`
		AccountRAMDelta *AccountDelta     `json:"account_ram_delta"`
		Except          *string           `json:"except"`
		ErrorCode       *uint64           `json:"error_code"`
		FailedDtrxTrace json.RawMessage   `json:"failed_dtrx_trace,omitempty"`
		Partial         json.RawMessage   `json:"partial,omitempty"`
	}
	return json.Marshal(alias{
		ID: t.ID, Status: t.Status, CPUUsageUS: t.CPUUsageUS, NetUsageWords: t.NetUsageWords,
		ElapsedUS: t.ElapsedUS, NetUsage: t.NetUsage, Scheduled: t.Scheduled,
		ActionTraces: actionTraces, AccountRAMDelta: t.AccountRAMDelta, Except: t.Except,
		ErrorCode: t.ErrorCode, FailedDtrxTrace: failedRaw, Partial: partialRaw,
	})
}

func (t *TraceV0) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID              string            `json:"id"`
		Status          string            `json:"status"`
		CPUUsageUS      uint32            `json:"cpu_usage_us"`
		NetUsageWords   uint32            `json:"net_usage_words"`
		ElapsedUS       int64             `json:"elapsed"`
		NetUsage        uint64            `json:"net_usage"`
		Scheduled       bool              `json:"scheduled"`
		ActionTraces    []json.RawMessage `json:"action_traces"`
		AccountRAMDelta *AccountDelta     `json:"account_ram_delta"`
		Except          *string           `json:"except"`
		ErrorCode       *uint64           `json:"error_code"`
		FailedDtrxTrace json.RawMessage   `json:"failed_dtrx_trace"`
		Partial         json.RawMessage   `json:"partial"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	t.ID, t.Status, t.CPUUsageUS, t.NetUsageWords = a.ID, a.Status, a.CPUUsageUS, a.NetUsageWords
	t.ElapsedUS, t.NetUsage, t.Scheduled = a.ElapsedUS, a.NetUsage, a.Scheduled
	t.AccountRAMDelta, t.Except, t.ErrorCode = a.AccountRAMDelta, a.Except, a.ErrorCode

	t.ActionTraces = make([]ActionTraceVariant, len(a.ActionTraces))
	for i, raw := range a.ActionTraces {
		at, err := DecodeActionTrace(raw)
		if err != nil {
			return err
		}
		t.ActionTraces[i] = at
	}
	if len(a.FailedDtrxTrace) > 0 && string(a.FailedDtrxTrace) != "null" {
		ft, err := DecodeTrace(a.FailedDtrxTrace)
		if err != nil {
			return err
		}
		t.FailedDtrxTrace = &ft
	}
	if len(a.Partial) > 0 && string(a.Partial) != "null" {
		pt, err := DecodePartialTransaction(a.Partial)
		if err != nil {
			return err
		}
		t.Partial = pt
	}
	return nil
}

var traceRegistry = map[string]func() TraceVariant{
	"transaction_trace_v0": func() TraceVariant { return &TraceV0{} },
}

// DecodeTrace decodes one tagged transaction_trace value.
func DecodeTrace(data []byte) (TraceVariant, error) {
	return decodeVariant("Trace", data, traceRegistry)
}

func encodeTrace(v TraceVariant) ([]byte, error) {
	switch t := v.(type) {
	case *TraceV0:
		return encodeTagged("transaction_trace_v0", t)
	default:
		return nil, fmt.Errorf("wire: unknown trace type %T", v)
	}
}

func encodeActionTrace(v ActionTraceVariant) ([]byte, error) {
	switch t := v.(type) {
	case *ActionTraceV0:
		return encodeTagged("action_trace_v0", t)
	case *ActionTraceV1:
		return encodeTagged("action_trace_v1", t)
	default:
		return nil, fmt.Errorf("wire: unknown action trace type %T", v)
	}
}

func encodePartialTransaction(v PartialTransactionVariant) ([]byte, error) {
	switch p := v.(type) {
	case *PartialTransactionV0:
		return encodeTagged("partial_transaction_v0", p)
	case *PartialTransactionV1:
		return encodeTagged("partial_transaction_v1", p)
	default:
		return nil, fmt.Errorf("wire: unknown partial transaction type %T", v)
	}
}

// DecodeTraces decodes the "transaction_trace[]" schema type: a JSON array
// of tagged transaction traces.
func DecodeTraces(data []byte) ([]TraceVariant, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("wire: decode transaction_trace[]: %w", err)
	}
	out := make([]TraceVariant, len(raws))
	for i, raw := range raws {
		t, err := DecodeTrace(raw)
		if err != nil {
			return nil, fmt.Errorf("wire: transaction_trace[%d]: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}
