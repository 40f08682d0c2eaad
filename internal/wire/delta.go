package wire

import (
	"encoding/json"
	"fmt"
)

// TableRow is a single present/absent row inside a table_delta_v0, with its
// data left as raw hex; see enrich.RichRow for the RE-decoded form.
type TableRow struct {
	Present bool   `json:"present"`
	Data    string `json:"data"`
}

// TableDeltaVariant is the sum of table delta encodings (shipper_types.rs:
// TableDeltas enum). A single member exists today.
type TableDeltaVariant interface {
	isTableDelta()
}

// TableDeltaV0 names a table (by its contract row type) and lists the rows
// that changed within it for a block.
type TableDeltaV0 struct {
	Name string     `json:"name"`
	Rows []TableRow `json:"rows"`
}

func (*TableDeltaV0) isTableDelta() {}

var tableDeltaRegistry = map[string]func() TableDeltaVariant{
	"table_delta_v0": func() TableDeltaVariant { return &TableDeltaV0{} },
}

// DecodeTableDelta decodes one tagged table_delta value.
func DecodeTableDelta(data []byte) (TableDeltaVariant, error) {
	return decodeVariant("TableDelta", data, tableDeltaRegistry)
}

// DecodeTableDeltas decodes the "table_delta[]" schema type: a JSON array
// of tagged table deltas.
func DecodeTableDeltas(data []byte) ([]TableDeltaVariant, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("wire: decode table_delta[]: %w", err)
	}
	out := make([]TableDeltaVariant, len(raws))
	for i, raw := range raws {
		d, err := DecodeTableDelta(raw)
		if err != nil {
			return nil, fmt.Errorf("wire: table_delta[%d]: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// RowType is the sum of contract_row/table/index/account/resource record
// kinds known to the reference enrichment, plus Other for anything the
// schema names that this module does not special-case (shipper_types.rs:
// TableRowTypes enum and its ROWTYPES lazy_static set). A row decoded to
// Other is not an error: it means the schema produced valid JSON for a
// table name this module does not separately model.
type RowType interface {
	isRowType()
	RowTypeName() string
}

// ContractTableV0 describes one contract table's metadata (not its rows).
type ContractTableV0 struct {
	Code  string `json:"code"`
	Scope string `json:"scope"`
	Table string `json:"table"`
	Payer string `json:"payer"`
}

func (*ContractTableV0) isRowType()            {}
func (*ContractTableV0) RowTypeName() string   { return "contract_table" }

// ContractRowV0 is a single contract table row (the common case).
type ContractRowV0 struct {
	Code       string `json:"code"`
	Scope      string `json:"scope"`
	Table      string `json:"table"`
	PrimaryKey uint64 `json:"primary_key"`
	Payer      string `json:"payer"`
	Value      string `json:"value"`
}

func (*ContractRowV0) isRowType()          {}
func (*ContractRowV0) RowTypeName() string { return "contract_row" }

// secondaryIndexV0 is the shared shape of the five secondary-index row
// kinds (contract_index64/128/256/double/long_double), which differ only
// in their secondary_key's wire type; modeled here as a string to keep a
// single Go struct and avoid five near-duplicates.
type secondaryIndexV0 struct {
	Code         string `json:"code"`
	Scope        string `json:"scope"`
	Table        string `json:"table"`
	PrimaryKey   uint64 `json:"primary_key"`
	Payer        string `json:"payer"`
	SecondaryKey string `json:"secondary_key"`
}

type ContractIndex64V0 struct{ secondaryIndexV0 }
type ContractIndex128V0 struct{ secondaryIndexV0 }
type ContractIndex256V0 struct{ secondaryIndexV0 }
type ContractIndexDoubleV0 struct{ secondaryIndexV0 }
type ContractIndexLongDoubleV0 struct{ secondaryIndexV0 }

func (*ContractIndex64V0) isRowType()              {}
func (*ContractIndex64V0) RowTypeName() string     { return "contract_index64" }
func (*ContractIndex128V0) isRowType()             {}
func (*ContractIndex128V0) RowTypeName() string    { return "contract_index128" }
func (*ContractIndex256V0) isRowType()             {}
func (*ContractIndex256V0) RowTypeName() string    { return "contract_index256" }
func (*ContractIndexDoubleV0) isRowType()          {}
func (*ContractIndexDoubleV0) RowTypeName() string { return "contract_index_double" }
func (*ContractIndexLongDoubleV0) isRowType()          {}
func (*ContractIndexLongDoubleV0) RowTypeName() string { return "contract_index_long_double" }

// CodeID identifies a deployed contract's code by VM and hash.
type CodeID struct {
	VMType    uint8  `json:"vm_type"`
	VMVersion uint8  `json:"vm_version"`
	CodeHash  string `json:"code_hash"`
}

// CodeV0 is a deployed contract's WASM code record.
type CodeV0 struct {
	VMType    uint8  `json:"vm_type"`
	VMVersion uint8  `json:"vm_version"`
	CodeHash  string `json:"code_hash"`
	Code      string `json:"code"`
}

func (*CodeV0) isRowType()          {}
func (*CodeV0) RowTypeName() string { return "code" }

// AccountMetadataV0 records an account's privilege flag and currently
// deployed code identity.
type AccountMetadataV0 struct {
	Name           string  `json:"name"`
	Privileged     bool    `json:"privileged"`
	LastCodeUpdate string  `json:"last_code_update"`
	Code           *CodeID `json:"code"`
}

func (*AccountMetadataV0) isRowType()          {}
func (*AccountMetadataV0) RowTypeName() string { return "account_metadata" }

// AccountV0 is an account's creation record and (if a contract) its ABI.
type AccountV0 struct {
	Name         string `json:"name"`
	CreationDate string `json:"creation_date"`
	ABI          string `json:"abi"`
}

func (*AccountV0) isRowType()          {}
func (*AccountV0) RowTypeName() string { return "account" }

// UsageAccumulatorV0 is an exponential-moving-average resource usage
// accumulator.
type UsageAccumulatorV0 struct {
	LastOrdinal uint32 `json:"last_ordinal"`
	ValueEx     uint64 `json:"value_ex"`
	Consumed    uint64 `json:"consumed"`
}

// ResourceUsageV0 records an account's net/cpu/ram usage.
type ResourceUsageV0 struct {
	Owner    string             `json:"owner"`
	NetUsage UsageAccumulatorV0 `json:"net_usage"`
	CPUUsage UsageAccumulatorV0 `json:"cpu_usage"`
	RAMUsage uint64             `json:"ram_usage"`
}

func (*ResourceUsageV0) isRowType()          {}
func (*ResourceUsageV0) RowTypeName() string { return "resource_usage" }

// ResourceLimitsV0 records an account's net/cpu weights and RAM bytes.
type ResourceLimitsV0 struct {
	Owner     string `json:"owner"`
	NetWeight int64  `json:"net_weight"`
	CPUWeight int64  `json:"cpu_weight"`
	RAMBytes  int64  `json:"ram_bytes"`
}

func (*ResourceLimitsV0) isRowType()          {}
func (*ResourceLimitsV0) RowTypeName() string { return "resource_limits" }

// ResourceLimitsRatioV0 is a numerator/denominator pair used by elastic
// limit parameters.
type ResourceLimitsRatioV0 struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

// ElasticLimitParametersV0 configures how quickly a resource's virtual
// limit expands or contracts.
type ElasticLimitParametersV0 struct {
	Target         uint64                `json:"target"`
	Max            uint64                `json:"max"`
	Periods        uint32                `json:"periods"`
	MaxMultiplier  uint32                `json:"max_multiplier"`
	ContractRate   ResourceLimitsRatioV0 `json:"contract_rate"`
	ExpandRate     ResourceLimitsRatioV0 `json:"expand_rate"`
}

// ResourceLimitsConfigV0 is the chain-wide resource limits configuration.
type ResourceLimitsConfigV0 struct {
	CPULimitParameters             ElasticLimitParametersV0 `json:"cpu_limit_parameters"`
	NetLimitParameters             ElasticLimitParametersV0 `json:"net_limit_parameters"`
	AccountCPUUsageAverageWindow   uint32                   `json:"account_cpu_usage_average_window"`
	AccountNetUsageAverageWindow   uint32                   `json:"account_net_usage_average_window"`
}

func (*ResourceLimitsConfigV0) isRowType()          {}
func (*ResourceLimitsConfigV0) RowTypeName() string { return "resource_limits_config" }

// ResourceLimitsStateV0 is the chain-wide resource limits usage state.
type ResourceLimitsStateV0 struct {
	AverageBlockNetUsage UsageAccumulatorV0 `json:"average_block_net_usage"`
	AverageBlockCPUUsage UsageAccumulatorV0 `json:"average_block_cpu_usage"`
	TotalNetWeight       uint64             `json:"total_net_weight"`
	TotalCPUWeight       uint64             `json:"total_cpu_weight"`
	TotalRAMBytes        uint64             `json:"total_ram_bytes"`
	VirtualNetLimit      uint64             `json:"virtual_net_limit"`
	VirtualCPULimit      uint64             `json:"virtual_cpu_limit"`
}

func (*ResourceLimitsStateV0) isRowType()          {}
func (*ResourceLimitsStateV0) RowTypeName() string { return "resource_limits_state" }

// Other holds the raw decoded JSON for a row type this module does not
// separately model (shipper_types.rs: TableRowTypes::Other). Tag is the
// table name exactly as the schema produced it.
type Other struct {
	Tag  string
	JSON json.RawMessage
}

func (*Other) isRowType()          {}
func (o *Other) RowTypeName() string { return o.Tag }

// rowTypeRegistry maps a contract_table's table name to the concrete Go
// type used to decode its rows. Anything not listed here decodes to Other
// rather than failing, matching shipper_types.rs's ROWTYPES fallback.
var rowTypeRegistry = map[string]func() RowType{
	"contract_table":              func() RowType { return &ContractTableV0{} },
	"contract_row":                func() RowType { return &ContractRowV0{} },
	"contract_index64":            func() RowType { return &ContractIndex64V0{} },
	"contract_index128":           func() RowType { return &ContractIndex128V0{} },
	"contract_index256":           func() RowType { return &ContractIndex256V0{} },
	"contract_index_double":       func() RowType { return &ContractIndexDoubleV0{} },
	"contract_index_long_double":  func() RowType { return &ContractIndexLongDoubleV0{} },
	"code":                        func() RowType { return &CodeV0{} },
	"account_metadata":            func() RowType { return &AccountMetadataV0{} },
	"account":                     func() RowType { return &AccountV0{} },
	"resource_usage":              func() RowType { return &ResourceUsageV0{} },
	"resource_limits":             func() RowType { return &ResourceLimitsV0{} },
	"resource_limits_state":       func() RowType { return &ResourceLimitsStateV0{} },
	"resource_limits_config":      func() RowType { return &ResourceLimitsConfigV0{} },
}

// DecodeTableRow decodes a row's canonical JSON text according to name
// (the owning table_delta_v0's Name field). Like every other sum in this
// package, a known row type still arrives wrapped as a two-element
// ["<name>_v0", payload] tagged array, even though each table name only
// ever has one member; unknown names produce Other rather than an error,
// per the row-type fallback invariant.
func DecodeTableRow(name string, data []byte) (RowType, error) {
	ctor, ok := rowTypeRegistry[name]
	if !ok {
		return &Other{Tag: name, JSON: append(json.RawMessage(nil), data...)}, nil
	}
	var arr [2]json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, &MalformedVariantError{Sum: "RowType", Err: err}
	}
	var tag string
	if err := json.Unmarshal(arr[0], &tag); err != nil {
		return nil, &MalformedVariantError{Sum: "RowType", Err: err}
	}
	if wantTag := name + "_v0"; tag != wantTag {
		return nil, &UnknownVariantError{Sum: "RowType", Tag: tag}
	}
	v := ctor()
	if err := json.Unmarshal(arr[1], v); err != nil {
		return nil, &MalformedVariantError{Sum: "RowType", Tag: tag, Err: err}
	}
	return v, nil
}
