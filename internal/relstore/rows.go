package relstore

// RuneEntryRow is one row of the rune_entry table: the queryable
// projection of a FastStore RuneEntry plus derived columns (holders,
// transactions) that only RelStore maintains.
type RuneEntryRow struct {
	RuneID       string
	Etching      string
	Number       uint64
	Rune         string
	SpacedRune   string
	Symbol       *string
	Divisibility uint8
	Premine      string
	Amount       *string
	Cap          *string
	StartHeight  *uint64
	EndHeight    *uint64
	StartOffset  *uint64
	EndOffset    *uint64
	Mints        string
	Turbo        bool
	Burned       string
	Mintable     bool
	Holders      uint32
	Transactions uint32
	Height       uint64
	Timestamp    uint64
}

// RuneBalanceRow is one row of the rune_balance table.
type RuneBalanceRow struct {
	Txid        string
	Vout        uint32
	Value       uint64
	RuneID      string
	RuneAmount  string
	Address     string
	Height      uint64
	Idx         uint32
	Timestamp   uint64
	SpentHeight uint64
	SpentTxid   *string
	SpentVin    *uint32
	SpentTs     *uint64
}

// SpentUpdate marks a previously-inserted balance row as spent.
type SpentUpdate struct {
	Txid        string
	Vout        uint32
	RuneID      string
	SpentHeight uint64
	SpentTxid   string
	SpentVin    uint32
	SpentTs     uint64
}
