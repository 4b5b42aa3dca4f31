package bitcode

// Magic is the PNaCl executable signature at the start of every file.
const Magic = "PEXE"

// Standard abbreviation IDs. Tags at or above FirstApplicationAbbrev select
// an abbreviation defined for the current block.
const (
	EndBlock               uint32 = 0
	EnterSubblock          uint32 = 1
	DefineAbbrev           uint32 = 2
	UnabbrevRecord         uint32 = 3
	FirstApplicationAbbrev uint32 = 4
)

// BlockInfoID is the reserved block that declares abbreviations and names
// for other block IDs.
const BlockInfoID uint32 = 0

// BLOCKINFO record codes.
const (
	BlockInfoSetBID        uint32 = 1
	BlockInfoBlockName     uint32 = 2
	BlockInfoSetRecordName uint32 = 3
)

// Operand encodings as written in DEFINE_ABBREV.
const (
	encodingFixed = 1
	encodingVBR   = 2
	encodingArray = 3
	encodingChar6 = 4
	encodingBlob  = 5
)

// Field widths of the container format.
const (
	topLevelCodeLen  = 2 // tag width outside any block
	blockIDWidth     = 8 // VBR
	codeLenWidth     = 4 // VBR
	abbrevCountWidth = 5 // VBR
	literalWidth     = 8 // VBR
	operandWidth     = 5 // VBR, Fixed/VBR operand widths
	arrayCountWidth  = 6 // VBR
	blobCountWidth   = 6 // fixed
	unabbrevWidth    = 6 // VBR, code/count/values of UNABBREV_RECORD
	char6Width       = 6
)

// DefaultMaxDepth bounds block nesting when Options.MaxDepth is unset.
const DefaultMaxDepth = 64

// DefaultMaxValues is the smallest value budget used when Options.MaxValues
// is unset.
const DefaultMaxValues = 1 << 20

const char6Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._"
