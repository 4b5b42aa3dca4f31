package dump

import "github.com/wippyai/pexe/bitcode"

// Names supplies display names for block IDs and record codes. Entries here
// take precedence over names declared by the document's BLOCKINFO blocks.
type Names struct {
	Blocks  map[uint32]string
	Records map[uint32]map[uint32]string
}

var blockInfoRecords = map[uint32]string{
	bitcode.BlockInfoSetBID:        "SETBID",
	bitcode.BlockInfoBlockName:     "BLOCKNAME",
	bitcode.BlockInfoSetRecordName: "SETRECORDNAME",
}

// Block returns the name of a block ID, or "".
func (n Names) Block(info *bitcode.BlockInfo, id uint32) string {
	if name, ok := n.Blocks[id]; ok {
		return name
	}
	if name, ok := info.BlockName(id); ok {
		return name
	}
	if id == bitcode.BlockInfoID {
		return "BLOCKINFO"
	}
	return ""
}

// Record returns the name of a record code within a block ID, or "".
func (n Names) Record(info *bitcode.BlockInfo, blockID, code uint32) string {
	if name, ok := n.Records[blockID][code]; ok {
		return name
	}
	if name, ok := info.RecordName(blockID, code); ok {
		return name
	}
	if blockID == bitcode.BlockInfoID {
		return blockInfoRecords[code]
	}
	return ""
}
