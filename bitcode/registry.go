package bitcode

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/pexe/errors"
)

// RecordName is a display name for a record code within one block ID.
type RecordName struct {
	Name string
	Code uint32
}

// Registry holds the abbreviations and names declared by BLOCKINFO blocks.
//
// A Registry belongs to a single decode. It is mutated only while a
// BLOCKINFO block is being read; other blocks take snapshot copies of their
// abbreviation list, so later definitions never change a block already in
// progress. A Registry is not safe for concurrent use.
type Registry struct {
	abbrevs     map[uint32][]Abbreviation
	blockNames  map[uint32]string
	recordNames map[uint32][]RecordName
	log         *zap.Logger
	current     uint32
	hasCurrent  bool
}

func newRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = Logger()
	}
	return &Registry{
		abbrevs:     make(map[uint32][]Abbreviation),
		blockNames:  make(map[uint32]string),
		recordNames: make(map[uint32][]RecordName),
		log:         log,
	}
}

// Abbreviations returns a copy of the abbreviations registered for id.
func (r *Registry) Abbreviations(id uint32) []Abbreviation {
	return slices.Clone(r.abbrevs[id])
}

// target returns the block ID selected by the last SETBID record.
func (r *Registry) target() (uint32, bool) {
	return r.current, r.hasCurrent
}

// observe applies a record read inside a BLOCKINFO block.
// Codes other than SETBID, BLOCKNAME and SETRECORDNAME are ignored.
func (r *Registry) observe(rec *Record, offset uint64) error {
	switch rec.Code {
	case BlockInfoSetBID:
		if len(rec.Values) < 1 {
			return errors.InvalidData(errors.PhaseBlockInfo, offset, "SETBID record without block id")
		}
		if rec.Values[0] > math.MaxUint32 {
			return errors.New(errors.PhaseBlockInfo, errors.KindOverflow).
				Offset(offset).
				Value(rec.Values[0]).
				Detail("SETBID block id %d exceeds 32 bits", rec.Values[0]).
				Build()
		}
		id := uint32(rec.Values[0])
		r.current, r.hasCurrent = id, true
		if _, ok := r.abbrevs[id]; !ok {
			r.abbrevs[id] = nil
		}
		if _, ok := r.recordNames[id]; !ok {
			r.recordNames[id] = nil
		}
		r.log.Debug("blockinfo target", zap.Uint32("block_id", id), zap.Uint64("bit", offset))

	case BlockInfoBlockName:
		id, ok := r.target()
		if !ok {
			return noTarget(offset, "BLOCKNAME")
		}
		name, ok := charString(rec.Values)
		if !ok {
			return errors.InvalidData(errors.PhaseBlockInfo, offset, "BLOCKNAME is not a character sequence")
		}
		r.blockNames[id] = name

	case BlockInfoSetRecordName:
		id, ok := r.target()
		if !ok {
			return noTarget(offset, "SETRECORDNAME")
		}
		if len(rec.Values) < 1 || rec.Values[0] > math.MaxUint32 {
			return errors.InvalidData(errors.PhaseBlockInfo, offset, "SETRECORDNAME without valid record code")
		}
		name, ok := charString(rec.Values[1:])
		if !ok {
			return errors.InvalidData(errors.PhaseBlockInfo, offset, "SETRECORDNAME is not a character sequence")
		}
		r.recordNames[id] = append(r.recordNames[id], RecordName{
			Code: uint32(rec.Values[0]),
			Name: name,
		})
	}
	return nil
}

// define registers an abbreviation read inside a BLOCKINFO block for the
// current target block.
func (r *Registry) define(a Abbreviation, offset uint64) error {
	id, ok := r.target()
	if !ok {
		return noTarget(offset, "DEFINE_ABBREV")
	}
	r.abbrevs[id] = append(r.abbrevs[id], a)
	if ce := r.log.Check(zap.DebugLevel, "blockinfo abbreviation"); ce != nil {
		ce.Write(
			zap.Uint32("block_id", id),
			zap.Uint32("abbrev_id", FirstApplicationAbbrev+uint32(len(r.abbrevs[id])-1)),
			zap.Stringer("ops", a),
		)
	}
	return nil
}

func noTarget(offset uint64, what string) error {
	return errors.New(errors.PhaseBlockInfo, errors.KindNoTargetBlock).
		Offset(offset).
		Detail("%s before SETBID", what).
		Build()
}

// BlockInfo is the immutable naming information left behind by BLOCKINFO
// blocks once a document has been decoded.
type BlockInfo struct {
	BlockNames  map[uint32]string
	RecordNames map[uint32]map[uint32]string
	// Abbrevs counts the abbreviations registered per block ID.
	Abbrevs map[uint32]int
}

// BlockName returns the declared name of a block ID.
func (bi *BlockInfo) BlockName(id uint32) (string, bool) {
	if bi == nil {
		return "", false
	}
	name, ok := bi.BlockNames[id]
	return name, ok
}

// RecordName returns the declared name of a record code within a block ID.
func (bi *BlockInfo) RecordName(blockID, code uint32) (string, bool) {
	if bi == nil {
		return "", false
	}
	name, ok := bi.RecordNames[blockID][code]
	return name, ok
}

// BlockIDs returns every block ID targeted by a SETBID record, sorted.
func (bi *BlockInfo) BlockIDs() []uint32 {
	if bi == nil {
		return nil
	}
	ids := make([]uint32, 0, len(bi.Abbrevs))
	for id := range bi.Abbrevs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Snapshot copies the registry's naming information.
func (r *Registry) Snapshot() *BlockInfo {
	bi := &BlockInfo{
		BlockNames:  make(map[uint32]string, len(r.blockNames)),
		RecordNames: make(map[uint32]map[uint32]string, len(r.recordNames)),
		Abbrevs:     make(map[uint32]int, len(r.abbrevs)),
	}
	for id, name := range r.blockNames {
		bi.BlockNames[id] = name
	}
	for id, names := range r.recordNames {
		m := make(map[uint32]string, len(names))
		for _, rn := range names {
			m[rn.Code] = rn.Name
		}
		bi.RecordNames[id] = m
	}
	for id, list := range r.abbrevs {
		bi.Abbrevs[id] = len(list)
	}
	return bi
}
