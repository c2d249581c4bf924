package trainer

import (
	"encoding/binary"
	"fmt"
)

// maxObjects bounds the size of an object table read from the target.
const maxObjects = 1 << 14

// table is a copy of one of the board's object arrays.
type table struct {
	address    uint32
	structSize uint32
	raw        []byte
}

func (o table) count() int {
	return len(o.raw) / int(o.structSize)
}

func (o table) entryAddress(i int) uint32 {
	return o.address + uint32(i)*o.structSize
}

func (o table) boolAt(i int, offset uint32) bool {
	return o.raw[uint32(i)*o.structSize+offset] != 0
}

func (o table) int32At(i int, offset uint32) int32 {
	start := uint32(i)*o.structSize + offset
	return int32(binary.LittleEndian.Uint32(o.raw[start : start+4]))
}

// readTable copies the array whose pointer and capacity are stored at
// the named board offsets.
func (o *Session) readTable(pointerName string, countName string, structSizeName string) (table, error) {
	address, err := o.readUint32(o.board(pointerName))
	if err != nil {
		return table{}, err
	}

	count, err := o.readUint32(o.board(countName))
	if err != nil {
		return table{}, err
	}

	if count > maxObjects {
		return table{}, fmt.Errorf("%s capacity %d exceeds %d", countName, count, maxObjects)
	}

	structSize := o.profile.Offset(structSizeName)
	if structSize == 0 {
		return table{}, fmt.Errorf("%s is zero", structSizeName)
	}

	t := table{
		address:    address,
		structSize: structSize,
	}

	if count == 0 {
		return t, nil
	}

	t.raw, err = o.target.ReadMemory(address, int(count*structSize))
	if err != nil {
		return table{}, fmt.Errorf("failed to read %d %s entries at 0x%x - %w",
			count, pointerName, address, err)
	}

	return t, nil
}

type plantEntry struct {
	address  uint32
	row      int
	col      int
	typ      int
	imitater bool
	asleep   bool
}

// plants returns the plants that are on the board.
func (o *Session) plants() ([]plantEntry, error) {
	t, err := o.readTable("plant", "plant_count_max", "plant_struct_size")
	if err != nil {
		return nil, err
	}

	p := o.profile

	var plants []plantEntry
	for i := 0; i < t.count(); i++ {
		if t.boolAt(i, p.Offset("plant_dead")) || t.boolAt(i, p.Offset("plant_squished")) {
			continue
		}

		plants = append(plants, plantEntry{
			address:  t.entryAddress(i),
			row:      int(t.int32At(i, p.Offset("plant_row"))),
			col:      int(t.int32At(i, p.Offset("plant_col"))),
			typ:      int(t.int32At(i, p.Offset("plant_type"))),
			imitater: t.int32At(i, p.Offset("plant_imitater")) == PlantImitater,
			asleep:   t.boolAt(i, p.Offset("plant_asleep")),
		})
	}

	return plants, nil
}

type gridItemEntry struct {
	address uint32
	row     int
	col     int
	typ     int
}

// gridItems returns the grid items that are on the board.
func (o *Session) gridItems() ([]gridItemEntry, error) {
	t, err := o.readTable("grid_item", "grid_item_count_max", "grid_item_struct_size")
	if err != nil {
		return nil, err
	}

	p := o.profile

	var items []gridItemEntry
	for i := 0; i < t.count(); i++ {
		if t.boolAt(i, p.Offset("grid_item_dead")) {
			continue
		}

		items = append(items, gridItemEntry{
			address: t.entryAddress(i),
			row:     int(t.int32At(i, p.Offset("grid_item_row"))),
			col:     int(t.int32At(i, p.Offset("grid_item_col"))),
			typ:     int(t.int32At(i, p.Offset("grid_item_type"))),
		})
	}

	return items, nil
}

// liveEntries returns the addresses of the entries of a table whose
// dead flag is clear.
func (o *Session) liveEntries(pointerName string, countName string, structSizeName string, deadName string) ([]uint32, error) {
	t, err := o.readTable(pointerName, countName, structSizeName)
	if err != nil {
		return nil, err
	}

	var live []uint32
	for i := 0; i < t.count(); i++ {
		if !t.boolAt(i, o.profile.Offset(deadName)) {
			live = append(live, t.entryAddress(i))
		}
	}

	return live, nil
}

// blockType returns the terrain of a cell: 1 grass, 2 bare, 3 water.
func (o *Session) blockType(row int, col int) (int32, error) {
	return o.readInt32(o.board().Append(
		o.profile.Offset("block_type") + 4*uint32(row) + 0x18*uint32(col)))
}

// Terrain values returned by blockType.
const (
	blockGrass = 1
	blockWater = 3
)

// cells expands row and col, where -1 means every row or column.
func cells(row int, col int, rows int, cols int, step int) [][2]int {
	var out [][2]int

	rowList := []int{row}
	if row == -1 {
		rowList = rowList[:0]
		for r := 0; r < rows; r++ {
			rowList = append(rowList, r)
		}
	}

	colList := []int{col}
	if col == -1 {
		colList = colList[:0]
		for c := 0; c < cols; c += step {
			colList = append(colList, c)
		}
	}

	for _, r := range rowList {
		for _, c := range colList {
			out = append(out, [2]int{r, c})
		}
	}

	return out
}
