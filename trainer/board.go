package trainer

import (
	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/lineup"
	"gitlab.com/stephen-fox/pvzkit/memory"
)

// zombieDying is the zombie status that removes a zombie at once.
const zombieDying = 3

// All selects every row or every column in the placement features.
const All = -1

// PutPlant plants typ at row and col. Either may be All. Cob
// cannons take two columns and are not planted in the last one.
func (o *Session) PutPlant(row int, col int, typ int, imitater bool) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	rows, err := o.rowCount()
	if err != nil {
		return err
	}

	mode, err := o.gameMode()
	if err != nil {
		return err
	}

	cols, width := lineup.Cols, 1
	if typ == PlantCobCannon {
		cols, width = lineup.Cols-1, 2
	}

	b := asmkit.NewBuilder()
	for _, cell := range cells(row, col, rows, cols, width) {
		o.code.PutPlant(b, cell[0], cell[1], typ, imitater, isIZStyle(mode))
	}

	return o.run(b.Ret())
}

// PutZombie spawns typ at row and col. Either may be All. Dr. Zomboss
// ignores row and col.
func (o *Session) PutZombie(row int, col int, typ int) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	b := asmkit.NewBuilder()

	if typ == ZombieZomboss {
		o.code.PutZomboss(b)
		return o.run(b.Ret())
	}

	rows, err := o.rowCount()
	if err != nil {
		return err
	}

	for _, cell := range cells(row, col, rows, lineup.Cols, 1) {
		o.code.PutZombie(b, cell[0], cell[1], typ)
	}

	return o.run(b.Ret())
}

// PutGrave places graves at row and col. Either may be All.
func (o *Session) PutGrave(row int, col int) error {
	return o.place(row, col, o.code.PutGrave)
}

// PutLadder places ladders at row and col. Either may be All.
func (o *Session) PutLadder(row int, col int) error {
	return o.place(row, col, o.code.PutLadder)
}

func (o *Session) place(row int, col int, emit func(*asmkit.Builder, int, int)) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	rows, err := o.rowCount()
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	for _, cell := range cells(row, col, rows, lineup.Cols, 1) {
		emit(b, cell[0], cell[1])
	}

	return o.run(b.Ret())
}

// AutoLadder removes every ladder, then places one on each pumpkin
// on grass outside the first column. With imitaterPumpkinOnly only
// imitater pumpkins get a ladder.
func (o *Session) AutoLadder(imitaterPumpkinOnly bool) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	err = o.clearGridItems(GridItemLadder)
	if err != nil {
		return err
	}

	plants, err := o.plants()
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	for _, plant := range plants {
		if plant.typ != PlantPumpkin || plant.col == 0 {
			continue
		}

		if imitaterPumpkinOnly && !plant.imitater {
			continue
		}

		block, err := o.blockType(plant.row, plant.col)
		if err != nil {
			return err
		}

		if block == blockGrass {
			o.code.PutLadder(b, plant.row, plant.col)
		}
	}

	return o.run(b.Ret())
}

// ClearAllPlants removes every plant.
func (o *Session) ClearAllPlants() error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	return o.clearAllPlants()
}

func (o *Session) clearAllPlants() error {
	plants, err := o.plants()
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	for _, plant := range plants {
		o.code.DeletePlant(b, plant.address)
	}

	return o.run(b.Ret())
}

// KillAllZombies removes every zombie on the board.
func (o *Session) KillAllZombies() error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	zombies, err := o.liveEntries("zombie", "zombie_count_max", "zombie_struct_size", "zombie_dead")
	if err != nil {
		return err
	}

	for _, zombie := range zombies {
		err := o.writeInt32(memory.Path(zombie+o.profile.Offset("zombie_status")), zombieDying)
		if err != nil {
			return err
		}
	}

	return nil
}

// ClearAllLawnMowers removes every lawn mower.
func (o *Session) ClearAllLawnMowers() error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	mowers, err := o.liveEntries("lawn_mower", "lawn_mower_count_max", "lawn_mower_struct_size", "lawn_mower_dead")
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	for _, mower := range mowers {
		o.code.DeleteLawnMower(b, mower)
	}

	return o.run(b.Ret())
}

// ClearGridItems removes every grid item of the given types, for
// example GridItemGrave or GridItemVase.
func (o *Session) ClearGridItems(types ...int) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	return o.clearGridItems(types...)
}

func (o *Session) clearGridItems(types ...int) error {
	items, err := o.gridItems()
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	for _, item := range items {
		for _, typ := range types {
			if item.typ == typ {
				o.code.DeleteGridItem(b, item.address)
				break
			}
		}
	}

	return o.run(b.Ret())
}

// DirectWin completes the level being played.
func (o *Session) DirectWin() error {
	if !o.ready() {
		return nil
	}

	ui, err := o.gameUI()
	if err != nil || ui != uiPlaying {
		return err
	}

	b := asmkit.NewBuilder()
	o.code.LevelComplete(b)

	return o.run(b.Ret())
}

// occupied returns the cells holding a plant.
func (o *Session) occupied() ([lineup.MaxRows][lineup.Cols]bool, error) {
	var taken [lineup.MaxRows][lineup.Cols]bool

	plants, err := o.plants()
	if err != nil {
		return taken, err
	}

	for _, plant := range plants {
		if inBoard(plant.row, plant.col) {
			taken[plant.row][plant.col] = true
		}
	}

	return taken, nil
}

func inBoard(row int, col int) bool {
	return row >= 0 && row < lineup.MaxRows && col >= 0 && col < lineup.Cols
}

// LilyPadOnPool plants lily pads on every empty water cell between
// the 1-based columns fromCol and toCol.
func (o *Session) LilyPadOnPool(fromCol int, toCol int) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	taken, err := o.occupied()
	if err != nil {
		return err
	}

	rows, err := o.rowCount()
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	for r := 0; r < rows; r++ {
		for c := fromCol - 1; c <= toCol-1; c++ {
			if c < 0 || c >= lineup.Cols || taken[r][c] {
				continue
			}

			block, err := o.blockType(r, c)
			if err != nil {
				return err
			}

			if block == blockWater {
				o.code.PutPlant(b, r, c, PlantLilyPad, false, false)
			}
		}
	}

	return o.run(b.Ret())
}

// FlowerPotOnRoof plants flower pots on every empty roof cell between
// the 1-based columns fromCol and toCol.
func (o *Session) FlowerPotOnRoof(fromCol int, toCol int) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	scene, err := o.scene()
	if err != nil {
		return err
	}

	if scene != int32(lineup.Roof) && scene != int32(lineup.Moon) {
		return nil
	}

	taken, err := o.occupied()
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	for r := 0; r < 5; r++ {
		for c := fromCol - 1; c <= toCol-1; c++ {
			if c < 0 || c >= lineup.Cols || taken[r][c] {
				continue
			}

			o.code.PutPlant(b, r, c, PlantFlowerPot, false, false)
		}
	}

	return o.run(b.Ret())
}
