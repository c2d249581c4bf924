package trainer

import (
	"fmt"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/lineup"
)

// maySleep lists the plants that sleep during the day.
var maySleep = [lineup.MaxPlantType + 1]bool{
	8: true, 9: true, 10: true, 12: true, 13: true, 14: true, 15: true,
	24: true, 31: true, 42: true,
}

// Snapshot reads the board into a lineup.Snapshot.
func (o *Session) Snapshot() (lineup.Snapshot, error) {
	if !o.ready() {
		return lineup.Snapshot{}, ErrTargetUnavailable
	}

	ok, err := o.inLevel()
	if err != nil {
		return lineup.Snapshot{}, err
	}

	if !ok {
		return lineup.Snapshot{}, fmt.Errorf("%w - not in a level", ErrTargetUnavailable)
	}

	scene, err := o.scene()
	if err != nil {
		return lineup.Snapshot{}, err
	}

	if scene < 0 || scene > int32(lineup.Moon) {
		return lineup.Snapshot{}, fmt.Errorf("unknown scene: %d", scene)
	}

	snapshot := lineup.Snapshot{Scene: lineup.Scene(scene)}
	rows := snapshot.Rows()

	onBoard := func(row int, col int) bool {
		return row >= 0 && row < rows && col >= 0 && col < lineup.Cols
	}

	plants, err := o.plants()
	if err != nil {
		return lineup.Snapshot{}, err
	}

	for _, plant := range plants {
		if plant.typ < 0 || plant.typ > lineup.MaxPlantType || !onBoard(plant.row, plant.col) {
			continue
		}

		cell := &snapshot.Cells[plant.row][plant.col]

		switch plant.typ {
		case PlantLilyPad:
			cell.Base, cell.BaseImitater = lineup.LilyPad, plant.imitater
		case PlantFlowerPot:
			cell.Base, cell.BaseImitater = lineup.FlowerPot, plant.imitater
		case PlantPumpkin:
			cell.Pumpkin, cell.PumpkinImitater = true, plant.imitater
		case PlantCoffeeBean:
			cell.Coffee, cell.CoffeeImitater = true, plant.imitater
		default:
			cell.Plant = lineup.Plant{
				Present:  true,
				Type:     uint8(plant.typ),
				Imitater: plant.imitater,
				Awake:    !plant.asleep,
			}
		}
	}

	items, err := o.gridItems()
	if err != nil {
		return lineup.Snapshot{}, err
	}

	for _, item := range items {
		if !onBoard(item.row, item.col) {
			continue
		}

		cell := &snapshot.Cells[item.row][item.col]

		switch item.typ {
		case GridItemGrave:
			cell.Base, cell.BaseImitater = lineup.Grave, false
		case GridItemLadder:
			cell.Ladder = true
		case GridItemRake:
			snapshot.RakeRow = uint8(item.row + 1)
		}
	}

	return snapshot, nil
}

// Lineup returns the lineup token of the board.
func (o *Session) Lineup() (string, error) {
	snapshot, err := o.Snapshot()
	if err != nil {
		return "", err
	}

	return lineup.Encode(snapshot)
}

// SetLineup replaces the board with the lineup of token. The token's
// scene must match the current scene. Graves, ladders, rakes and plants
// are removed first. The lineup is then planted in one injected
// sequence: bases, plants, pumpkins, coffee beans, graves and ladders.
//
// Token errors match lineup.ErrTokenFormat or lineup.ErrTokenDecode.
func (o *Session) SetLineup(token string) error {
	snapshot, err := lineup.Decode(token)
	if err != nil {
		return err
	}

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

	if scene != int32(snapshot.Scene) {
		return fmt.Errorf("%w - lineup is for %s, current scene is %d",
			ErrSceneMismatch, snapshot.Scene, scene)
	}

	mode, err := o.gameMode()
	if err != nil {
		return err
	}

	err = o.clearGridItems(GridItemGrave, GridItemLadder, GridItemRake)
	if err != nil {
		return err
	}

	err = o.clearAllPlants()
	if err != nil {
		return err
	}

	return o.run(o.lineupCode(snapshot, isIZStyle(mode)))
}

func (o *Session) lineupCode(s lineup.Snapshot, izStyle bool) *asmkit.Builder {
	b := asmkit.NewBuilder()

	wakes := s.Scene == lineup.Day || s.Scene == lineup.Pool || s.Scene == lineup.Roof

	each := func(fn func(row int, col int, cell lineup.Cell)) {
		for r := 0; r < lineup.MaxRows; r++ {
			for c := 0; c < lineup.Cols; c++ {
				fn(r, c, s.Cells[r][c])
			}
		}
	}

	each(func(r int, c int, cell lineup.Cell) {
		switch cell.Base {
		case lineup.LilyPad:
			o.code.PutPlant(b, r, c, PlantLilyPad, cell.BaseImitater, izStyle)
		case lineup.FlowerPot:
			o.code.PutPlant(b, r, c, PlantFlowerPot, cell.BaseImitater, izStyle)
		}
	})

	each(func(r int, c int, cell lineup.Cell) {
		plant := cell.Plant
		if !plant.Present {
			return
		}

		switch int(plant.Type) {
		case PlantLilyPad, PlantFlowerPot, PlantPumpkin, PlantCoffeeBean:
			return
		}

		if plant.Type > lineup.MaxPlantType {
			return
		}

		o.code.PutPlant(b, r, c, int(plant.Type), plant.Imitater, izStyle)

		if wakes && maySleep[plant.Type] && plant.Awake {
			o.code.WakeNewPlant(b)
		}

		if plant.Type == PlantPotatoMine || plant.Type == PlantSunShroom {
			o.code.GrowNewPlant(b)
		}
	})

	each(func(r int, c int, cell lineup.Cell) {
		if cell.Pumpkin {
			o.code.PutPlant(b, r, c, PlantPumpkin, cell.PumpkinImitater, izStyle)
		}
	})

	each(func(r int, c int, cell lineup.Cell) {
		if cell.Coffee {
			o.code.PutPlant(b, r, c, PlantCoffeeBean, cell.CoffeeImitater, izStyle)
		}
	})

	each(func(r int, c int, cell lineup.Cell) {
		if cell.Base == lineup.Grave {
			o.code.PutGrave(b, r, c)
		}
	})

	each(func(r int, c int, cell lineup.Cell) {
		if cell.Ladder {
			o.code.PutLadder(b, r, c)
		}
	})

	return b.Ret()
}
