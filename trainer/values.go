package trainer

import (
	"fmt"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/memory"
)

// Slot seed values.
const (
	// MaxSlots is the number of seed slots.
	MaxSlots = 10

	imitaterSeedBase = 48
)

// ItemRefill is the amount unlimited Zen Garden items are
// refilled to.
const ItemRefill = 1020

// SetSun sets the sun of the current level.
func (o *Session) SetSun(sun int) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	return o.writeInt32(o.board("sun"), int32(sun))
}

// SetMoney sets the player's money. The game shows ten times
// the stored value.
func (o *Session) SetMoney(money int) error {
	if !o.ready() {
		return nil
	}

	return o.writeInt32(o.path("user_data", "money"), int32(money))
}

// SetTreeHeight sets the height of the tree of wisdom. In the Zen
// Garden the tree is grown by its own routine so that it redraws.
func (o *Session) SetTreeHeight(height int) error {
	if !o.ready() {
		return nil
	}

	mode, err := o.gameMode()
	if err != nil {
		return err
	}

	if mode != modeZenGarden {
		return o.writeInt32(o.path("user_data", "tree_height"), int32(height))
	}

	err = o.writeInt32(o.path("user_data", "tree_height"), int32(height-1))
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	o.code.WisdomTree(b)

	return o.run(b.Ret())
}

// FreePlanting toggles planting without sun cost or cool down.
func (o *Session) FreePlanting(on bool) error {
	if !o.ready() {
		return nil
	}

	var v int32
	if on {
		v = 1
	}

	return o.writeInt32(o.path("free_planting"), v)
}

// JumpLevel sets the round of an endless mode.
func (o *Session) JumpLevel(level int) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	mode, err := o.gameMode()
	if err != nil {
		return err
	}

	if !(mode == 60 || mode == 70 || (mode >= 11 && mode <= 15)) {
		return nil
	}

	indirect, err := o.readUint32(o.board("indirect_base"))
	if err != nil {
		return err
	}

	return o.writeInt32(memory.Path(indirect+o.profile.Offset("endless_rounds")), int32(level))
}

func (o *Session) slotField(index int, offsetName string) (uint32, error) {
	if index < 0 || index >= MaxSlots {
		return 0, fmt.Errorf("slot index %d is out of range", index)
	}

	slots, err := o.readUint32(o.board("slot"))
	if err != nil {
		return 0, err
	}

	return slots + o.profile.Offset(offsetName) + uint32(index)*o.profile.Offset("slot_seed_struct_size"), nil
}

// SlotSeed returns the seed in slot index. Imitater seeds are
// returned as 48 plus the imitated type.
func (o *Session) SlotSeed(index int) (int, error) {
	if !o.ready() {
		return 0, ErrTargetUnavailable
	}

	ok, err := o.inLevel()
	if err != nil {
		return 0, err
	}

	if !ok {
		return 0, fmt.Errorf("%w - not in a level", ErrTargetUnavailable)
	}

	typeAddr, err := o.slotField(index, "slot_seed_type")
	if err != nil {
		return 0, err
	}

	seed, err := o.readInt32(memory.Path(typeAddr))
	if err != nil {
		return 0, err
	}

	if seed != PlantImitater {
		return int(seed), nil
	}

	imAddr, err := o.slotField(index, "slot_seed_type_im")
	if err != nil {
		return 0, err
	}

	imitated, err := o.readInt32(memory.Path(imAddr))
	if err != nil {
		return 0, err
	}

	return imitaterSeedBase + int(imitated), nil
}

// SetSlotSeed puts the seed typ in slot index.
func (o *Session) SetSlotSeed(index int, typ int, imitater bool) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	typeAddr, err := o.slotField(index, "slot_seed_type")
	if err != nil {
		return err
	}

	imAddr, err := o.slotField(index, "slot_seed_type_im")
	if err != nil {
		return err
	}

	seed, imitated := int32(typ), int32(-1)
	if imitater {
		seed, imitated = PlantImitater, int32(typ)
	}

	err = o.writeInt32(memory.Path(typeAddr), seed)
	if err != nil {
		return err
	}

	return o.writeInt32(memory.Path(imAddr), imitated)
}

// SetMusic switches the background music.
func (o *Session) SetMusic(id int) error {
	if !o.ready() {
		return nil
	}

	b := asmkit.NewBuilder()
	o.code.SetMusic(b, id)

	return o.run(b.Ret())
}

// MixMode switches the current level to another game mode. For
// adventure mode (0), level selects the adventure level.
func (o *Session) MixMode(mode int, level int) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	if mode == 0 {
		err = o.writeInt32(o.path("user_data", "level"), int32(level))
		if err != nil {
			return err
		}

		err = o.writeInt32(o.board("adventure_level"), int32(level))
		if err != nil {
			return err
		}
	}

	return o.writeInt32(o.path("game_mode"), int32(mode))
}

// DebugMode sets the game's debug display mode.
func (o *Session) DebugMode(mode int) error {
	if !o.ready() {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	return o.writeInt32(o.board("debug_mode"), int32(mode))
}
