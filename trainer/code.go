package trainer

import (
	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/profile"
)

// Plant, zombie and grid item types referenced by the features.
const (
	PlantPotatoMine = 4
	PlantSunShroom  = 9
	PlantLilyPad    = 16
	PlantPumpkin    = 30
	PlantFlowerPot  = 33
	PlantCoffeeBean = 35
	PlantCobCannon  = 47
	PlantImitater   = 48

	ZombieZomboss = 25

	GridItemGrave  = 1
	GridItemCrater = 2
	GridItemLadder = 3
	GridItemVase   = 7
	GridItemRake   = 11
)

// NewCode returns the call sequences of the build described by p.
func NewCode(p *profile.Profile) Code {
	return Code{p: p}
}

// Code appends calls of a build's internal routines to a Builder.
// Each method leaves the stack balanced.
type Code struct {
	p *profile.Profile
}

// loadBoard loads the board object into reg.
func (o Code) loadBoard(b *asmkit.Builder, reg asmkit.Register) {
	b.MovAbs(reg, o.p.BaseAddress()).
		MovRegOffset(reg, reg, o.p.Offset("main_object"))
}

// loadIndirect loads the board's indirect object into reg.
func (o Code) loadIndirect(b *asmkit.Builder, reg asmkit.Register) {
	o.loadBoard(b, reg)
	b.MovRegOffset(reg, reg, o.p.Offset("indirect_base"))
}

// PutPlant plants typ at row and col. eax holds the new plant
// afterwards.
func (o Code) PutPlant(b *asmkit.Builder, row int, col int, typ int, imitater bool, izStyle bool) {
	if imitater {
		b.PushImm(uint32(typ)).PushImm(PlantImitater)
	} else {
		b.PushInt(-1).PushImm(uint32(typ))
	}

	b.MovImm(asmkit.EAX, uint32(row)).PushImm(uint32(col))
	o.loadBoard(b, asmkit.EBP)
	b.PushReg(asmkit.EBP).Call(o.p.Routine("put_plant"))

	if imitater {
		o.loadBoard(b, asmkit.ECX)
		b.MovRegOffset(asmkit.ECX, asmkit.ECX, o.p.Offset("plant"))
		o.loadBoard(b, asmkit.EBX)
		b.MovRegOffset(asmkit.EBX, asmkit.EBX, o.p.Offset("plant_next_pos")).
			ImulImm(asmkit.EBX, asmkit.EBX, o.p.Offset("plant_struct_size")).
			AddReg(asmkit.ECX, asmkit.EBX).
			PushReg(asmkit.ECX).
			MovReg(asmkit.ESI, asmkit.EAX).
			Call(o.p.Routine("put_plant_imitater")).
			PopReg(asmkit.ECX).
			MovReg(asmkit.EAX, asmkit.ECX)
	}

	if izStyle {
		b.MovReg(asmkit.ESI, asmkit.EAX).PushReg(asmkit.EAX)
		o.loadIndirect(b, asmkit.EAX)
		b.Call(o.p.Routine("put_plant_iz_style")).
			MovReg(asmkit.EAX, asmkit.ESI)
	}
}

// WakeNewPlant wakes the plant in eax and preserves eax.
func (o Code) WakeNewPlant(b *asmkit.Builder) {
	reg := o.p.Conventions().WakeupPlantRegister()

	b.PushReg(asmkit.EAX)
	if reg != asmkit.EAX {
		b.MovReg(reg, asmkit.EAX)
	}

	b.PushImm(0).
		Call(o.p.Routine("wakeup_plant")).
		PopReg(asmkit.EAX)
}

// WakePlant wakes the plant at address.
func (o Code) WakePlant(b *asmkit.Builder, address uint32) {
	b.MovImm(o.p.Conventions().WakeupPlantRegister(), address).
		PushImm(0).
		Call(o.p.Routine("wakeup_plant"))
}

// GrowNewPlant arms the potato mine or grows the sun-shroom in eax.
func (o Code) GrowNewPlant(b *asmkit.Builder) {
	b.StoreImm(asmkit.EAX, 0x54, 1)
}

// PutZombie spawns a zombie of typ at row and col.
func (o Code) PutZombie(b *asmkit.Builder, row int, col int, typ int) {
	switch o.p.Conventions().PutZombie {
	case profile.PutZombieRegister:
		b.PushImm(uint32(typ))
		o.loadIndirect(b, asmkit.ECX)
		b.PushReg(asmkit.ECX).
			MovImm(asmkit.EAX, uint32(row)).
			MovImm(asmkit.ECX, uint32(col)).
			Call(o.p.Routine("put_zombie"))
	default:
		b.PushImm(uint32(col)).
			PushImm(uint32(typ)).
			MovImm(asmkit.EAX, uint32(row))
		o.loadIndirect(b, asmkit.ECX)
		b.Call(o.p.Routine("put_zombie"))
	}
}

// PutZomboss spawns Dr. Zomboss.
func (o Code) PutZomboss(b *asmkit.Builder) {
	o.loadBoard(b, asmkit.EAX)
	b.PushImm(0).
		PushImm(ZombieZomboss).
		Call(o.p.Routine("put_zomboss"))
}

// PutGrave places a grave at row and col.
func (o Code) PutGrave(b *asmkit.Builder, row int, col int) {
	reg := o.p.Conventions().PutGraveRegister()

	o.loadIndirect(b, reg)
	b.PushReg(reg).
		MovImm(asmkit.EDI, uint32(row)).
		MovImm(asmkit.EBX, uint32(col)).
		Call(o.p.Routine("put_grave"))
}

// PutLadder places a ladder at row and col.
func (o Code) PutLadder(b *asmkit.Builder, row int, col int) {
	b.MovImm(asmkit.EDI, uint32(row)).PushImm(uint32(col))
	o.loadBoard(b, asmkit.EAX)
	b.Call(o.p.Routine("put_ladder"))
}

// DeletePlant removes the plant at address.
func (o Code) DeletePlant(b *asmkit.Builder, address uint32) {
	b.PushImm(address).Call(o.p.Routine("delete_plant"))
}

// DeleteLawnMower removes the lawn mower at address.
func (o Code) DeleteLawnMower(b *asmkit.Builder, address uint32) {
	b.MovImm(asmkit.EAX, address).Call(o.p.Routine("delete_lawn_mower"))
}

// DeleteGridItem removes the grid item at address.
func (o Code) DeleteGridItem(b *asmkit.Builder, address uint32) {
	b.MovImm(asmkit.ESI, address).Call(o.p.Routine("delete_grid_item"))
}

// LevelComplete finishes the current level.
func (o Code) LevelComplete(b *asmkit.Builder) {
	switch o.p.Conventions().LevelComplete {
	case profile.LevelCompletePushEAX:
		o.loadBoard(b, asmkit.EAX)
		b.PushReg(asmkit.EAX)
	default:
		o.loadBoard(b, asmkit.ECX)
	}

	b.Call(o.p.Routine("level_complete"))
}

// WisdomTree grows the Zen Garden's tree by one.
func (o Code) WisdomTree(b *asmkit.Builder) {
	switch o.p.Conventions().WisdomTree {
	case profile.WisdomTreeEDIBase:
		b.MovImm(asmkit.EDI, o.p.BaseAddress())
	case profile.WisdomTreeESIIndirect:
		o.loadIndirect(b, asmkit.ESI)
	case profile.WisdomTreeEDIIndirect:
		o.loadIndirect(b, asmkit.EDI)
	case profile.WisdomTreeEBXPushIndirect:
		o.loadIndirect(b, asmkit.EBX)
		b.PushReg(asmkit.EBX)
	}

	b.Call(o.p.Routine("wisdom_tree"))
}

// SetMusic switches the background music to id.
func (o Code) SetMusic(b *asmkit.Builder, id int) {
	b.MovImm(asmkit.EDI, uint32(id)).
		MovAbs(asmkit.EAX, o.p.BaseAddress()).
		MovRegOffset(asmkit.EAX, asmkit.EAX, o.p.Offset("background_music")).
		Call(o.p.Routine("set_music"))
}

// GenerateSpawnList fills the spawn list from the spawn types.
func (o Code) GenerateSpawnList(b *asmkit.Builder) {
	o.loadBoard(b, o.p.Conventions().GenerateSpawnListRegister())
	b.Call(o.p.Routine("generate_spawn_list"))
}

// UpdateSpawnPreview redraws the zombies shown on the seed chooser.
// It must run with the hack_spawn_preview patch enabled.
func (o Code) UpdateSpawnPreview(b *asmkit.Builder) {
	o.loadBoard(b, asmkit.EBX)
	b.Call(o.p.Routine("clear_spawn_preview"))
	o.loadBoard(b, asmkit.EAX)
	b.MovRegOffset(asmkit.EAX, asmkit.EAX, o.p.Offset("spawn_preview")).
		PushReg(asmkit.EAX).
		Call(o.p.Routine("update_spawn_preview"))
}
