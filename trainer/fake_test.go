package trainer

import (
	"encoding/binary"
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/process"
	"gitlab.com/stephen-fox/pvzkit/process/processtest"
	"gitlab.com/stephen-fox/pvzkit/profile"
)

const (
	testTitle = "Plants vs. Zombies"
	testBuild = "1.0.0.1051_en"

	appAddr      = 0x02000000
	boardAddr    = 0x03000000
	plantTable   = 0x04000000
	gridTable    = 0x05000000
	zombieTable  = 0x06000000
	userAddr     = 0x07000000
	slotAddr     = 0x08000000
	mowerTable   = 0x09000000
	cursorAddr   = 0x0a000000
	indirectAddr = 0x0b000000

	tableCapacity = 8
)

// fakeGame is a target laid out like a running game of testBuild
// showing a level.
type fakeGame struct {
	t       *testing.T
	p       *profile.Profile
	target  *processtest.Target
	prober  *processtest.Prober
	session *Session

	plants    int
	gridItems int
	zombies   int
}

func newFakeGame(t *testing.T) *fakeGame {
	catalog, err := profile.Default()
	if err != nil {
		t.Fatal(err)
	}

	p, ok := catalog.Profile(testBuild)
	if !ok {
		t.Fatalf("expected profile %s to exist", testBuild)
	}

	g := &fakeGame{
		t: t,
		p: p,
	}

	g.target = newGameTarget(p)
	g.prober = &processtest.Prober{Windows: map[string]*processtest.Target{
		testTitle: g.target,
	}}

	g.session, err = New(Config{
		Catalog:     catalog,
		Prober:      g.prober,
		SettleDelay: -1,
	})
	if err != nil {
		t.Fatal(err)
	}

	return g
}

func newGameTarget(p *profile.Profile) *processtest.Target {
	sig := p.Signature()

	target := processtest.NewTarget(process.Info{
		Title:            testTitle,
		PID:              42,
		ProductName:      "Plants vs. Zombies",
		OriginalFilename: "PlantsVsZombies.exe",
		FileVersion:      sig.Versions[0],
	})

	target.PutUint32(sig.Address, sig.Value).
		Map(appAddr, 0x1000).
		Map(boardAddr, 0x6000).
		Map(userAddr, 0x400).
		Map(slotAddr, 0x400).
		Map(cursorAddr, 0x100).
		Map(indirectAddr, 0x100).
		Map(plantTable, int(p.Offset("plant_struct_size"))*tableCapacity).
		Map(gridTable, int(p.Offset("grid_item_struct_size"))*tableCapacity).
		Map(zombieTable, int(p.Offset("zombie_struct_size"))*tableCapacity).
		Map(mowerTable, int(p.Offset("lawn_mower_struct_size"))*tableCapacity)

	target.PutUint32(p.BaseAddress(), appAddr).
		PutUint32(appAddr+p.Offset("main_object"), boardAddr).
		PutUint32(appAddr+p.Offset("user_data"), userAddr).
		PutUint32(appAddr+p.Offset("game_ui"), uiPlaying).
		PutUint32(boardAddr+p.Offset("plant"), plantTable).
		PutUint32(boardAddr+p.Offset("grid_item"), gridTable).
		PutUint32(boardAddr+p.Offset("zombie"), zombieTable).
		PutUint32(boardAddr+p.Offset("lawn_mower"), mowerTable).
		PutUint32(boardAddr+p.Offset("slot"), slotAddr).
		PutUint32(boardAddr+p.Offset("cursor"), cursorAddr).
		PutUint32(boardAddr+p.Offset("indirect_base"), indirectAddr)

	return target
}

func (o *fakeGame) setAppInt(offsetName string, v int32) {
	o.target.PutUint32(appAddr+o.p.Offset(offsetName), uint32(v))
}

func (o *fakeGame) setBoardInt(offsetName string, v int32) {
	o.target.PutUint32(boardAddr+o.p.Offset(offsetName), uint32(v))
}

func (o *fakeGame) boardInt(offsetName string) int32 {
	return int32(o.target.Uint32(boardAddr + o.p.Offset(offsetName)))
}

func (o *fakeGame) userInt(offsetName string) int32 {
	return int32(o.target.Uint32(userAddr + o.p.Offset(offsetName)))
}

func (o *fakeGame) addPlant(row int, col int, typ int, imitater bool, asleep bool) uint32 {
	size := o.p.Offset("plant_struct_size")
	addr := plantTable + uint32(o.plants)*size

	imitated := int32(-1)
	if imitater {
		imitated = PlantImitater
	}

	o.target.PutUint32(addr+o.p.Offset("plant_row"), uint32(row)).
		PutUint32(addr+o.p.Offset("plant_col"), uint32(col)).
		PutUint32(addr+o.p.Offset("plant_type"), uint32(typ)).
		PutUint32(addr+o.p.Offset("plant_imitater"), uint32(imitated)).
		Put(addr+o.p.Offset("plant_asleep"), []byte{boolByte(asleep)})

	o.plants++
	o.setBoardInt("plant_count_max", int32(o.plants))

	return addr
}

func (o *fakeGame) addGridItem(row int, col int, typ int) uint32 {
	size := o.p.Offset("grid_item_struct_size")
	addr := gridTable + uint32(o.gridItems)*size

	o.target.PutUint32(addr+o.p.Offset("grid_item_row"), uint32(row)).
		PutUint32(addr+o.p.Offset("grid_item_col"), uint32(col)).
		PutUint32(addr+o.p.Offset("grid_item_type"), uint32(typ))

	o.gridItems++
	o.setBoardInt("grid_item_count_max", int32(o.gridItems))

	return addr
}

func (o *fakeGame) addZombie(dead bool) uint32 {
	size := o.p.Offset("zombie_struct_size")
	addr := zombieTable + uint32(o.zombies)*size

	o.target.Put(addr+o.p.Offset("zombie_dead"), []byte{boolByte(dead)})

	o.zombies++
	o.setBoardInt("zombie_count_max", int32(o.zombies))

	return addr
}

// patchBytes returns the bytes currently at the first record of the
// named patch.
func (o *fakeGame) patchBytes(name string) []byte {
	p, ok := o.p.Patch(name)
	if !ok {
		o.t.Fatalf("expected patch %q to exist", name)
	}

	return o.target.Bytes(p[0].Address, len(p[0].Replacement))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}

	return 0
}

// call is a decoded call instruction of an execution.
type call struct {
	offset int
	target uint32
}

// decode returns the instructions and the calls of an execution.
func decode(t *testing.T, e processtest.Execution) ([]asmkit.Inst, []call) {
	disass, err := asmkit.NewDisassembler(asmkit.DisassemblerConfig{
		Syntax: asmkit.IntelSyntax,
		Origin: e.Entry,
	})
	if err != nil {
		t.Fatal(err)
	}

	var insts []asmkit.Inst
	var calls []call

	err = disass.All(e.Code, func(inst asmkit.Inst) error {
		insts = append(insts, inst)

		if inst.Inst.Op == x86asm.CALL {
			rel, ok := inst.Inst.Args[0].(x86asm.Rel)
			if !ok {
				t.Fatalf("expected a relative call at offset %d - got %s", inst.Index, inst.Dis)
			}

			calls = append(calls, call{
				offset: inst.Index,
				target: e.Entry + uint32(inst.Index+inst.Len) + uint32(int32(rel)),
			})
		}

		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	return insts, calls
}

func callTargets(calls []call) []uint32 {
	targets := make([]uint32, len(calls))
	for i, c := range calls {
		targets[i] = c.target
	}

	return targets
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
